// Package store defines the transactional state surface consumed by the
// ledger engines. Implementations live in the memory and postgres
// subpackages.
package store

import (
	"context"
	"errors"

	"github.com/congo-pay/omnibus/internal/account"
	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/hold"
)

// ErrReadOnly is returned by write methods invoked inside View.
var ErrReadOnly = errors.New("store: write in read-only transaction")

// ApprovalList names one of the allow-lists kept by the allow-list book.
type ApprovalList uint8

const (
	Senders ApprovalList = iota + 1
	Recipients
)

func (l ApprovalList) String() string {
	switch l {
	case Senders:
		return "senders"
	case Recipients:
		return "recipients"
	default:
		return "unknown"
	}
}

// Tx is a unit of work over ledger state. Writes made through a Tx become
// visible to other transactions only if the enclosing Update returns nil.
type Tx interface {
	hold.Log

	AccountStatus(ctx context.Context, addr address.Address) (account.Status, error)
	PutAccountStatus(ctx context.Context, addr address.Address, status account.Status) error

	// Balance returns the confirmed balance and whether the row exists.
	Balance(ctx context.Context, addr, asset address.Address) (int64, bool, error)
	PutBalance(ctx context.Context, addr, asset address.Address, amount int64) error

	// OpenAmount sums the amounts of Open entries of kind created by
	// initiator in the asset's queue.
	OpenAmount(ctx context.Context, asset, initiator address.Address, kind hold.Kind) (int64, error)

	Approved(ctx context.Context, list ApprovalList, addr address.Address) (bool, error)
	PutApproved(ctx context.Context, list ApprovalList, addr address.Address, approved bool) error
}

// Store runs transactions. Update serializes writers; fn's writes are
// discarded when it returns an error.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}
