// Package allowlist implements the restricted transfer book: approved
// senders queue transfers to approved recipients and the administrator
// confirms them. The book keeps no balances.
package allowlist

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/hold"
	"github.com/congo-pay/omnibus/internal/logging"
	"github.com/congo-pay/omnibus/internal/omnibus"
	"github.com/congo-pay/omnibus/internal/record"
	"github.com/congo-pay/omnibus/internal/store"
)

var (
	ErrNotApproved = errors.New("allowlist: sender or recipient not approved")

	ErrUnauthorized      = omnibus.ErrUnauthorized
	ErrInvalidAmount     = omnibus.ErrInvalidAmount
	ErrInitiatorMismatch = omnibus.ErrInitiatorMismatch
	ErrIndexOutOfRange   = hold.ErrIndexOutOfRange
	ErrAlreadyClosed     = hold.ErrAlreadyClosed
)

// Pending is the public view of a queued transfer.
type Pending struct {
	Status   hold.Status     `json:"status"`
	Amount   int64           `json:"amount"`
	Receiver address.Address `json:"receiver"`
}

// Engine is one allow-list book bound to a fixed administrator.
type Engine struct {
	admin   address.Address
	store   store.Store
	emitter record.Emitter
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

func WithEmitter(em record.Emitter) Option {
	return func(e *Engine) { e.emitter = em }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an allow-list book administered by admin.
func New(admin address.Address, st store.Store, opts ...Option) *Engine {
	e := &Engine{
		admin:  admin,
		store:  st,
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Admin returns the administrator identity.
func (e *Engine) Admin() address.Address {
	return e.admin
}

// SetApprovedSender grants or revokes acct's right to send.
func (e *Engine) SetApprovedSender(ctx context.Context, caller, acct address.Address, approved bool) error {
	return e.setApproved(ctx, "set_approved_sender", caller, store.Senders, acct, approved, record.SetApprovedSender)
}

// SetApprovedReceiver grants or revokes acct's right to receive.
func (e *Engine) SetApprovedReceiver(ctx context.Context, caller, acct address.Address, approved bool) error {
	return e.setApproved(ctx, "set_approved_receiver", caller, store.Recipients, acct, approved, record.SetApprovedReceiver)
}

func (e *Engine) setApproved(ctx context.Context, op string, caller address.Address, list store.ApprovalList, acct address.Address, approved bool, rec func(address.Address, bool, time.Time) record.Record) error {
	if caller != e.admin {
		return ErrUnauthorized
	}
	return e.commit(ctx, op, func(tx store.Tx, at time.Time) ([]record.Record, error) {
		if err := tx.PutApproved(ctx, list, acct, approved); err != nil {
			return nil, err
		}
		return []record.Record{rec(acct, approved, at)}, nil
	})
}

func (e *Engine) ApprovedSender(ctx context.Context, acct address.Address) (bool, error) {
	return e.approved(ctx, store.Senders, acct)
}

func (e *Engine) ApprovedReceiver(ctx context.Context, acct address.Address) (bool, error) {
	return e.approved(ctx, store.Recipients, acct)
}

func (e *Engine) approved(ctx context.Context, list store.ApprovalList, acct address.Address) (bool, error) {
	var ok bool
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		ok, err = tx.Approved(ctx, list, acct)
		return err
	})
	return ok, err
}

// TransferFrom queues a transfer from caller to to and returns its index.
// Both parties must be approved. Nothing settles until confirmation.
func (e *Engine) TransferFrom(ctx context.Context, caller, to, asset address.Address, amount int64) (uint64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var idx uint64
	err := e.commit(ctx, "transfer_from", func(tx store.Tx, at time.Time) ([]record.Record, error) {
		sender, err := tx.Approved(ctx, store.Senders, caller)
		if err != nil {
			return nil, err
		}
		recipient, err := tx.Approved(ctx, store.Recipients, to)
		if err != nil {
			return nil, err
		}
		if !sender || !recipient {
			return nil, ErrNotApproved
		}
		idx, err = hold.Enqueue(ctx, tx, asset, hold.Entry{
			Kind:         hold.Transfer,
			Amount:       amount,
			Initiator:    caller,
			Counterparty: to,
			CreatedAt:    at,
		})
		if err != nil {
			return nil, err
		}
		return []record.Record{record.TransferRequest(caller, to, asset, amount, idx, at)}, nil
	})
	if err != nil {
		return 0, err
	}
	return idx, nil
}

// ConfirmTransfer closes the entry at index, sent by from. Administrator
// only.
func (e *Engine) ConfirmTransfer(ctx context.Context, caller, from, asset address.Address, index uint64) (record.Record, error) {
	if caller != e.admin {
		return record.Record{}, ErrUnauthorized
	}
	var settled record.Record
	err := e.commit(ctx, "confirm_transfer", func(tx store.Tx, at time.Time) ([]record.Record, error) {
		entry, err := hold.EntryAt(ctx, tx, asset, index)
		if err != nil {
			return nil, err
		}
		if !entry.IsOpen() {
			return nil, ErrAlreadyClosed
		}
		if entry.Initiator != from {
			return nil, ErrInitiatorMismatch
		}
		if _, err := hold.Close(ctx, tx, asset, index, at); err != nil {
			return nil, err
		}
		settled = record.Transfer(from, entry.Counterparty, asset, entry.Amount, at)
		return []record.Record{settled}, nil
	})
	if err != nil {
		return record.Record{}, err
	}
	return settled, nil
}

// PendingTransaction returns the status, amount and receiver queued at index.
func (e *Engine) PendingTransaction(ctx context.Context, asset address.Address, index uint64) (Pending, error) {
	entry, err := e.EntryAt(ctx, asset, index)
	if err != nil {
		return Pending{}, err
	}
	return Pending{Status: entry.Status, Amount: entry.Amount, Receiver: entry.Counterparty}, nil
}

// EntryAt returns the full queued entry at index.
func (e *Engine) EntryAt(ctx context.Context, asset address.Address, index uint64) (hold.Entry, error) {
	var entry hold.Entry
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		entry, err = hold.EntryAt(ctx, tx, asset, index)
		return err
	})
	return entry, err
}

// QueueLen returns how many transfers were ever queued for asset.
func (e *Engine) QueueLen(ctx context.Context, asset address.Address) (uint64, error) {
	var n uint64
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		n, err = tx.QueueLen(ctx, asset)
		return err
	})
	return n, err
}

// Entries lists asset's queue from offset. A zero limit returns the rest.
func (e *Engine) Entries(ctx context.Context, asset address.Address, offset, limit uint64) ([]hold.Entry, error) {
	var out []hold.Entry
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.ListEntries(ctx, asset, offset, limit)
		return err
	})
	return out, err
}

func (e *Engine) commit(ctx context.Context, op string, fn func(tx store.Tx, at time.Time) ([]record.Record, error)) error {
	at := e.now().UTC()
	var out []record.Record
	err := e.store.Update(ctx, func(tx store.Tx) error {
		recs, err := fn(tx, at)
		out = recs
		return err
	})
	if err != nil {
		e.logger.DebugContext(ctx, "allowlist operation rejected", slog.String("op", op), slog.Any("error", err))
		return err
	}
	e.logger.DebugContext(ctx, "allowlist operation committed", slog.String("op", op))
	if e.emitter != nil && len(out) > 0 {
		if err := e.emitter.Emit(ctx, out...); err != nil {
			e.logger.WarnContext(ctx, "emit allowlist records", slog.String("op", op), slog.Any("error", err))
		}
	}
	return nil
}
