package hold

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/congo-pay/omnibus/internal/address"
)

var (
	// ErrIndexOutOfRange is returned when an index is not below the queue
	// length for the asset.
	ErrIndexOutOfRange = errors.New("hold index out of range")

	// ErrAlreadyClosed is returned when closing an entry that was already
	// settled.
	ErrAlreadyClosed = errors.New("hold already closed")

	// ErrInvalidEntry is returned when enqueueing an entry with a
	// non-positive amount or an unknown kind.
	ErrInvalidEntry = errors.New("invalid hold entry")
)

// Log is the storage surface a queue needs. Implementations keep one
// append-only sequence per asset and assign indexes in append order.
type Log interface {
	QueueLen(ctx context.Context, asset address.Address) (uint64, error)
	Entry(ctx context.Context, asset address.Address, index uint64) (Entry, bool, error)
	AppendEntry(ctx context.Context, asset address.Address, entry Entry) (uint64, error)
	PutEntry(ctx context.Context, asset address.Address, entry Entry) error
	ListEntries(ctx context.Context, asset address.Address, offset, limit uint64) ([]Entry, error)
}

// Enqueue appends an Open entry and returns its index, which equals the
// queue length before the append.
func Enqueue(ctx context.Context, log Log, asset address.Address, entry Entry) (uint64, error) {
	if entry.Amount <= 0 || !entry.Kind.Valid() {
		return 0, ErrInvalidEntry
	}
	n, err := log.QueueLen(ctx, asset)
	if err != nil {
		return 0, err
	}
	entry.Index = n
	entry.Status = Open
	entry.ClosedAt = time.Time{}

	idx, err := log.AppendEntry(ctx, asset, entry)
	if err != nil {
		return 0, fmt.Errorf("append hold: %w", err)
	}
	if idx != n {
		return 0, fmt.Errorf("append hold: got index %d, want %d", idx, n)
	}
	return idx, nil
}

// EntryAt returns the entry stored at index for asset.
func EntryAt(ctx context.Context, log Log, asset address.Address, index uint64) (Entry, error) {
	entry, ok, err := log.Entry(ctx, asset, index)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, ErrIndexOutOfRange
	}
	return entry, nil
}

// Close moves an entry from Open to Closed. It must run in the same
// transaction as the settlement it records, after the settlement succeeded.
func Close(ctx context.Context, log Log, asset address.Address, index uint64, at time.Time) (Entry, error) {
	entry, err := EntryAt(ctx, log, asset, index)
	if err != nil {
		return Entry{}, err
	}
	if entry.Status == Closed {
		return Entry{}, ErrAlreadyClosed
	}
	entry.Status = Closed
	entry.ClosedAt = at.UTC()
	if err := log.PutEntry(ctx, asset, entry); err != nil {
		return Entry{}, fmt.Errorf("close hold: %w", err)
	}
	return entry, nil
}
