package omnibus

import (
	"context"

	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/hold"
	"github.com/congo-pay/omnibus/internal/store"
)

// EntryAt returns the queued entry at index for asset.
func (e *Engine) EntryAt(ctx context.Context, asset address.Address, index uint64) (hold.Entry, error) {
	var entry hold.Entry
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		entry, err = hold.EntryAt(ctx, tx, asset, index)
		return err
	})
	return entry, err
}

// QueueLen returns how many entries were ever queued for asset.
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
