package omnibus

import (
	"context"
	"fmt"
	"time"

	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/hold"
	"github.com/congo-pay/omnibus/internal/record"
	"github.com/congo-pay/omnibus/internal/store"
)

// ConfirmTransfer settles the entry at index in asset's queue on behalf of
// acct, which must be the entry's initiator. Administrator only.
//
// The balance mutation and the Open to Closed transition commit together.
// If the mutation fails the entry stays Open and the call can be retried.
// Sells and burns take value out of custody and buys bring it in; the sink
// holds no balance and only appears in the settlement record.
func (e *Engine) ConfirmTransfer(ctx context.Context, caller, acct, asset address.Address, index uint64) (record.Record, error) {
	if err := e.requireAdmin(caller); err != nil {
		return record.Record{}, err
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
		if entry.Initiator != acct {
			return nil, ErrInitiatorMismatch
		}

		var from, to address.Address
		switch entry.Kind {
		case hold.Transfer:
			if err := debit(ctx, tx, acct, asset, entry.Amount); err != nil {
				return nil, err
			}
			if err := credit(ctx, tx, entry.Counterparty, asset, entry.Amount); err != nil {
				return nil, err
			}
			from, to = acct, entry.Counterparty
		case hold.Sell, hold.Burn:
			if err := debit(ctx, tx, acct, asset, entry.Amount); err != nil {
				return nil, err
			}
			from, to = acct, address.Zero
		case hold.Buy:
			if err := credit(ctx, tx, acct, asset, entry.Amount); err != nil {
				return nil, err
			}
			from, to = address.Zero, acct
		default:
			return nil, fmt.Errorf("hold %d: unknown kind %s", index, entry.Kind)
		}

		if _, err := hold.Close(ctx, tx, asset, index, at); err != nil {
			return nil, err
		}
		settled = record.Transfer(from, to, asset, entry.Amount, at)
		return []record.Record{settled}, nil
	})
	if err != nil {
		return record.Record{}, err
	}
	return settled, nil
}
