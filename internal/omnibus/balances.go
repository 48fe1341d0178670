package omnibus

import (
	"context"
	"math"
	"time"

	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/hold"
	"github.com/congo-pay/omnibus/internal/record"
	"github.com/congo-pay/omnibus/internal/store"
)

// RegisterToken initializes the confirmed balance of (acct, asset).
// Administrator only. An existing row is never overwritten.
func (e *Engine) RegisterToken(ctx context.Context, caller, acct, asset address.Address, amount int64) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if amount < 0 {
		return ErrInvalidAmount
	}
	if acct.IsZero() {
		return ErrSinkAddress
	}
	return e.commit(ctx, "register_token", func(tx store.Tx, at time.Time) ([]record.Record, error) {
		_, exists, err := tx.Balance(ctx, acct, asset)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrBalanceExists
		}
		if err := tx.PutBalance(ctx, acct, asset, amount); err != nil {
			return nil, err
		}
		return []record.Record{record.RegisterToken(acct, asset, amount, at)}, nil
	})
}

// ConfirmedBalanceOf returns the caller's settled balance of asset. Open
// entries are not reflected.
func (e *Engine) ConfirmedBalanceOf(ctx context.Context, caller, asset address.Address) (int64, error) {
	var amount int64
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		amount, _, err = tx.Balance(ctx, caller, asset)
		return err
	})
	return amount, err
}

// SellCapacity returns how much more of asset the caller may offer for sale:
// the confirmed balance minus the caller's open sell entries.
func (e *Engine) SellCapacity(ctx context.Context, caller, asset address.Address) (int64, error) {
	var capacity int64
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		capacity, err = sellCapacity(ctx, tx, caller, asset)
		return err
	})
	return capacity, err
}

func sellCapacity(ctx context.Context, tx store.Tx, caller, asset address.Address) (int64, error) {
	confirmed, _, err := tx.Balance(ctx, caller, asset)
	if err != nil {
		return 0, err
	}
	reserved, err := tx.OpenAmount(ctx, asset, caller, hold.Sell)
	if err != nil {
		return 0, err
	}
	return confirmed - reserved, nil
}

func debit(ctx context.Context, tx store.Tx, acct, asset address.Address, amount int64) error {
	confirmed, _, err := tx.Balance(ctx, acct, asset)
	if err != nil {
		return err
	}
	if amount > confirmed {
		return ErrInsufficientBalance
	}
	return tx.PutBalance(ctx, acct, asset, confirmed-amount)
}

func credit(ctx context.Context, tx store.Tx, acct, asset address.Address, amount int64) error {
	confirmed, _, err := tx.Balance(ctx, acct, asset)
	if err != nil {
		return err
	}
	if confirmed > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}
	return tx.PutBalance(ctx, acct, asset, confirmed+amount)
}
