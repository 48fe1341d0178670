package omnibus

import (
	"context"
	"time"

	"github.com/congo-pay/omnibus/internal/account"
	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/hold"
	"github.com/congo-pay/omnibus/internal/record"
	"github.com/congo-pay/omnibus/internal/store"
)

// Outcome reports how TransferFrom handled a transfer. When Settled is
// false the transfer was queued at Index.
type Outcome struct {
	Settled bool   `json:"settled"`
	Index   uint64 `json:"index"`
}

// TransferFrom moves amount of asset from caller to to. Transfers to an
// active account settle immediately; anything else is queued for
// confirmation without touching balances.
func (e *Engine) TransferFrom(ctx context.Context, caller, to, asset address.Address, amount int64) (Outcome, error) {
	if amount <= 0 {
		return Outcome{}, ErrInvalidAmount
	}
	if to.IsZero() {
		return Outcome{}, ErrSinkAddress
	}

	var out Outcome
	err := e.commit(ctx, "transfer_from", func(tx store.Tx, at time.Time) ([]record.Record, error) {
		status, err := tx.AccountStatus(ctx, to)
		if err != nil {
			return nil, err
		}

		if status == account.Active {
			if err := debit(ctx, tx, caller, asset, amount); err != nil {
				return nil, err
			}
			if err := credit(ctx, tx, to, asset, amount); err != nil {
				return nil, err
			}
			out = Outcome{Settled: true}
			return []record.Record{record.Transfer(caller, to, asset, amount, at)}, nil
		}

		idx, err := hold.Enqueue(ctx, tx, asset, hold.Entry{
			Kind:         hold.Transfer,
			Amount:       amount,
			Initiator:    caller,
			Counterparty: to,
			CreatedAt:    at,
		})
		if err != nil {
			return nil, err
		}
		out = Outcome{Index: idx}
		return []record.Record{record.TransferRequest(caller, to, asset, amount, idx, at)}, nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// SellToken queues a sale of amount to the sink. The amount must fit within
// the confirmed balance net of the caller's other open sales.
func (e *Engine) SellToken(ctx context.Context, caller, asset address.Address, amount int64) (uint64, error) {
	return e.request(ctx, "sell_token", caller, asset, amount, hold.Sell, func(tx store.Tx) error {
		capacity, err := sellCapacity(ctx, tx, caller, asset)
		if err != nil {
			return err
		}
		if amount > capacity {
			return ErrInsufficientSellCapacity
		}
		return nil
	})
}

// BuyToken queues a purchase funded by the sink. No balance is checked; the
// asset is sourced at confirmation.
func (e *Engine) BuyToken(ctx context.Context, caller, asset address.Address, amount int64) (uint64, error) {
	return e.request(ctx, "buy_token", caller, asset, amount, hold.Buy, nil)
}

// BurnToken queues destruction of amount. Only the confirmed balance is
// checked; other open entries are not reserved against.
func (e *Engine) BurnToken(ctx context.Context, caller, asset address.Address, amount int64) (uint64, error) {
	return e.request(ctx, "burn_token", caller, asset, amount, hold.Burn, func(tx store.Tx) error {
		confirmed, _, err := tx.Balance(ctx, caller, asset)
		if err != nil {
			return err
		}
		if amount > confirmed {
			return ErrInsufficientBalance
		}
		return nil
	})
}

func (e *Engine) request(ctx context.Context, op string, caller, asset address.Address, amount int64, kind hold.Kind, check func(store.Tx) error) (uint64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var idx uint64
	err := e.commit(ctx, op, func(tx store.Tx, at time.Time) ([]record.Record, error) {
		if check != nil {
			if err := check(tx); err != nil {
				return nil, err
			}
		}
		var err error
		idx, err = hold.Enqueue(ctx, tx, asset, hold.Entry{
			Kind:         kind,
			Amount:       amount,
			Initiator:    caller,
			Counterparty: address.Zero,
			CreatedAt:    at,
		})
		if err != nil {
			return nil, err
		}
		return []record.Record{requestRecord(kind, caller, asset, amount, idx, at)}, nil
	})
	if err != nil {
		return 0, err
	}
	return idx, nil
}

func requestRecord(kind hold.Kind, acct, asset address.Address, amount int64, idx uint64, at time.Time) record.Record {
	switch kind {
	case hold.Sell:
		return record.Sell(acct, asset, amount, idx, at)
	case hold.Buy:
		return record.Buy(acct, asset, amount, idx, at)
	default:
		return record.BurnToken(acct, asset, amount, idx, at)
	}
}
