package omnibus

import (
	"context"
	"time"

	"github.com/congo-pay/omnibus/internal/account"
	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/record"
	"github.com/congo-pay/omnibus/internal/store"
)

// RegisterAccount creates the caller's account with status Inactive.
func (e *Engine) RegisterAccount(ctx context.Context, caller address.Address) error {
	if caller.IsZero() {
		return ErrSinkAddress
	}
	return e.commit(ctx, "register_account", func(tx store.Tx, at time.Time) ([]record.Record, error) {
		status, err := tx.AccountStatus(ctx, caller)
		if err != nil {
			return nil, err
		}
		if status != account.Unregistered {
			return nil, ErrAlreadyRegistered
		}
		if err := tx.PutAccountStatus(ctx, caller, account.Inactive); err != nil {
			return nil, err
		}
		return []record.Record{record.RegisterAccount(caller, at)}, nil
	})
}

// SetStatus changes a registered account's status. Administrator only.
func (e *Engine) SetStatus(ctx context.Context, caller, target address.Address, status account.Status) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if status != account.Inactive && status != account.Active {
		return ErrInvalidStatus
	}
	return e.commit(ctx, "set_status", func(tx store.Tx, at time.Time) ([]record.Record, error) {
		current, err := tx.AccountStatus(ctx, target)
		if err != nil {
			return nil, err
		}
		if current == account.Unregistered {
			return nil, ErrNotRegistered
		}
		if err := tx.PutAccountStatus(ctx, target, status); err != nil {
			return nil, err
		}
		return []record.Record{record.SetStatus(target, status, at)}, nil
	})
}

// StatusOf returns the account's status; never-registered accounts read as
// Unregistered.
func (e *Engine) StatusOf(ctx context.Context, acct address.Address) (account.Status, error) {
	var status account.Status
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		status, err = tx.AccountStatus(ctx, acct)
		return err
	})
	return status, err
}
