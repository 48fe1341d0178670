// Package omnibus implements the custodial hold/confirm ledger: account
// activation, per-asset confirmed balances, the pending-operation queue and
// the administrator-gated confirmation that settles queued entries.
//
// Every operation runs as a single store transaction. Records are emitted
// only after the transaction commits.
package omnibus

import (
	"context"
	"log/slog"
	"time"

	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/logging"
	"github.com/congo-pay/omnibus/internal/record"
	"github.com/congo-pay/omnibus/internal/store"
)

// Engine is one ledger instance bound to a fixed administrator.
type Engine struct {
	admin   address.Address
	store   store.Store
	emitter record.Emitter
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithEmitter sets the record emitter.
func WithEmitter(em record.Emitter) Option {
	return func(e *Engine) { e.emitter = em }
}

// WithLogger sets the logger used for operation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a ledger administered by admin on top of st.
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

func (e *Engine) requireAdmin(caller address.Address) error {
	if caller != e.admin {
		return ErrUnauthorized
	}
	return nil
}

// commit runs fn in one write transaction and emits the records it returns
// once the transaction has committed.
func (e *Engine) commit(ctx context.Context, op string, fn func(tx store.Tx, at time.Time) ([]record.Record, error)) error {
	at := e.now().UTC()
	var out []record.Record
	err := e.store.Update(ctx, func(tx store.Tx) error {
		recs, err := fn(tx, at)
		out = recs
		return err
	})
	if err != nil {
		e.logger.DebugContext(ctx, "ledger operation rejected", slog.String("op", op), slog.Any("error", err))
		return err
	}
	e.logger.DebugContext(ctx, "ledger operation committed", slog.String("op", op), slog.Int("records", len(out)))
	if e.emitter != nil && len(out) > 0 {
		if err := e.emitter.Emit(ctx, out...); err != nil {
			e.logger.WarnContext(ctx, "emit ledger records", slog.String("op", op), slog.Any("error", err))
		}
	}
	return nil
}
