// Package postgres persists ledger state in PostgreSQL. Several books (the
// omnibus ledger and the allow-list variant) can share one database; every
// row is scoped by its book name.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/omnibus/internal/account"
	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/hold"
	"github.com/congo-pay/omnibus/internal/store"
)

// Store implements store.Store on a pgx connection pool.
type Store struct {
	db   *pgxpool.Pool
	book string
}

// New constructs a Postgres-backed store for the named book.
func New(db *pgxpool.Pool, book string) *Store {
	return &Store{db: db, book: book}
}

var _ store.Store = (*Store)(nil)

// Update runs fn in a read-write transaction. Writers to the same book are
// serialized with a transaction-scoped advisory lock so queue indexes are
// assigned in commit order.
func (s *Store) Update(ctx context.Context, fn func(store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, s.book); err != nil {
		return fmt.Errorf("lock book %s: %w", s.book, err)
	}

	if err := fn(&pgTx{tx: tx, book: s.book}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&pgTx{tx: tx, book: s.book, readOnly: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct {
	tx       pgx.Tx
	book     string
	readOnly bool
}

func (t *pgTx) AccountStatus(ctx context.Context, addr address.Address) (account.Status, error) {
	const query = `SELECT status FROM ledger_accounts WHERE book = $1 AND address = $2`
	var status int16
	if err := t.tx.QueryRow(ctx, query, t.book, addr.Bytes()).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Unregistered, nil
		}
		return 0, err
	}
	return account.Status(status), nil
}

func (t *pgTx) PutAccountStatus(ctx context.Context, addr address.Address, status account.Status) error {
	if t.readOnly {
		return store.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `INSERT INTO ledger_accounts (book, address, status) VALUES ($1, $2, $3)
        ON CONFLICT (book, address) DO UPDATE SET status = EXCLUDED.status`, t.book, addr.Bytes(), int16(status))
	return err
}

func (t *pgTx) Balance(ctx context.Context, addr, asset address.Address) (int64, bool, error) {
	const query = `SELECT confirmed FROM ledger_balances WHERE book = $1 AND address = $2 AND asset = $3`
	var amount int64
	if err := t.tx.QueryRow(ctx, query, t.book, addr.Bytes(), asset.Bytes()).Scan(&amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return amount, true, nil
}

func (t *pgTx) PutBalance(ctx context.Context, addr, asset address.Address, amount int64) error {
	if t.readOnly {
		return store.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `INSERT INTO ledger_balances (book, address, asset, confirmed) VALUES ($1, $2, $3, $4)
        ON CONFLICT (book, address, asset) DO UPDATE SET confirmed = EXCLUDED.confirmed`,
		t.book, addr.Bytes(), asset.Bytes(), amount)
	return err
}

func (t *pgTx) Approved(ctx context.Context, list store.ApprovalList, addr address.Address) (bool, error) {
	const query = `SELECT approved FROM ledger_approvals WHERE book = $1 AND list = $2 AND address = $3`
	var approved bool
	if err := t.tx.QueryRow(ctx, query, t.book, int16(list), addr.Bytes()).Scan(&approved); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return approved, nil
}

func (t *pgTx) PutApproved(ctx context.Context, list store.ApprovalList, addr address.Address, approved bool) error {
	if t.readOnly {
		return store.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `INSERT INTO ledger_approvals (book, list, address, approved) VALUES ($1, $2, $3, $4)
        ON CONFLICT (book, list, address) DO UPDATE SET approved = EXCLUDED.approved`,
		t.book, int16(list), addr.Bytes(), approved)
	return err
}

func (t *pgTx) QueueLen(ctx context.Context, asset address.Address) (uint64, error) {
	var n int64
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_holds WHERE book = $1 AND asset = $2`,
		t.book, asset.Bytes()).Scan(&n); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

const entryColumns = `idx, status, kind, amount, initiator, counterparty, created_at, closed_at`

func scanEntry(row pgx.Row) (hold.Entry, error) {
	var (
		idx                     int64
		status, kind            int16
		initiator, counterparty []byte
		closedAt                *time.Time
		e                       hold.Entry
	)
	if err := row.Scan(&idx, &status, &kind, &e.Amount, &initiator, &counterparty, &e.CreatedAt, &closedAt); err != nil {
		return hold.Entry{}, err
	}
	var err error
	if e.Initiator, err = address.FromBytes(initiator); err != nil {
		return hold.Entry{}, err
	}
	if e.Counterparty, err = address.FromBytes(counterparty); err != nil {
		return hold.Entry{}, err
	}
	e.Index = uint64(idx)
	e.Status = hold.Status(status)
	e.Kind = hold.Kind(kind)
	e.CreatedAt = e.CreatedAt.UTC()
	if closedAt != nil {
		e.ClosedAt = closedAt.UTC()
	}
	return e, nil
}

func (t *pgTx) Entry(ctx context.Context, asset address.Address, index uint64) (hold.Entry, bool, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_holds
        WHERE book = $1 AND asset = $2 AND idx = $3`, t.book, asset.Bytes(), int64(index))
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return hold.Entry{}, false, nil
		}
		return hold.Entry{}, false, err
	}
	return e, true, nil
}

func (t *pgTx) AppendEntry(ctx context.Context, asset address.Address, entry hold.Entry) (uint64, error) {
	if t.readOnly {
		return 0, store.ErrReadOnly
	}
	idx, err := t.QueueLen(ctx, asset)
	if err != nil {
		return 0, err
	}
	var closedAt *time.Time
	if !entry.ClosedAt.IsZero() {
		closedAt = &entry.ClosedAt
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO ledger_holds (book, asset, `+entryColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.book, asset.Bytes(), int64(idx), int16(entry.Status), int16(entry.Kind), entry.Amount,
		entry.Initiator.Bytes(), entry.Counterparty.Bytes(), entry.CreatedAt.UTC(), closedAt)
	if err != nil {
		return 0, err
	}
	return idx, nil
}

func (t *pgTx) PutEntry(ctx context.Context, asset address.Address, entry hold.Entry) error {
	if t.readOnly {
		return store.ErrReadOnly
	}
	var closedAt *time.Time
	if !entry.ClosedAt.IsZero() {
		closedAt = &entry.ClosedAt
	}
	cmd, err := t.tx.Exec(ctx, `UPDATE ledger_holds SET status = $4, closed_at = $5
        WHERE book = $1 AND asset = $2 AND idx = $3`,
		t.book, asset.Bytes(), int64(entry.Index), int16(entry.Status), closedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return hold.ErrIndexOutOfRange
	}
	return nil
}

func (t *pgTx) ListEntries(ctx context.Context, asset address.Address, offset, limit uint64) ([]hold.Entry, error) {
	var lim *int64
	if limit > 0 {
		l := int64(limit)
		lim = &l
	}
	rows, err := t.tx.Query(ctx, `SELECT `+entryColumns+` FROM ledger_holds
        WHERE book = $1 AND asset = $2 ORDER BY idx OFFSET $3 LIMIT $4`,
		t.book, asset.Bytes(), int64(offset), lim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hold.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (t *pgTx) OpenAmount(ctx context.Context, asset, initiator address.Address, kind hold.Kind) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0)::BIGINT FROM ledger_holds
        WHERE book = $1 AND asset = $2 AND initiator = $3 AND kind = $4 AND status = $5`
	var sum int64
	if err := t.tx.QueryRow(ctx, query, t.book, asset.Bytes(), initiator.Bytes(), int16(kind), int16(hold.Open)).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}
