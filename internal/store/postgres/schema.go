package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_accounts (
        book    TEXT     NOT NULL,
        address BYTEA    NOT NULL,
        status  SMALLINT NOT NULL,
        PRIMARY KEY (book, address)
    )`,
	`CREATE TABLE IF NOT EXISTS ledger_balances (
        book      TEXT   NOT NULL,
        address   BYTEA  NOT NULL,
        asset     BYTEA  NOT NULL,
        confirmed BIGINT NOT NULL CHECK (confirmed >= 0),
        PRIMARY KEY (book, address, asset)
    )`,
	`CREATE TABLE IF NOT EXISTS ledger_holds (
        book         TEXT        NOT NULL,
        asset        BYTEA       NOT NULL,
        idx          BIGINT      NOT NULL,
        status       SMALLINT    NOT NULL,
        kind         SMALLINT    NOT NULL,
        amount       BIGINT      NOT NULL CHECK (amount > 0),
        initiator    BYTEA       NOT NULL,
        counterparty BYTEA       NOT NULL,
        created_at   TIMESTAMPTZ NOT NULL,
        closed_at    TIMESTAMPTZ,
        PRIMARY KEY (book, asset, idx)
    )`,
	`CREATE INDEX IF NOT EXISTS ledger_holds_open_idx
        ON ledger_holds (book, asset, initiator, kind) WHERE status = 1`,
	`CREATE TABLE IF NOT EXISTS ledger_approvals (
        book     TEXT     NOT NULL,
        list     SMALLINT NOT NULL,
        address  BYTEA    NOT NULL,
        approved BOOLEAN  NOT NULL,
        PRIMARY KEY (book, list, address)
    )`,
}

// Migrate creates the ledger tables if they do not exist.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
