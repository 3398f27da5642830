package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
)

// txStore runs every repository on one *sql.Tx.
type txStore struct {
	repos
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{repos: repos{q: tx}, tx: tx}
}

func (t *txStore) Commit() error { return mapErr(t.tx.Commit()) }

// Rollback after Commit is a no-op.
func (t *txStore) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// The outer Store owns the connection and its schema.
func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }
func (t *txStore) ApplyMigrations() error         { return nil }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, store.ErrNestedTx }

func (t *txStore) WithTx(context.Context, func(tx store.Tx) error) error {
	return store.ErrNestedTx
}
