// Package postgres is the server-grade store driver, backed by a pgx
// connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
}

// NewStore opens a pgxpool connection and returns a ready store.
func NewStore(ctx context.Context, connStr string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, mapErr(err)
	}
	return &txStore{tx: tx}, nil
}

// WithTx executes fn within a transaction, committing when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return store.RunTx(ctx, s, fn)
}

func (s *Store) Developers() store.Developers       { return &developersRepo{db: s.pool} }
func (s *Store) Agents() store.Agents               { return &agentsRepo{db: s.pool} }
func (s *Store) AuthRequests() store.AuthRequests   { return &authRequestsRepo{db: s.pool} }
func (s *Store) Grants() store.Grants               { return &grantsRepo{db: s.pool} }
func (s *Store) GrantTokens() store.GrantTokens     { return &grantTokensRepo{db: s.pool} }
func (s *Store) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{db: s.pool} }
func (s *Store) Policies() store.Policies           { return &policiesRepo{db: s.pool} }
func (s *Store) Audit() store.Audit                 { return &auditRepo{db: s.pool} }

type txStore struct {
	tx pgx.Tx
}

// Commit and Rollback use a fresh context so a cancelled request never
// leaves a transaction open on a pooled connection.
func (t *txStore) Commit() error { return mapErr(t.tx.Commit(context.Background())) }

func (t *txStore) Rollback() error {
	err := t.tx.Rollback(context.Background())
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }
func (t *txStore) ApplyMigrations() error         { return nil }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, store.ErrNestedTx }

func (t *txStore) WithTx(context.Context, func(tx store.Tx) error) error {
	return store.ErrNestedTx
}

func (t *txStore) Developers() store.Developers       { return &developersRepo{db: t.tx} }
func (t *txStore) Agents() store.Agents               { return &agentsRepo{db: t.tx} }
func (t *txStore) AuthRequests() store.AuthRequests   { return &authRequestsRepo{db: t.tx} }
func (t *txStore) Grants() store.Grants               { return &grantsRepo{db: t.tx} }
func (t *txStore) GrantTokens() store.GrantTokens     { return &grantTokensRepo{db: t.tx} }
func (t *txStore) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{db: t.tx} }
func (t *txStore) Policies() store.Policies           { return &policiesRepo{db: t.tx} }
func (t *txStore) Audit() store.Audit                 { return &auditRepo{db: t.tx} }

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return errors.Join(store.ErrAlreadyExists, err)
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
			return errors.Join(store.ErrConflict, err)
		}
	}
	return err
}

func requireOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func changed(tag pgconn.CommandTag, err error) (bool, error) {
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() > 0, nil
}

func affected(tag pgconn.CommandTag, err error) (int64, error) {
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// nonNil keeps NOT NULL array columns from receiving a NULL.
func nonNil(scopes []string) []string {
	if scopes == nil {
		return []string{}
	}
	return scopes
}

// collect drains rows through scan, mapping driver errors.
func collect[T any](rows pgx.Rows, err error, scan func(pgx.Row) (T, error)) ([]T, error) {
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, mapErr(rows.Err())
}
