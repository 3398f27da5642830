package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/cenkalti/backoff/v4"
)

const (
	defaultStoreTimeout = 5 * time.Second
	maxStoreAttempts    = 4
)

// Runtime carries what every service shares: the store, the clock and the
// per-call store deadline.
type Runtime struct {
	Store        store.Store
	StoreTimeout time.Duration
	Clock        func() time.Time
}

func (r Runtime) now() time.Time {
	if r.Clock != nil {
		return r.Clock().UTC()
	}
	return time.Now().UTC()
}

func (r Runtime) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	d := r.StoreTimeout
	if d <= 0 {
		d = defaultStoreTimeout
	}
	return context.WithTimeout(ctx, d)
}

// inTx runs fn in one transaction. The whole transaction is replayed when
// the store reports a transient conflict. Every store access inside fn must
// go through tx.
func (r Runtime) inTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return retry(ctx, func() error {
		tctx, cancel := r.storeCtx(ctx)
		defer cancel()
		return r.Store.WithTx(tctx, func(tx store.Tx) error {
			return fn(tctx, tx)
		})
	})
}

// query runs a single read under the store deadline, retrying conflicts.
func query[T any](ctx context.Context, r Runtime, fn func(ctx context.Context, s store.Store) (T, error)) (T, error) {
	var out T
	err := retry(ctx, func() error {
		qctx, cancel := r.storeCtx(ctx)
		defer cancel()
		v, err := fn(qctx, r.Store)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func newBackOff(ctx context.Context, attempts uint64) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	return backoff.WithContext(backoff.WithMaxRetries(b, attempts-1), ctx)
}

// retry replays op while it fails with store.ErrConflict. Any other error
// stops immediately.
func retry(ctx context.Context, op func() error) error {
	err := backoff.Retry(func() error {
		err := op()
		if err == nil || errors.Is(err, store.ErrConflict) {
			return err
		}
		return backoff.Permanent(err)
	}, newBackOff(ctx, maxStoreAttempts))
	return storeErr(err)
}
