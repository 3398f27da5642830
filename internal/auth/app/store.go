package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/aussiebroadwan/agentgrant/internal/auth/denylist"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store/drivers/sqlite"
)

// connectWindow bounds how long startup waits for a server-backed store.
const connectWindow = 30 * time.Second

// OpenStore connects the configured store driver. Migrations are not
// applied; see MigrateStore.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case StorePostgres:
		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = connectWindow
		st, err := backoff.RetryNotifyWithData(func() (*postgres.Store, error) {
			return postgres.NewStore(ctx, cfg.DatabaseURL)
		}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
			logger.Warn("postgres not reachable, retrying", "error", err, "wait", wait)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return st, nil
	case StoreSQLite, "":
		// NewStore sets busy_timeout, WAL and foreign keys itself.
		st, err := sqlite.NewStore("file:" + cfg.DatabaseFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// MigrateStore opens the store and brings its schema up to date.
func MigrateStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	st, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	logger.Info("database migrations applied successfully", "driver", cfg.StoreDriver)
	return st, nil
}

// OpenDenylist connects the configured denylist driver.
func OpenDenylist(ctx context.Context, cfg Config, logger *slog.Logger) (denylist.Denylist, error) {
	switch cfg.DenylistDriver {
	case DenylistRedis:
		dl, err := denylist.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		// Redis only speeds up revocation checks, so an unreachable server
		// at boot is logged rather than fatal.
		if err := dl.Ping(ctx); err != nil {
			logger.Warn("redis denylist unreachable, verification falls back to the store", "error", err)
		}
		return dl, nil
	case DenylistMemory, "":
		return denylist.NewMemory(0), nil
	default:
		return nil, fmt.Errorf("unknown denylist driver %q", cfg.DenylistDriver)
	}
}
