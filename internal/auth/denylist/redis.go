package denylist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Denylist shared by every replica. Keys are written with
// SET key 1 EX ttl so redis itself handles expiry.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis connects using a redis:// or rediss:// URL.
func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("denylist: parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(c redis.UniversalClient) *Redis {
	return &Redis{client: c}
}

func (r *Redis) Revoke(ctx context.Context, key string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("denylist: set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) IsRevoked(ctx context.Context, keys ...string) (bool, error) {
	if len(keys) == 0 {
		return false, nil
	}
	n, err := r.client.Exists(ctx, keys...).Result()
	if err != nil {
		return false, fmt.Errorf("denylist: exists: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
