// Package denylist records revoked token and grant ids for fast rejection.
//
// The denylist is an optimization. The relational store stays authoritative;
// a missing or failing denylist only makes verification slower, never laxer.
package denylist

import (
	"context"
	"time"
)

// Denylist is a key/expiry set.
type Denylist interface {
	// Revoke marks key as revoked for ttl. Re-revoking extends the ttl.
	Revoke(ctx context.Context, key string, ttl time.Duration) error

	// IsRevoked reports whether any of keys is currently revoked.
	IsRevoked(ctx context.Context, keys ...string) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// TokenKey is the denylist key for a grant token id.
func TokenKey(jti string) string { return "revoked:tok:" + jti }

// GrantKey is the denylist key for a grant id.
func GrantKey(grantID string) string { return "revoked:grant:" + grantID }

// TTLUntil returns the time left until expiresAt, never less than a second so
// that a key for an about-to-expire token is still written.
func TTLUntil(expiresAt, now time.Time) time.Duration {
	return max(expiresAt.Sub(now).Truncate(time.Second), time.Second)
}
