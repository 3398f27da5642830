package authsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
)

// DefaultMinRefresh bounds how often an unknown kid may trigger a JWKS fetch.
const DefaultMinRefresh = 30 * time.Second

// OfflineVerifier checks grant tokens against the published JWKS without
// calling the control plane per request. It sees signature and expiry only:
// a revoked token keeps verifying until it expires. Use Session.VerifyToken
// or Session.CheckToken where revocation must be honoured immediately.
//
// OfflineVerifier implements httpx.GrantVerifier.
type OfflineVerifier struct {
	client   *SDKClient
	keys     *jwtx.KeySet
	verifier *jwtx.KeySetVerifier

	// MinRefresh is the minimum gap between refetches caused by an unknown
	// kid, so a flood of forged tokens cannot hammer the JWKS endpoint.
	MinRefresh time.Duration

	mu        sync.Mutex
	lastFetch time.Time
	now       func() time.Time
}

// NewOfflineVerifier returns a verifier that loads keys from client's JWKS
// endpoint on first use and again whenever a token names an unknown kid.
func NewOfflineVerifier(client *SDKClient, opts jwtx.VerifyOptions) *OfflineVerifier {
	keys := jwtx.NewKeySet()
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &OfflineVerifier{
		client:     client,
		keys:       keys,
		verifier:   jwtx.NewVerifier(keys, opts),
		MinRefresh: DefaultMinRefresh,
		now:        now,
	}
}

// Refresh replaces the cached keys with the current JWKS.
func (v *OfflineVerifier) Refresh(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.refreshLocked(ctx)
}

func (v *OfflineVerifier) refreshLocked(ctx context.Context) error {
	jwks, err := v.client.GetJWKS(ctx)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	if err := v.keys.Replace(jwtx.JWKS(*jwks)); err != nil {
		return fmt.Errorf("load jwks: %w", err)
	}
	v.lastFetch = v.now()
	return nil
}

// refreshIfStale refetches unless another caller did so recently.
func (v *OfflineVerifier) refreshIfStale(ctx context.Context, force bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !force && !v.lastFetch.IsZero() && v.now().Sub(v.lastFetch) < v.MinRefresh {
		return nil
	}
	return v.refreshLocked(ctx)
}

// VerifyGrant verifies signature, issuer, audience and expiry.
func (v *OfflineVerifier) VerifyGrant(ctx context.Context, token string) (jwtx.Claims, error) {
	if !v.keys.IsReady() {
		if err := v.refreshIfStale(ctx, true); err != nil {
			return jwtx.Claims{}, err
		}
	}

	claims, err := v.verifier.Verify(token)
	if !errors.Is(err, jwtx.ErrUnknownKID) {
		return claims, err
	}

	// Keys may have rotated since the last fetch.
	if rerr := v.refreshIfStale(ctx, false); rerr != nil {
		return jwtx.Claims{}, rerr
	}
	return v.verifier.Verify(token)
}
