package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/denylist"
	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/metrics"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/pkg/cryptox"
	"github.com/aussiebroadwan/agentgrant/pkg/idx"
	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
	"github.com/aussiebroadwan/agentgrant/pkg/slogx"
	"github.com/cenkalti/backoff/v4"
)

// DefaultRefreshTTL is the fixed lifetime of every refresh token.
const DefaultRefreshTTL = 30 * 24 * time.Hour

const denylistAttempts = 3

// Minter signs grant tokens and records the token and refresh rows that
// back them.
type Minter struct {
	Keys       *jwtx.KeyManager
	Issuer     string
	RefreshTTL time.Duration
}

// mint records a token and a refresh token for g inside tx and returns the
// signed token. parentAgentID is empty for root grants.
func (m Minter) mint(ctx context.Context, tx store.Tx, g domain.Grant, parentAgentID string, now time.Time) (domain.IssuedGrant, error) {
	if m.Keys == nil || !m.Keys.IsReady() {
		return domain.IssuedGrant{}, ErrKeysNotReady
	}

	jti := idx.NewPrefixed(idx.PrefixToken)
	if err := tx.GrantTokens().CreateGrantToken(ctx, domain.GrantToken{
		JTI:       jti,
		GrantID:   g.ID,
		ExpiresAt: g.ExpiresAt,
		CreatedAt: now,
	}); err != nil {
		return domain.IssuedGrant{}, err
	}

	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.IssuedGrant{}, err
	}
	ttl := m.RefreshTTL
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	if err := tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.NewPrefixed(idx.PrefixRefreshToken),
		GrantID:   g.ID,
		TokenHash: cryptox.FingerprintToken(refresh),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}); err != nil {
		return domain.IssuedGrant{}, err
	}

	params := jwtx.GrantClaimsParams{
		Issuer:      m.Issuer,
		PrincipalID: g.PrincipalID,
		AgentDID:    domain.AgentDID(g.AgentID),
		DeveloperID: g.DeveloperID,
		Scopes:      g.Scopes,
		TokenID:     jti,
		GrantID:     g.ID,
		Audience:    g.Audience,
		IssuedAt:    now,
		ExpiresAt:   g.ExpiresAt,
	}
	if g.ParentGrantID != "" {
		params.ParentAgentDID = domain.AgentDID(parentAgentID)
		params.ParentGrantID = g.ParentGrantID
		params.Depth = g.DelegationDepth
	}

	token, err := m.Keys.Sign(jwtx.NewGrantClaims(params))
	if err != nil {
		return domain.IssuedGrant{}, err
	}

	return domain.IssuedGrant{
		Grant:        g,
		GrantToken:   token,
		RefreshToken: refresh,
		TokenID:      jti,
	}, nil
}

// publishRevocations writes denylist keys after the store has committed the
// revocation. Failures are retried, then logged and counted; the store stays
// authoritative so verification still rejects the token.
func publishRevocations(ctx context.Context, dl denylist.Denylist, keys map[string]time.Duration) {
	if dl == nil || len(keys) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	log := slogx.FromContext(ctx)

	for key, ttl := range keys {
		err := backoff.Retry(func() error {
			return dl.Revoke(ctx, key, ttl)
		}, newBackOff(ctx, denylistAttempts))
		if err != nil {
			metrics.DenylistFailure()
			log.Warn("denylist publish failed", "key", key, "error", err)
		}
	}
}

// isDenied consults the denylist. An unreachable denylist reports false so
// that the caller falls through to the store.
func isDenied(ctx context.Context, dl denylist.Denylist, keys ...string) bool {
	if dl == nil {
		return false
	}
	revoked, err := dl.IsRevoked(ctx, keys...)
	if err != nil {
		slogx.FromContext(ctx).Warn("denylist lookup failed, falling back to store", "error", err)
		return false
	}
	return revoked
}
