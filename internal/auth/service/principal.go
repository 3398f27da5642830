package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/pkg/idx"
	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
)

const (
	defaultSessionTTL = time.Hour
	maxSessionTTL     = 24 * time.Hour

	// principalAuditLimit caps the activity a principal sees.
	principalAuditLimit = 100
)

// PrincipalService lets a principal see and revoke what they granted. The
// developer mints a short-lived session token for the principal; every
// other call authenticates with that token instead of an API key.
type PrincipalService struct {
	Runtime

	Keys   *jwtx.KeyManager
	Issuer string
	Grants *GrantService
	Audit  *AuditService
}

type CreateSessionInput struct {
	PrincipalID string
	ExpiresIn   string
}

// PrincipalSession is a signed session token and its expiry.
type PrincipalSession struct {
	Token     string
	ExpiresAt time.Time
}

// Principal identifies the holder of a verified session.
type Principal struct {
	DeveloperID string
	PrincipalID string
}

// PrincipalGrant is an active grant with the agent it was issued to. Agent
// is nil when the agent row is gone.
type PrincipalGrant struct {
	Grant domain.Grant
	Agent *domain.Agent
}

// CreateSession mints a session for a principal that holds at least one
// active grant. ExpiresIn defaults to 1h and is capped at 24h.
func (s *PrincipalService) CreateSession(ctx context.Context, developerID string, in CreateSessionInput) (PrincipalSession, error) {
	principalID := strings.TrimSpace(in.PrincipalID)
	if principalID == "" {
		return PrincipalSession{}, ErrPrincipalFields
	}
	ttl := defaultSessionTTL
	if e := strings.TrimSpace(in.ExpiresIn); e != "" {
		d, ok := parseDuration(e)
		if !ok {
			return PrincipalSession{}, ErrSessionExpiry
		}
		ttl = min(d, maxSessionTTL)
	}
	if s.Keys == nil || !s.Keys.IsReady() {
		return PrincipalSession{}, ErrKeysNotReady
	}

	now := s.now()
	grants, err := s.activeGrants(ctx, developerID, principalID, now)
	if err != nil {
		return PrincipalSession{}, err
	}
	if len(grants) == 0 {
		return PrincipalSession{}, ErrNoActiveGrants
	}

	expiresAt := now.Add(ttl).Truncate(time.Second)
	token, err := s.Keys.Sign(jwtx.NewPrincipalSessionClaims(
		s.Issuer, developerID, principalID, idx.NewPrefixed(idx.PrefixSession), now, expiresAt))
	if err != nil {
		return PrincipalSession{}, err
	}
	return PrincipalSession{Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate verifies a session token.
func (s *PrincipalService) Authenticate(token string) (Principal, error) {
	if s.Keys == nil {
		return Principal{}, ErrKeysNotReady
	}
	claims, err := s.Keys.VerifyPrincipalSession(token)
	if err != nil {
		return Principal{}, ErrSessionInvalid
	}
	return Principal{DeveloperID: claims.DeveloperID, PrincipalID: claims.Subject}, nil
}

// ListGrants returns the principal's active grants, newest first.
func (s *PrincipalService) ListGrants(ctx context.Context, p Principal) ([]PrincipalGrant, error) {
	grants, err := s.activeGrants(ctx, p.DeveloperID, p.PrincipalID, s.now())
	if err != nil {
		return nil, err
	}
	agents, err := query(ctx, s.Runtime, func(ctx context.Context, st store.Store) ([]domain.Agent, error) {
		return st.Agents().ListAgents(ctx, p.DeveloperID)
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Agent, len(agents))
	for i := range agents {
		byID[agents[i].ID] = &agents[i]
	}
	out := make([]PrincipalGrant, 0, len(grants))
	for _, g := range grants {
		out = append(out, PrincipalGrant{Grant: g, Agent: byID[g.AgentID]})
	}
	return out, nil
}

// RevokeGrant revokes one of the principal's grants and everything
// delegated from it.
func (s *PrincipalService) RevokeGrant(ctx context.Context, p Principal, grantID string) ([]domain.Grant, error) {
	return s.Grants.RevokeForPrincipal(ctx, p.DeveloperID, p.PrincipalID, grantID)
}

// ListAudit returns the most recent audit entries about the principal,
// newest first.
func (s *PrincipalService) ListAudit(ctx context.Context, p Principal) ([]domain.AuditEntry, error) {
	entries, err := s.Audit.List(ctx, p.DeveloperID, domain.AuditFilter{PrincipalID: p.PrincipalID})
	if err != nil {
		return nil, err
	}
	if len(entries) > principalAuditLimit {
		entries = entries[len(entries)-principalAuditLimit:]
	}
	slices.Reverse(entries)
	return entries, nil
}

func (s *PrincipalService) activeGrants(ctx context.Context, developerID, principalID string, now time.Time) ([]domain.Grant, error) {
	grants, err := query(ctx, s.Runtime, func(ctx context.Context, st store.Store) ([]domain.Grant, error) {
		return st.Grants().ListGrants(ctx, developerID, domain.GrantFilter{
			PrincipalID: principalID,
			Status:      domain.GrantActive,
		})
	})
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(grants, func(g domain.Grant) bool { return !g.IsActive(now) }), nil
}
