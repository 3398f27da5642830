package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/denylist"
	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/metrics"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/aussiebroadwan/agentgrant/pkg/idx"
	"github.com/aussiebroadwan/agentgrant/pkg/scopex"
	"github.com/aussiebroadwan/agentgrant/pkg/slogx"
)

const (
	defaultDelegationTTL = time.Hour
	fallbackTTL          = 24 * time.Hour

	// maxExpiresIn keeps expiry arithmetic clear of time.Time overflow.
	maxExpiresIn = 100 * 365 * 24 * time.Hour
)

var expiresInPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseExpiresIn reads a "<n><unit>" duration with unit s, m, h or d. An
// empty string yields def; anything else unparseable, or longer than a
// century, yields 24h.
func ParseExpiresIn(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	d, ok := parseDuration(s)
	if !ok {
		return fallbackTTL
	}
	return d
}

func parseDuration(s string) (time.Duration, bool) {
	m := expiresInPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	unit := map[string]time.Duration{"s": time.Second, "m": time.Minute, "h": time.Hour, "d": 24 * time.Hour}[m[2]]
	if n > int64(maxExpiresIn/unit) {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

// GrantService owns delegation, grant reads and cascading revocation.
type GrantService struct {
	Runtime
	Minter

	Denylist denylist.Denylist
	Audit    *AuditService

	// MaxDepth caps delegation chains. Zero means unlimited.
	MaxDepth int
}

type DelegateInput struct {
	ParentGrantToken string
	SubAgentID       string
	Scopes           []string
	ExpiresIn        string
}

// Delegate issues a child grant to a sub-agent, narrowing the parent's scopes
// and never outliving it.
func (s *GrantService) Delegate(ctx context.Context, developerID string, in DelegateInput) (domain.IssuedGrant, error) {
	scopes := scopex.Normalize(in.Scopes)
	if in.ParentGrantToken == "" || in.SubAgentID == "" || len(scopes) == 0 {
		return domain.IssuedGrant{}, ErrDelegateFields
	}
	if s.Keys == nil || !s.Keys.IsReady() {
		return domain.IssuedGrant{}, ErrKeysNotReady
	}

	claims, err := s.Keys.Verify(in.ParentGrantToken)
	if err != nil || claims.DeveloperID != developerID {
		return domain.IssuedGrant{}, ErrInvalidParent
	}
	if isDenied(ctx, s.Denylist, denylist.TokenKey(claims.ID), denylist.GrantKey(claims.GrantID)) {
		return domain.IssuedGrant{}, ErrParentRevoked
	}
	if excess := scopex.Excess(scopes, claims.Scopes); len(excess) > 0 {
		return domain.IssuedGrant{}, Errorf(httpx.CodeBadRequest,
			"Requested scopes exceed parent grant scopes: %s", strings.Join(excess, ", "))
	}

	now := s.now()
	var (
		issued domain.IssuedGrant
		parent domain.Grant
	)
	err = s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		// The share lock holds off a concurrent Revoke of the parent until
		// the child is committed and visible to its cascade.
		var err error
		parent, err = tx.Grants().GetGrantForShare(ctx, developerID, claims.GrantID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidParent
		}
		if err != nil {
			return err
		}
		switch {
		case parent.Status == domain.GrantRevoked:
			return ErrParentRevoked
		case !parent.IsActive(now):
			return ErrParentInactive
		}

		depth := parent.DelegationDepth + 1
		if s.MaxDepth > 0 && depth > s.MaxDepth {
			return ErrDepthExceeded
		}

		sub, err := tx.Agents().GetAgent(ctx, developerID, in.SubAgentID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && sub.Status != domain.AgentActive) {
			return ErrSubAgentMissing
		}
		if err != nil {
			return err
		}

		expiresAt := now.Add(ParseExpiresIn(in.ExpiresIn, defaultDelegationTTL))
		if parent.ExpiresAt.Before(expiresAt) {
			expiresAt = parent.ExpiresAt
		}

		child := domain.Grant{
			ID:              idx.NewPrefixed(idx.PrefixGrant),
			AgentID:         sub.ID,
			PrincipalID:     parent.PrincipalID,
			DeveloperID:     developerID,
			Scopes:          scopes,
			Status:          domain.GrantActive,
			IssuedAt:        now,
			ExpiresAt:       expiresAt,
			ParentGrantID:   parent.ID,
			DelegationDepth: depth,
			Audience:        parent.Audience,
		}
		if err := tx.Grants().CreateGrant(ctx, child); err != nil {
			return err
		}
		issued, err = s.mint(ctx, tx, child, parent.AgentID, now)
		return err
	})
	if err != nil {
		return domain.IssuedGrant{}, err
	}

	metrics.GrantIssued(metrics.KindDelegation)
	s.Audit.Record(ctx, domain.AuditEntry{
		DeveloperID: developerID,
		AgentID:     issued.Grant.AgentID,
		AgentDID:    domain.AgentDID(issued.Grant.AgentID),
		GrantID:     issued.Grant.ID,
		PrincipalID: issued.Grant.PrincipalID,
		Action:      domain.ActionGrantDelegated,
		Metadata: map[string]any{
			"parentGrantId":   parent.ID,
			"parentAgentDid":  domain.AgentDID(parent.AgentID),
			"delegationDepth": issued.Grant.DelegationDepth,
			"scopes":          issued.Grant.Scopes,
		},
	})
	return issued, nil
}

func (s *GrantService) List(ctx context.Context, developerID string, f domain.GrantFilter) ([]domain.Grant, error) {
	return query(ctx, s.Runtime, func(ctx context.Context, st store.Store) ([]domain.Grant, error) {
		return st.Grants().ListGrants(ctx, developerID, f)
	})
}

func (s *GrantService) Get(ctx context.Context, developerID, id string) (domain.Grant, error) {
	g, err := query(ctx, s.Runtime, func(ctx context.Context, st store.Store) (domain.Grant, error) {
		return st.Grants().GetGrant(ctx, developerID, id)
	})
	if errors.Is(err, store.ErrNotFound) {
		return domain.Grant{}, ErrGrantNotFound
	}
	return g, err
}

// Revoke revokes a grant and every active grant delegated from it, directly
// or transitively, in one transaction. Revoking an already revoked grant is
// a no-op apart from sweeping up any descendant still active.
func (s *GrantService) Revoke(ctx context.Context, developerID, grantID string) ([]domain.Grant, error) {
	return s.revoke(ctx, developerID, grantID, nil, map[string]any{"cascadeRoot": grantID})
}

// RevokeForPrincipal is Revoke on behalf of the principal the grant was
// issued to. A grant of another principal, or one no longer active, reads
// as not found.
func (s *GrantService) RevokeForPrincipal(ctx context.Context, developerID, principalID, grantID string) ([]domain.Grant, error) {
	owned := func(g domain.Grant) error {
		if g.PrincipalID != principalID || g.Status != domain.GrantActive {
			return ErrGrantNotFound
		}
		return nil
	}
	return s.revoke(ctx, developerID, grantID, owned, map[string]any{"cascadeRoot": grantID, "revokedBy": "principal"})
}

func (s *GrantService) revoke(ctx context.Context, developerID, grantID string, check func(domain.Grant) error, meta map[string]any) ([]domain.Grant, error) {
	now := s.now()
	var rv revocation
	err := s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		root, err := tx.Grants().GetGrant(ctx, developerID, grantID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrGrantNotFound
		}
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(root); err != nil {
				return err
			}
		}
		rv, err = cascade(ctx, tx, []domain.Grant{root}, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, developerID, rv, meta, now)
	return rv.grants, nil
}

// revocation is what one cascade moved to revoked, in traversal order.
type revocation struct {
	grants []domain.Grant
	tokens []domain.GrantToken
}

// cascade walks the delegation tree breadth first from roots, revoking
// every active grant it reaches. The tree is held as rows keyed by id, so
// the walk is a worklist of child lookups.
func cascade(ctx context.Context, tx store.Tx, roots []domain.Grant, now time.Time) (revocation, error) {
	var rv revocation
	queue := append([]domain.Grant(nil), roots...)
	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]

		ok, err := tx.Grants().RevokeGrant(ctx, g.ID, now)
		if err != nil {
			return revocation{}, err
		}
		if ok {
			revokedAt := now
			g.Status = domain.GrantRevoked
			g.RevokedAt = &revokedAt
			rv.grants = append(rv.grants, g)

			tokens, err := tx.GrantTokens().ListByGrant(ctx, g.ID)
			if err != nil {
				return revocation{}, err
			}
			rv.tokens = append(rv.tokens, tokens...)
		}

		children, err := tx.Grants().ListActiveChildren(ctx, g.ID)
		if err != nil {
			return revocation{}, err
		}
		queue = append(queue, children...)
	}
	return rv, nil
}

// finish publishes denylist keys and writes one audit entry per revoked
// grant. It runs after commit.
func (s *GrantService) finish(ctx context.Context, developerID string, rv revocation, meta map[string]any, now time.Time) {
	if len(rv.grants) == 0 {
		return
	}

	keys := make(map[string]time.Duration, len(rv.grants)+len(rv.tokens))
	for _, g := range rv.grants {
		keys[denylist.GrantKey(g.ID)] = denylist.TTLUntil(g.ExpiresAt, now)
	}
	for _, t := range rv.tokens {
		if !t.Revoked && t.ExpiresAt.After(now) {
			keys[denylist.TokenKey(t.JTI)] = denylist.TTLUntil(t.ExpiresAt, now)
		}
	}
	publishRevocations(ctx, s.Denylist, keys)

	metrics.GrantsRevoked(len(rv.grants))
	slogx.FromContext(ctx).Info("grants revoked", "developer_id", developerID, "count", len(rv.grants))

	for _, g := range rv.grants {
		md := map[string]any{"delegationDepth": g.DelegationDepth}
		for k, v := range meta {
			md[k] = v
		}
		s.Audit.Record(ctx, domain.AuditEntry{
			DeveloperID: developerID,
			AgentID:     g.AgentID,
			AgentDID:    domain.AgentDID(g.AgentID),
			GrantID:     g.ID,
			PrincipalID: g.PrincipalID,
			Action:      domain.ActionGrantRevoked,
			Metadata:    md,
		})
	}
}
