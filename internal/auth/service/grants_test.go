package service

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/denylist"
	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestParseExpiresIn(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Hour},
		{"30s", 30 * time.Second},
		{"15m", 15 * time.Minute},
		{"2h", 2 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"0h", 24 * time.Hour},
		{"1w", 24 * time.Hour},
		{"soon", 24 * time.Hour},
		{"36500d", 36500 * 24 * time.Hour},
		{"36501d", 24 * time.Hour},
		{"106752d", 24 * time.Hour},
		{"9999999999h", 24 * time.Hour},
		{"99999999999999999999s", 24 * time.Hour},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, ParseExpiresIn(tc.in, time.Hour))
		})
	}
}

func TestOversizedExpiryFallsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeSandbox, domain.PlanFree)
	agent := f.agent(dev.ID)

	res, err := f.authorize.Authorize(f.ctx, dev.ID, AuthorizeInput{
		AgentID: agent.ID, PrincipalID: "user_1", Scopes: []string{"notes:read"}, ExpiresIn: "200000d",
	})
	require.NoError(t, err)
	issued, err := f.tokens.Exchange(f.ctx, dev.ID, ExchangeInput{Code: res.Code, AgentID: agent.ID})
	require.NoError(t, err)
	require.Equal(t, f.now.Add(24*time.Hour), issued.Grant.ExpiresAt)

	v, err := f.tokens.Verify(f.ctx, dev.ID, issued.GrantToken)
	require.NoError(t, err)
	require.True(t, v.Valid)
}

func TestDelegationAndCascade(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeSandbox, domain.PlanFree)
	orchestrator := f.agent(dev.ID)
	worker := f.agent(dev.ID)
	helper := f.agent(dev.ID)

	root := f.rootGrant(dev.ID, orchestrator.ID, "email:read", "email:send")

	child, err := f.grants.Delegate(f.ctx, dev.ID, DelegateInput{
		ParentGrantToken: root.GrantToken,
		SubAgentID:       worker.ID,
		Scopes:           []string{"email:read"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, child.Grant.DelegationDepth)
	require.Equal(t, root.Grant.ID, child.Grant.ParentGrantID)
	require.Equal(t, root.Grant.PrincipalID, child.Grant.PrincipalID)
	require.WithinDuration(t, f.now.Add(time.Hour), child.Grant.ExpiresAt, time.Second)

	v, err := f.tokens.Verify(f.ctx, dev.ID, child.GrantToken)
	require.NoError(t, err)
	require.True(t, v.Valid)
	require.Equal(t, 1, v.Claims.Depth())
	require.Equal(t, domain.AgentDID(orchestrator.ID), v.Claims.ParentAgentDID)
	require.Equal(t, root.Grant.ID, v.Claims.ParentGrantID)

	grandchild, err := f.grants.Delegate(f.ctx, dev.ID, DelegateInput{
		ParentGrantToken: child.GrantToken,
		SubAgentID:       helper.ID,
		Scopes:           []string{"email:read"},
		ExpiresIn:        "30d",
	})
	require.NoError(t, err)
	require.Equal(t, 2, grandchild.Grant.DelegationDepth)
	require.True(t, grandchild.Grant.ExpiresAt.Equal(child.Grant.ExpiresAt), "child never outlives its parent")

	t.Run("scopes must narrow", func(t *testing.T) {
		_, err := f.grants.Delegate(f.ctx, dev.ID, DelegateInput{
			ParentGrantToken: child.GrantToken,
			SubAgentID:       helper.ID,
			Scopes:           []string{"email:send"},
		})
		requireCode(t, err, httpx.CodeBadRequest)
		require.Contains(t, err.Error(), "email:send")
	})

	t.Run("unknown sub-agent", func(t *testing.T) {
		_, err := f.grants.Delegate(f.ctx, dev.ID, DelegateInput{
			ParentGrantToken: root.GrantToken,
			SubAgentID:       "ag_missing",
			Scopes:           []string{"email:read"},
		})
		require.ErrorIs(t, err, ErrSubAgentMissing)
	})

	t.Run("garbage parent token", func(t *testing.T) {
		_, err := f.grants.Delegate(f.ctx, dev.ID, DelegateInput{
			ParentGrantToken: "nope",
			SubAgentID:       worker.ID,
			Scopes:           []string{"email:read"},
		})
		require.ErrorIs(t, err, ErrInvalidParent)
	})

	t.Run("revoking the root cascades", func(t *testing.T) {
		revoked, err := f.grants.Revoke(f.ctx, dev.ID, root.Grant.ID)
		require.NoError(t, err)
		require.Len(t, revoked, 3)
		require.Equal(t, root.Grant.ID, revoked[0].ID)

		for _, tok := range []string{root.GrantToken, child.GrantToken, grandchild.GrantToken} {
			v, err := f.tokens.Verify(f.ctx, dev.ID, tok)
			require.NoError(t, err)
			require.False(t, v.Valid)
			require.Equal(t, ReasonRevoked, v.Reason)
		}

		for _, id := range []string{root.Grant.ID, child.Grant.ID, grandchild.Grant.ID} {
			g, err := f.grants.Get(f.ctx, dev.ID, id)
			require.NoError(t, err)
			require.Equal(t, domain.GrantRevoked, g.Status)
			require.NotNil(t, g.RevokedAt)

			denied, err := f.denylist.IsRevoked(f.ctx, denylist.GrantKey(id))
			require.NoError(t, err)
			require.True(t, denied)
		}

		entries, err := f.audit.List(f.ctx, dev.ID, domain.AuditFilter{Action: domain.ActionGrantRevoked})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		require.Equal(t, root.Grant.ID, entries[0].Metadata["cascadeRoot"])
	})

	t.Run("revoking again is idempotent", func(t *testing.T) {
		revoked, err := f.grants.Revoke(f.ctx, dev.ID, root.Grant.ID)
		require.NoError(t, err)
		require.Empty(t, revoked)
	})

	t.Run("revoked parent cannot delegate", func(t *testing.T) {
		_, err := f.grants.Delegate(f.ctx, dev.ID, DelegateInput{
			ParentGrantToken: root.GrantToken,
			SubAgentID:       worker.ID,
			Scopes:           []string{"email:read"},
		})
		require.ErrorIs(t, err, ErrParentRevoked)
	})

	t.Run("unknown grant", func(t *testing.T) {
		_, err := f.grants.Revoke(f.ctx, dev.ID, "grnt_missing")
		require.ErrorIs(t, err, ErrGrantNotFound)
	})
}

func TestDelegationDepthCap(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.grants.MaxDepth = 1
	dev := f.developer(domain.ModeSandbox, domain.PlanPro)
	a := f.agent(dev.ID)
	b := f.agent(dev.ID)
	c := f.agent(dev.ID)

	root := f.rootGrant(dev.ID, a.ID, "files:read")
	child, err := f.grants.Delegate(f.ctx, dev.ID, DelegateInput{
		ParentGrantToken: root.GrantToken, SubAgentID: b.ID, Scopes: []string{"files:read"},
	})
	require.NoError(t, err)

	_, err = f.grants.Delegate(f.ctx, dev.ID, DelegateInput{
		ParentGrantToken: child.GrantToken, SubAgentID: c.ID, Scopes: []string{"files:read"},
	})
	require.ErrorIs(t, err, ErrDepthExceeded)
}

func TestDelegatedRefreshKeepsLineage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeSandbox, domain.PlanFree)
	parent := f.agent(dev.ID)
	sub := f.agent(dev.ID)

	root := f.rootGrant(dev.ID, parent.ID, "docs:read")
	child, err := f.grants.Delegate(f.ctx, dev.ID, DelegateInput{
		ParentGrantToken: root.GrantToken, SubAgentID: sub.ID, Scopes: []string{"docs:read"},
	})
	require.NoError(t, err)

	rotated, err := f.tokens.Refresh(f.ctx, dev.ID, RefreshInput{RefreshToken: child.RefreshToken, AgentID: sub.ID})
	require.NoError(t, err)

	v, err := f.tokens.Verify(f.ctx, dev.ID, rotated.GrantToken)
	require.NoError(t, err)
	require.True(t, v.Valid)
	require.Equal(t, domain.AgentDID(parent.ID), v.Claims.ParentAgentDID)
	require.Equal(t, 1, v.Claims.Depth())
}

func TestAgentRevocationCascades(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeSandbox, domain.PlanFree)
	owner := f.agent(dev.ID)
	sub := f.agent(dev.ID)

	root := f.rootGrant(dev.ID, owner.ID, "crm:read")
	child, err := f.grants.Delegate(f.ctx, dev.ID, DelegateInput{
		ParentGrantToken: root.GrantToken, SubAgentID: sub.ID, Scopes: []string{"crm:read"},
	})
	require.NoError(t, err)

	require.NoError(t, f.agents.Delete(f.ctx, dev.ID, owner.ID))
	require.ErrorIs(t, f.agents.Delete(f.ctx, dev.ID, owner.ID), ErrAgentNotFound)

	a, err := f.agents.Get(f.ctx, dev.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AgentRevoked, a.Status)

	for _, id := range []string{root.Grant.ID, child.Grant.ID} {
		g, err := f.grants.Get(f.ctx, dev.ID, id)
		require.NoError(t, err)
		require.Equal(t, domain.GrantRevoked, g.Status)
	}

	// The sub-agent itself is untouched.
	s, err := f.agents.Get(f.ctx, dev.ID, sub.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AgentActive, s.Status)
}
