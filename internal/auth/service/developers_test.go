package service

import (
	"strings"
	"testing"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestSplitAPIKey(t *testing.T) {
	t.Parallel()

	id, secret, ok := splitAPIKey("agk_01abc_s3cr_et")
	require.True(t, ok)
	require.Equal(t, "01abc", id)
	require.Equal(t, "s3cr_et", secret)

	for _, bad := range []string{"", "agk_", "agk_id", "agk__secret", "sk_01abc_secret"} {
		_, _, ok := splitAPIKey(bad)
		require.False(t, ok, bad)
	}
}

func TestCheckBootstrap(t *testing.T) {
	t.Parallel()

	s := &DeveloperService{}
	require.ErrorIs(t, s.CheckBootstrap("anything"), ErrBootstrapDisabled)

	s.BootstrapToken = "let-me-in"
	require.ErrorIs(t, s.CheckBootstrap("wrong"), ErrBootstrapMismatch)
	require.NoError(t, s.CheckBootstrap("let-me-in"))
}

func TestDeveloperSignupAndKeys(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	creds, err := f.developers.Create(f.ctx, CreateDeveloperInput{Name: " Acme ", Email: "Ops@Acme.Example"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(creds.APIKey, APIKeyPrefix))
	require.Equal(t, "Acme", creds.Developer.Name)
	require.Equal(t, "ops@acme.example", creds.Developer.Email)
	require.Equal(t, domain.ModeLive, creds.Developer.Mode)
	require.Equal(t, domain.PlanFree, creds.Developer.Plan)
	require.NotContains(t, creds.Developer.APIKeyHash, creds.APIKey)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.developers.Create(f.ctx, CreateDeveloperInput{Name: "Again", Email: "ops@acme.example"})
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := f.developers.Create(f.ctx, CreateDeveloperInput{Name: "x"})
		require.ErrorIs(t, err, ErrDeveloperFields)

		_, err = f.developers.Create(f.ctx, CreateDeveloperInput{Name: "x", Email: "x@example.com", Mode: "test"})
		require.ErrorIs(t, err, ErrDeveloperMode)

		_, err = f.developers.Create(f.ctx, CreateDeveloperInput{Name: "x", Email: "x@example.com", Plan: "gold"})
		require.ErrorIs(t, err, ErrDeveloperPlan)
	})

	dev, err := f.developers.Authenticate(f.ctx, creds.APIKey)
	require.NoError(t, err)
	require.Equal(t, creds.Developer.ID, dev.ID)

	_, err = f.developers.Authenticate(f.ctx, creds.APIKey+"x")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.developers.Authenticate(f.ctx, "agk_unknown_secret")
	require.ErrorIs(t, err, ErrUnauthorized)

	rotated, err := f.developers.RotateKey(f.ctx, dev.ID)
	require.NoError(t, err)
	require.NotEqual(t, creds.APIKey, rotated.APIKey)

	_, err = f.developers.Authenticate(f.ctx, creds.APIKey)
	require.ErrorIs(t, err, ErrUnauthorized, "old key stops working")
	_, err = f.developers.Authenticate(f.ctx, rotated.APIKey)
	require.NoError(t, err)
}

func TestDeveloperProfile(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeSandbox, domain.PlanPro)
	agent := f.agent(dev.ID)
	f.rootGrant(dev.ID, agent.ID, "email:read")

	p, err := f.developers.Profile(f.ctx, dev.ID)
	require.NoError(t, err)
	require.Equal(t, 1, p.Usage.Agents)
	require.Equal(t, 1, p.Usage.ActiveGrants)
	require.Equal(t, LimitsFor(domain.PlanPro), p.Limits)
}

func TestLimitsFor(t *testing.T) {
	t.Parallel()

	require.Equal(t, LimitsFor(domain.PlanFree), LimitsFor("unknown"))
	require.Equal(t, Unlimited, LimitsFor(domain.PlanEnterprise).Agents)
	require.NoError(t, checkLimit(domain.PlanEnterprise, "agents", 1_000_000, Unlimited))
	require.NoError(t, checkLimit(domain.PlanFree, "agents", 2, 3))
	require.Error(t, checkLimit(domain.PlanFree, "agents", 3, 3))
}
