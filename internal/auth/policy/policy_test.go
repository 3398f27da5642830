package policy_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/policy"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func pol(id string, effect domain.PolicyEffect, priority int, age time.Duration) domain.Policy {
	return domain.Policy{ID: id, Effect: effect, Priority: priority, CreatedAt: base.Add(-age)}
}

func TestEvaluateOrdering(t *testing.T) {
	t.Parallel()

	cand := policy.Candidate{AgentID: "ag_1", PrincipalID: "user_1", Scopes: []string{"email:read"}}

	t.Run("highest priority wins", func(t *testing.T) {
		t.Parallel()

		ps := []domain.Policy{
			pol("low", domain.EffectAllow, 1, time.Hour),
			pol("high", domain.EffectDeny, 10, time.Minute),
		}
		policy.Sort(ps)

		d := policy.Evaluate(ps, cand, base)
		require.True(t, d.Deny())
		require.Equal(t, "high", d.Policy.ID)
	})

	t.Run("older wins a tie", func(t *testing.T) {
		t.Parallel()

		ps := []domain.Policy{
			pol("newer", domain.EffectDeny, 5, time.Minute),
			pol("older", domain.EffectAllow, 5, time.Hour),
		}
		policy.Sort(ps)

		d := policy.Evaluate(ps, cand, base)
		require.True(t, d.Allow())
		require.Equal(t, "older", d.Policy.ID)
	})

	t.Run("no policies is no match", func(t *testing.T) {
		t.Parallel()

		d := policy.Evaluate(nil, cand, base)
		require.False(t, d.Matched())
		require.False(t, d.Allow())
		require.False(t, d.Deny())
	})
}

func TestEvaluateFilters(t *testing.T) {
	t.Parallel()

	cand := policy.Candidate{AgentID: "ag_1", PrincipalID: "user_1", Scopes: []string{"email:read", "calendar:read"}}

	tests := []struct {
		name  string
		setup func(p *domain.Policy)
		now   time.Time
		want  bool
	}{
		{"unset filters match everything", func(p *domain.Policy) {}, base, true},
		{"agent matches", func(p *domain.Policy) { p.AgentID = strp("ag_1") }, base, true},
		{"agent differs", func(p *domain.Policy) { p.AgentID = strp("ag_2") }, base, false},
		{"principal differs", func(p *domain.Policy) { p.PrincipalID = strp("user_2") }, base, false},
		{"policy scopes subset of requested", func(p *domain.Policy) { p.Scopes = []string{"email:read"} }, base, true},
		{"policy scope not requested", func(p *domain.Policy) { p.Scopes = []string{"payments:initiate"} }, base, false},
		{"empty scope filter matches", func(p *domain.Policy) { p.Scopes = []string{} }, base, true},
		{"inside window", func(p *domain.Policy) { p.TimeStart, p.TimeEnd = strp("09:00"), strp("17:00") }, base, true},
		{"end is exclusive", func(p *domain.Policy) { p.TimeStart, p.TimeEnd = strp("09:00"), strp("12:00") }, base, false},
		{"wrapping window late", func(p *domain.Policy) { p.TimeStart, p.TimeEnd = strp("22:00"), strp("06:00") }, base.Add(11 * time.Hour), true},
		{"wrapping window early", func(p *domain.Policy) { p.TimeStart, p.TimeEnd = strp("22:00"), strp("06:00") }, base.Add(-7 * time.Hour), true},
		{"outside wrapping window", func(p *domain.Policy) { p.TimeStart, p.TimeEnd = strp("22:00"), strp("06:00") }, base, false},
		{"non UTC clock is converted", func(p *domain.Policy) { p.TimeStart, p.TimeEnd = strp("12:00"), strp("13:00") }, base.In(time.FixedZone("AEST", 10*3600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := pol("p", domain.EffectAllow, 0, 0)
			tt.setup(&p)

			d := policy.Evaluate([]domain.Policy{p}, cand, tt.now)
			require.Equal(t, tt.want, d.Matched())
		})
	}
}

func TestValidateWindow(t *testing.T) {
	t.Parallel()

	require.NoError(t, policy.ValidateWindow(nil, nil))
	require.NoError(t, policy.ValidateWindow(strp("22:00"), strp("06:00")))
	require.ErrorIs(t, policy.ValidateWindow(strp("09:00"), nil), policy.ErrInvalidWindow)
	require.ErrorIs(t, policy.ValidateWindow(strp("9:00"), strp("17:00")), policy.ErrInvalidWindow)
	require.ErrorIs(t, policy.ValidateWindow(strp("24:00"), strp("17:00")), policy.ErrInvalidWindow)
}
