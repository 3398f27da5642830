package service

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestExchangeIsSingleUse(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeSandbox, domain.PlanFree)
	agent := f.agent(dev.ID)
	other := f.agent(dev.ID)

	res, err := f.authorize.Authorize(f.ctx, dev.ID, AuthorizeInput{
		AgentID: agent.ID, PrincipalID: "user_1", Scopes: []string{"email:send"}, Audience: "https://mail.example",
	})
	require.NoError(t, err)

	_, err = f.tokens.Exchange(f.ctx, dev.ID, ExchangeInput{Code: res.Code, AgentID: other.ID})
	require.ErrorIs(t, err, ErrInvalidCode)

	issued, err := f.tokens.Exchange(f.ctx, dev.ID, ExchangeInput{Code: res.Code, AgentID: agent.ID})
	require.NoError(t, err)
	require.NotEmpty(t, issued.GrantToken)
	require.NotEmpty(t, issued.RefreshToken)
	require.Equal(t, "https://mail.example", issued.Grant.Audience)
	require.Zero(t, issued.Grant.DelegationDepth)

	_, err = f.tokens.Exchange(f.ctx, dev.ID, ExchangeInput{Code: res.Code, AgentID: agent.ID})
	require.ErrorIs(t, err, ErrCodeUsed)

	v, err := f.tokens.Verify(f.ctx, dev.ID, issued.GrantToken)
	require.NoError(t, err)
	require.True(t, v.Valid)
	require.Equal(t, domain.AgentDID(agent.ID), v.Claims.AgentDID)
	require.Equal(t, "user_1", v.Claims.Subject)
	require.Equal(t, []string{"https://mail.example"}, []string(v.Claims.Audience))
	require.Nil(t, v.Claims.DelegationDepth)
}

func TestExchangePKCE(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeSandbox, domain.PlanFree)
	agent := f.agent(dev.ID)

	verifier := "a-sufficiently-long-code-verifier-value"
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	res, err := f.authorize.Authorize(f.ctx, dev.ID, AuthorizeInput{
		AgentID: agent.ID, PrincipalID: "user_1", Scopes: []string{"email:send"}, CodeChallenge: challenge,
	})
	require.NoError(t, err)
	require.Equal(t, PKCEMethodS256, res.Request.CodeChallengeMethod)

	_, err = f.tokens.Exchange(f.ctx, dev.ID, ExchangeInput{Code: res.Code, AgentID: agent.ID})
	require.ErrorIs(t, err, ErrVerifierRequired)

	_, err = f.tokens.Exchange(f.ctx, dev.ID, ExchangeInput{Code: res.Code, AgentID: agent.ID, CodeVerifier: "wrong"})
	require.ErrorIs(t, err, ErrVerifierMismatch)

	// Failed attempts do not burn the code.
	_, err = f.tokens.Exchange(f.ctx, dev.ID, ExchangeInput{Code: res.Code, AgentID: agent.ID, CodeVerifier: verifier})
	require.NoError(t, err)
}

func TestExchangeRejectsExpiredAndUnapproved(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeSandbox, domain.PlanFree)
	agent := f.agent(dev.ID)

	res, err := f.authorize.Authorize(f.ctx, dev.ID, AuthorizeInput{
		AgentID: agent.ID, PrincipalID: "user_1", Scopes: []string{"email:send"}, ExpiresIn: "5m",
	})
	require.NoError(t, err)

	f.advance(10 * time.Minute)
	_, err = f.tokens.Exchange(f.ctx, dev.ID, ExchangeInput{Code: res.Code, AgentID: agent.ID})
	require.ErrorIs(t, err, ErrCodeExpired)

	_, err = f.tokens.Exchange(f.ctx, dev.ID, ExchangeInput{AgentID: agent.ID})
	require.ErrorIs(t, err, ErrExchangeFields)
}

func TestExchangeRequiresActiveAgent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeSandbox, domain.PlanFree)
	agent := f.agent(dev.ID)

	res, err := f.authorize.Authorize(f.ctx, dev.ID, AuthorizeInput{
		AgentID: agent.ID, PrincipalID: "user_1", Scopes: []string{"email:send"},
	})
	require.NoError(t, err)

	suspended := domain.AgentSuspended
	_, err = f.agents.Update(f.ctx, dev.ID, agent.ID, AgentPatch{Status: &suspended})
	require.NoError(t, err)

	_, err = f.tokens.Exchange(f.ctx, dev.ID, ExchangeInput{Code: res.Code, AgentID: agent.ID})
	require.ErrorIs(t, err, ErrAgentInactive)
}

func TestRefreshRotation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeSandbox, domain.PlanFree)
	agent := f.agent(dev.ID)
	issued := f.rootGrant(dev.ID, agent.ID, "email:read")

	f.advance(time.Minute)
	rotated, err := f.tokens.Refresh(f.ctx, dev.ID, RefreshInput{RefreshToken: issued.RefreshToken, AgentID: agent.ID})
	require.NoError(t, err)
	require.Equal(t, issued.Grant.ID, rotated.Grant.ID)
	require.NotEqual(t, issued.TokenID, rotated.TokenID)
	require.NotEqual(t, issued.RefreshToken, rotated.RefreshToken)
	require.True(t, rotated.Grant.ExpiresAt.Equal(issued.Grant.ExpiresAt), "refresh must not extend the grant")

	t.Run("reuse is rejected", func(t *testing.T) {
		_, err := f.tokens.Refresh(f.ctx, dev.ID, RefreshInput{RefreshToken: issued.RefreshToken, AgentID: agent.ID})
		require.ErrorIs(t, err, ErrRefreshUsed)
	})

	t.Run("agent must match", func(t *testing.T) {
		_, err := f.tokens.Refresh(f.ctx, dev.ID, RefreshInput{RefreshToken: rotated.RefreshToken, AgentID: "ag_other"})
		require.ErrorIs(t, err, ErrRefreshAgent)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := f.tokens.Refresh(f.ctx, dev.ID, RefreshInput{RefreshToken: "garbage", AgentID: agent.ID})
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("revoked grant cannot refresh", func(t *testing.T) {
		_, err := f.grants.Revoke(f.ctx, dev.ID, issued.Grant.ID)
		require.NoError(t, err)

		_, err = f.tokens.Refresh(f.ctx, dev.ID, RefreshInput{RefreshToken: rotated.RefreshToken, AgentID: agent.ID})
		require.ErrorIs(t, err, ErrGrantRevoked)
	})
}

func TestVerifyReasons(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeSandbox, domain.PlanFree)
	other := f.developer(domain.ModeSandbox, domain.PlanFree)
	agent := f.agent(dev.ID)
	issued := f.rootGrant(dev.ID, agent.ID, "email:read")

	t.Run("garbage is invalid", func(t *testing.T) {
		v, err := f.tokens.Verify(f.ctx, dev.ID, "not.a.jwt")
		require.NoError(t, err)
		require.False(t, v.Valid)
		require.Equal(t, ReasonInvalid, v.Reason)
	})

	t.Run("another tenant sees not found", func(t *testing.T) {
		v, err := f.tokens.Verify(f.ctx, other.ID, issued.GrantToken)
		require.NoError(t, err)
		require.False(t, v.Valid)
		require.Equal(t, ReasonNotFound, v.Reason)
		require.Nil(t, v.Claims)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := f.tokens.Verify(f.ctx, dev.ID, "")
		require.ErrorIs(t, err, ErrTokenRequired)
	})

	t.Run("expired grant in the store", func(t *testing.T) {
		f2 := newFixture(t)
		d := f2.developer(domain.ModeSandbox, domain.PlanFree)
		a := f2.agent(d.ID)
		res, err := f2.authorize.Authorize(f2.ctx, d.ID, AuthorizeInput{
			AgentID: a.ID, PrincipalID: "user_1", Scopes: []string{"x:y"}, ExpiresIn: "1h",
		})
		require.NoError(t, err)
		g, err := f2.tokens.Exchange(f2.ctx, d.ID, ExchangeInput{Code: res.Code, AgentID: a.ID})
		require.NoError(t, err)

		f2.advance(2 * time.Hour)
		v, err := f2.tokens.Verify(f2.ctx, d.ID, g.GrantToken)
		require.NoError(t, err)
		require.Equal(t, ReasonExpired, v.Reason)
	})
}

func TestRevokeTokenLeavesGrant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeSandbox, domain.PlanFree)
	agent := f.agent(dev.ID)
	issued := f.rootGrant(dev.ID, agent.ID, "email:read")

	require.NoError(t, f.tokens.RevokeToken(f.ctx, dev.ID, issued.TokenID))
	require.ErrorIs(t, f.tokens.RevokeToken(f.ctx, dev.ID, issued.TokenID), ErrTokenNotFound)

	v, err := f.tokens.Verify(f.ctx, dev.ID, issued.GrantToken)
	require.NoError(t, err)
	require.Equal(t, ReasonRevoked, v.Reason)

	g, err := f.grants.Get(f.ctx, dev.ID, issued.Grant.ID)
	require.NoError(t, err)
	require.Equal(t, domain.GrantActive, g.Status)

	// The grant can still mint a fresh token.
	rotated, err := f.tokens.Refresh(f.ctx, dev.ID, RefreshInput{RefreshToken: issued.RefreshToken, AgentID: agent.ID})
	require.NoError(t, err)
	v, err = f.tokens.Verify(f.ctx, dev.ID, rotated.GrantToken)
	require.NoError(t, err)
	require.True(t, v.Valid)
}

func TestRevokedTokenFoundOnlyInStore(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeSandbox, domain.PlanFree)
	agent := f.agent(dev.ID)
	issued := f.rootGrant(dev.ID, agent.ID, "email:read")

	// Revoke behind the service's back, as if the denylist write had failed.
	_, err := f.store.GrantTokens().RevokeGrantToken(f.ctx, dev.ID, issued.TokenID)
	require.NoError(t, err)
	require.Zero(t, f.denylist.Len())

	v, err := f.tokens.Verify(f.ctx, dev.ID, issued.GrantToken)
	require.NoError(t, err)
	require.Equal(t, ReasonRevoked, v.Reason)
	require.Equal(t, 1, f.denylist.Len(), "store revocation is written back to the denylist")
}

func TestCheck(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeSandbox, domain.PlanFree)
	agent := f.agent(dev.ID)
	issued := f.rootGrant(dev.ID, agent.ID, "payments:initiate:max_500", "email:read")

	value := func(v float64) *float64 { return &v }

	t.Run("within constraint", func(t *testing.T) {
		res, err := f.tokens.Check(f.ctx, dev.ID, CheckInput{
			Token: issued.GrantToken, Scope: "payments:initiate", Value: value(250),
		})
		require.NoError(t, err)
		require.Equal(t, issued.Grant.ID, res.GrantID)
		require.Equal(t, "payments:initiate:max_500", res.MatchedScope.Raw)
	})

	t.Run("over constraint", func(t *testing.T) {
		_, err := f.tokens.Check(f.ctx, dev.ID, CheckInput{
			Token: issued.GrantToken, Scope: "payments:initiate", Value: value(501),
		})
		requireCode(t, err, httpx.CodeConstraintViolated)
	})

	t.Run("missing scope", func(t *testing.T) {
		_, err := f.tokens.Check(f.ctx, dev.ID, CheckInput{Token: issued.GrantToken, Scope: "email:send"})
		requireCode(t, err, httpx.CodeScopeMissing)
	})

	t.Run("outcomes are audited", func(t *testing.T) {
		entries, err := f.audit.List(f.ctx, dev.ID, domain.AuditFilter{Action: domain.ActionTokenCheck})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		require.Equal(t, domain.AuditSuccess, entries[0].Status)
		require.Equal(t, domain.AuditBlocked, entries[1].Status)
		require.Equal(t, domain.AuditBlocked, entries[2].Status)
	})

	t.Run("revoked token", func(t *testing.T) {
		_, err := f.grants.Revoke(f.ctx, dev.ID, issued.Grant.ID)
		require.NoError(t, err)

		_, err = f.tokens.Check(f.ctx, dev.ID, CheckInput{Token: issued.GrantToken, Scope: "email:read"})
		require.ErrorIs(t, err, ErrTokenRevoked)
	})
}
