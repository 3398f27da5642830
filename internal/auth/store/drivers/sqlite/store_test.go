package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/agentgrant/pkg/idx"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedDeveloper(t *testing.T, s store.Store) domain.Developer {
	t.Helper()

	id := idx.NewPrefixed(idx.PrefixDeveloper)
	d := domain.Developer{
		ID:         id,
		Name:       "Acme",
		Email:      id + "@example.com",
		Mode:       domain.ModeLive,
		Plan:       domain.PlanFree,
		APIKeyID:   idx.New().String(),
		APIKeyHash: "hash",
		CreatedAt:  epoch,
		UpdatedAt:  epoch,
	}
	require.NoError(t, s.Developers().CreateDeveloper(context.Background(), d))
	return d
}

func seedAgent(t *testing.T, s store.Store, developerID string) domain.Agent {
	t.Helper()

	id := idx.NewPrefixed(idx.PrefixAgent)
	a := domain.Agent{
		ID:          id,
		DID:         domain.AgentDID(id),
		DeveloperID: developerID,
		Name:        "mailer",
		Scopes:      []string{"email:send", "email:read"},
		Status:      domain.AgentActive,
		CreatedAt:   epoch,
		UpdatedAt:   epoch,
	}
	require.NoError(t, s.Agents().CreateAgent(context.Background(), a))
	return a
}

func seedGrant(t *testing.T, s store.Store, a domain.Agent, parent string) domain.Grant {
	t.Helper()

	g := domain.Grant{
		ID:            idx.NewPrefixed(idx.PrefixGrant),
		AgentID:       a.ID,
		PrincipalID:   "user-1",
		DeveloperID:   a.DeveloperID,
		Scopes:        []string{"email:send"},
		Status:        domain.GrantActive,
		IssuedAt:      epoch,
		ExpiresAt:     epoch.Add(time.Hour),
		ParentGrantID: parent,
	}
	if parent != "" {
		g.DelegationDepth = 1
	}
	require.NoError(t, s.Grants().CreateGrant(context.Background(), g))
	return g
}

func TestDevelopers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	d := seedDeveloper(t, s)

	got, err := s.Developers().GetDeveloperByID(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, d, got)

	got, err = s.Developers().GetDeveloperByAPIKeyID(ctx, d.APIKeyID)
	require.NoError(t, err)
	require.Equal(t, d.ID, got.ID)

	_, err = s.Developers().GetDeveloperByID(ctx, "dev_missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	dup := d
	dup.ID = idx.NewPrefixed(idx.PrefixDeveloper)
	dup.APIKeyID = idx.New().String()
	require.ErrorIs(t, s.Developers().CreateDeveloper(ctx, dup), store.ErrAlreadyExists)
}

func TestAgentsAreTenantScoped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	owner := seedDeveloper(t, s)
	other := seedDeveloper(t, s)
	a := seedAgent(t, s, owner.ID)

	got, err := s.Agents().GetAgent(ctx, owner.ID, a.ID)
	require.NoError(t, err)
	require.Equal(t, a, got)

	_, err = s.Agents().GetAgent(ctx, other.ID, a.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	a.Status = domain.AgentSuspended
	a.Scopes = []string{}
	require.NoError(t, s.Agents().UpdateAgent(ctx, a))

	list, err := s.Agents().ListAgents(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, domain.AgentSuspended, list[0].Status)
	require.Empty(t, list[0].Scopes)

	foreign := a
	foreign.DeveloperID = other.ID
	require.ErrorIs(t, s.Agents().UpdateAgent(ctx, foreign), store.ErrNotFound)
}

func TestAuthRequestTransitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	d := seedDeveloper(t, s)
	a := seedAgent(t, s, d.ID)

	newRequest := func() domain.AuthRequest {
		r := domain.AuthRequest{
			ID:                  idx.NewPrefixed(idx.PrefixAuthRequest),
			AgentID:             a.ID,
			PrincipalID:         "user-1",
			DeveloperID:         d.ID,
			Scopes:              []string{"email:send"},
			RedirectURI:         "https://app.example.com/cb",
			CodeChallenge:       "challenge",
			CodeChallengeMethod: "S256",
			GrantTTL:            time.Hour,
			Status:              domain.AuthRequestPending,
			ExpiresAt:           epoch.Add(10 * time.Minute),
			CreatedAt:           epoch,
		}
		require.NoError(t, s.AuthRequests().CreateAuthRequest(ctx, r))
		return r
	}

	t.Run("approve then consume once", func(t *testing.T) {
		r := newRequest()

		ok, err := s.AuthRequests().ApproveAuthRequest(ctx, r.ID, "code-"+r.ID, epoch)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.AuthRequests().ApproveAuthRequest(ctx, r.ID, "again", epoch)
		require.NoError(t, err)
		require.False(t, ok)

		got, err := s.AuthRequests().GetAuthRequestByCodeHash(ctx, d.ID, "code-"+r.ID)
		require.NoError(t, err)
		require.Equal(t, domain.AuthRequestApproved, got.Status)
		require.Equal(t, time.Hour, got.GrantTTL)
		require.NotNil(t, got.DecidedAt)

		ok, err = s.AuthRequests().ConsumeAuthRequest(ctx, r.ID)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.AuthRequests().ConsumeAuthRequest(ctx, r.ID)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("expired request cannot be approved", func(t *testing.T) {
		r := newRequest()

		ok, err := s.AuthRequests().ApproveAuthRequest(ctx, r.ID, "late-"+r.ID, r.ExpiresAt)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("denied request cannot be approved", func(t *testing.T) {
		r := newRequest()

		ok, err := s.AuthRequests().DenyAuthRequest(ctx, r.ID, epoch)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.AuthRequests().ApproveAuthRequest(ctx, r.ID, "x-"+r.ID, epoch)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("housekeeping removes expired", func(t *testing.T) {
		newRequest()

		n, err := s.AuthRequests().DeleteExpiredAuthRequests(ctx, epoch.Add(time.Hour))
		require.NoError(t, err)
		require.Positive(t, n)
	})
}

func TestGrantsAndTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	d := seedDeveloper(t, s)
	other := seedDeveloper(t, s)
	a := seedAgent(t, s, d.ID)
	root := seedGrant(t, s, a, "")
	child := seedGrant(t, s, a, root.ID)

	children, err := s.Grants().ListActiveChildren(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, child.ID, children[0].ID)
	require.Equal(t, 1, children[0].DelegationDepth)

	locked, err := s.Grants().GetGrantForShare(ctx, d.ID, root.ID)
	require.NoError(t, err)
	require.Equal(t, root, locked)
	_, err = s.Grants().GetGrantForShare(ctx, other.ID, root.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	tok := domain.GrantToken{JTI: idx.NewPrefixed(idx.PrefixToken), GrantID: root.ID, ExpiresAt: epoch.Add(time.Hour), CreatedAt: epoch}
	require.NoError(t, s.GrantTokens().CreateGrantToken(ctx, tok))

	tg, err := s.GrantTokens().GetTokenGrant(ctx, tok.JTI)
	require.NoError(t, err)
	require.Equal(t, tok, tg.Token)
	require.Equal(t, root, tg.Grant)

	_, err = s.GrantTokens().RevokeGrantToken(ctx, other.ID, tok.JTI)
	require.ErrorIs(t, err, store.ErrNotFound)

	revoked, err := s.GrantTokens().RevokeGrantToken(ctx, d.ID, tok.JTI)
	require.NoError(t, err)
	require.True(t, revoked.Revoked)

	_, err = s.GrantTokens().RevokeGrantToken(ctx, d.ID, tok.JTI)
	require.ErrorIs(t, err, store.ErrNotFound)

	ok, err := s.Grants().RevokeGrant(ctx, root.ID, epoch)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Grants().RevokeGrant(ctx, root.ID, epoch)
	require.NoError(t, err)
	require.False(t, ok)

	active, err := s.Grants().ListGrants(ctx, d.ID, domain.GrantFilter{Status: domain.GrantActive})
	require.NoError(t, err)
	require.Len(t, active, 1)

	expired, err := s.Grants().ExpireGrants(ctx, epoch.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, domain.GrantExpired, expired[0].Status)

	usage, err := s.Developers().GetUsage(ctx, d.ID, epoch)
	require.NoError(t, err)
	require.Equal(t, domain.Usage{Agents: 1}, usage)
}

func TestRefreshTokenSingleUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	d := seedDeveloper(t, s)
	g := seedGrant(t, s, seedAgent(t, s, d.ID), "")

	rt := domain.RefreshToken{ID: idx.NewPrefixed(idx.PrefixRefreshToken), GrantID: g.ID, TokenHash: "fp", ExpiresAt: epoch.Add(time.Hour), CreatedAt: epoch}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "fp")
	require.NoError(t, err)
	require.Equal(t, rt, got)

	ok, err := s.RefreshTokens().MarkRefreshTokenUsed(ctx, rt.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.RefreshTokens().MarkRefreshTokenUsed(ctx, rt.ID)
	require.NoError(t, err)
	require.False(t, ok)

	n, err := s.RefreshTokens().DeleteExpiredRefreshTokens(ctx, epoch.Add(2*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestPoliciesOrderAndNullableFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	d := seedDeveloper(t, s)
	agentID := "ag_x"
	start, end := "09:00", "17:00"

	low := domain.Policy{ID: idx.NewPrefixed(idx.PrefixPolicy), DeveloperID: d.ID, Name: "low", Effect: domain.EffectAllow, Priority: 1, CreatedAt: epoch, UpdatedAt: epoch}
	high := domain.Policy{
		ID: idx.NewPrefixed(idx.PrefixPolicy), DeveloperID: d.ID, Name: "high", Effect: domain.EffectDeny, Priority: 10,
		AgentID: &agentID, Scopes: []string{}, TimeStart: &start, TimeEnd: &end,
		CreatedAt: epoch.Add(time.Second), UpdatedAt: epoch.Add(time.Second),
	}
	require.NoError(t, s.Policies().CreatePolicy(ctx, low))
	require.NoError(t, s.Policies().CreatePolicy(ctx, high))

	list, err := s.Policies().ListPolicies(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, high, list[0])
	require.Equal(t, low, list[1])
	require.Nil(t, list[1].Scopes)
	require.NotNil(t, list[0].Scopes)

	low.Priority = 20
	require.NoError(t, s.Policies().UpdatePolicy(ctx, low))
	list, err = s.Policies().ListPolicies(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, low.ID, list[0].ID)

	require.NoError(t, s.Policies().DeletePolicy(ctx, d.ID, low.ID))
	require.ErrorIs(t, s.Policies().DeletePolicy(ctx, d.ID, low.ID), store.ErrNotFound)
}

func TestAuditAppendAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	d := seedDeveloper(t, s)

	last, err := s.Audit().LastHash(ctx, d.ID)
	require.NoError(t, err)
	require.Nil(t, last)

	var prev *string
	for i, action := range []string{domain.ActionGrantIssued, domain.ActionGrantRevoked} {
		hash := []string{"h1", "h2"}[i]
		e := domain.AuditEntry{
			ID:           idx.NewPrefixed(idx.PrefixAuditEntry),
			DeveloperID:  d.ID,
			GrantID:      "grnt_1",
			Action:       action,
			Metadata:     map[string]any{"n": float64(i)},
			Status:       domain.AuditSuccess,
			Timestamp:    epoch.Add(time.Duration(i) * time.Second),
			Hash:         hash,
			PreviousHash: prev,
		}
		require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.Audit().LockChain(ctx, d.ID))
			return tx.Audit().AppendEntry(ctx, e)
		}))
		prev = &hash
	}

	last, err = s.Audit().LastHash(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "h2", *last)

	all, err := s.Audit().ListEntries(ctx, d.ID, domain.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Nil(t, all[0].PreviousHash)
	require.Equal(t, "h1", *all[1].PreviousHash)
	require.Empty(t, all[0].AgentID)

	filtered, err := s.Audit().ListEntries(ctx, d.ID, domain.AuditFilter{Action: domain.ActionGrantRevoked})
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	got, err := s.Audit().GetEntry(ctx, d.ID, all[0].ID)
	require.NoError(t, err)
	require.Equal(t, all[0], got)
}

func TestWithTxRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	d := seedDeveloper(t, s)
	boom := context.Canceled

	err := s.WithTx(ctx, func(tx store.Tx) error {
		seedAgent(t, tx, d.ID)
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := s.Agents().ListAgents(ctx, d.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestWithTxCommitsAndRefusesNesting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	d := seedDeveloper(t, s)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		seedAgent(t, tx, d.ID)
		_, err := tx.Tx(ctx)
		require.ErrorIs(t, err, store.ErrNestedTx)
		require.ErrorIs(t, tx.WithTx(ctx, func(store.Tx) error { return nil }), store.ErrNestedTx)
		return nil
	})
	require.NoError(t, err)

	list, err := s.Agents().ListAgents(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
