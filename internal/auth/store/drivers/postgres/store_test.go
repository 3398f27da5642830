package postgres_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/agentgrant/pkg/idx"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// setupPostgres starts postgres:16-alpine and returns a migrated store.
// Skipped in -short mode and when no container runtime is reachable.
func setupPostgres(t *testing.T) *postgres.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "agentgrant",
				"POSTGRES_PASSWORD": "agentgrant",
				"POSTGRES_DB":       "agentgrant",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://agentgrant:agentgrant@%s:%s/agentgrant?sslmode=disable", host, port.Port())
	s, err := postgres.NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	// Idempotent on a migrated database.
	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestPostgresStore(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	d := domain.Developer{
		ID: idx.NewPrefixed(idx.PrefixDeveloper), Name: "Acme", Email: "acme@example.com",
		Mode: domain.ModeLive, Plan: domain.PlanPro, APIKeyID: "key1", APIKeyHash: "hash",
		CreatedAt: epoch, UpdatedAt: epoch,
	}
	require.NoError(t, s.Developers().CreateDeveloper(ctx, d))
	require.ErrorIs(t, s.Developers().CreateDeveloper(ctx, d), store.ErrAlreadyExists)

	agentID := idx.NewPrefixed(idx.PrefixAgent)
	a := domain.Agent{
		ID: agentID, DID: domain.AgentDID(agentID), DeveloperID: d.ID, Name: "mailer",
		Scopes: []string{"email:send"}, Status: domain.AgentActive, CreatedAt: epoch, UpdatedAt: epoch,
	}
	require.NoError(t, s.Agents().CreateAgent(ctx, a))

	t.Run("grants and tokens", func(t *testing.T) {
		root := domain.Grant{
			ID: idx.NewPrefixed(idx.PrefixGrant), AgentID: a.ID, PrincipalID: "user-1", DeveloperID: d.ID,
			Scopes: []string{"email:send"}, Status: domain.GrantActive, IssuedAt: epoch, ExpiresAt: epoch.Add(time.Hour),
		}
		require.NoError(t, s.Grants().CreateGrant(ctx, root))

		child := root
		child.ID = idx.NewPrefixed(idx.PrefixGrant)
		child.ParentGrantID = root.ID
		child.DelegationDepth = 1
		require.NoError(t, s.Grants().CreateGrant(ctx, child))

		children, err := s.Grants().ListActiveChildren(ctx, root.ID)
		require.NoError(t, err)
		require.Equal(t, []domain.Grant{child}, children)

		tok := domain.GrantToken{JTI: idx.NewPrefixed(idx.PrefixToken), GrantID: child.ID, ExpiresAt: epoch.Add(time.Hour), CreatedAt: epoch}
		require.NoError(t, s.GrantTokens().CreateGrantToken(ctx, tok))

		tg, err := s.GrantTokens().GetTokenGrant(ctx, tok.JTI)
		require.NoError(t, err)
		require.Equal(t, tok, tg.Token)
		require.Equal(t, child, tg.Grant)

		revoked, err := s.GrantTokens().RevokeGrantToken(ctx, d.ID, tok.JTI)
		require.NoError(t, err)
		require.True(t, revoked.Revoked)

		_, err = s.GrantTokens().RevokeGrantToken(ctx, "dev_other", tok.JTI)
		require.ErrorIs(t, err, store.ErrNotFound)

		ok, err := s.Grants().RevokeGrant(ctx, root.ID, epoch)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("policies keep null and empty scopes apart", func(t *testing.T) {
		unset := domain.Policy{ID: idx.NewPrefixed(idx.PrefixPolicy), DeveloperID: d.ID, Name: "a", Effect: domain.EffectAllow, CreatedAt: epoch, UpdatedAt: epoch}
		empty := unset
		empty.ID = idx.NewPrefixed(idx.PrefixPolicy)
		empty.Scopes = []string{}
		empty.Priority = 5
		require.NoError(t, s.Policies().CreatePolicy(ctx, unset))
		require.NoError(t, s.Policies().CreatePolicy(ctx, empty))

		list, err := s.Policies().ListPolicies(ctx, d.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.NotNil(t, list[0].Scopes)
		require.Nil(t, list[1].Scopes)
	})

	t.Run("concurrent refresh rotation has one winner", func(t *testing.T) {
		g := domain.Grant{
			ID: idx.NewPrefixed(idx.PrefixGrant), AgentID: a.ID, PrincipalID: "user-2", DeveloperID: d.ID,
			Scopes: []string{"email:send"}, Status: domain.GrantActive, IssuedAt: epoch, ExpiresAt: epoch.Add(time.Hour),
		}
		require.NoError(t, s.Grants().CreateGrant(ctx, g))
		rt := domain.RefreshToken{ID: idx.NewPrefixed(idx.PrefixRefreshToken), GrantID: g.ID, TokenHash: "fp-race", ExpiresAt: epoch.Add(time.Hour), CreatedAt: epoch}
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.WithTx(ctx, func(tx store.Tx) error {
					ok, err := tx.RefreshTokens().MarkRefreshTokenUsed(ctx, rt.ID)
					if err != nil || !ok {
						return err
					}
					mu.Lock()
					wins++
					mu.Unlock()
					return nil
				})
			}()
		}
		wg.Wait()
		require.Equal(t, 1, wins)
	})

	t.Run("delegation racing revocation never leaves an active child", func(t *testing.T) {
		for range 20 {
			parent := domain.Grant{
				ID: idx.NewPrefixed(idx.PrefixGrant), AgentID: a.ID, PrincipalID: "user-3", DeveloperID: d.ID,
				Scopes: []string{"email:send"}, Status: domain.GrantActive, IssuedAt: epoch, ExpiresAt: epoch.Add(time.Hour),
			}
			require.NoError(t, s.Grants().CreateGrant(ctx, parent))

			var wg sync.WaitGroup
			errs := make(chan error, 2)
			wg.Add(2)
			go func() {
				defer wg.Done()
				errs <- s.WithTx(ctx, func(tx store.Tx) error {
					p, err := tx.Grants().GetGrantForShare(ctx, d.ID, parent.ID)
					if err != nil || p.Status != domain.GrantActive {
						return err
					}
					child := p
					child.ID = idx.NewPrefixed(idx.PrefixGrant)
					child.ParentGrantID = p.ID
					child.DelegationDepth = 1
					return tx.Grants().CreateGrant(ctx, child)
				})
			}()
			go func() {
				defer wg.Done()
				errs <- s.WithTx(ctx, func(tx store.Tx) error {
					if _, err := tx.Grants().RevokeGrant(ctx, parent.ID, epoch); err != nil {
						return err
					}
					children, err := tx.Grants().ListActiveChildren(ctx, parent.ID)
					if err != nil {
						return err
					}
					for _, c := range children {
						if _, err := tx.Grants().RevokeGrant(ctx, c.ID, epoch); err != nil {
							return err
						}
					}
					return nil
				})
			}()
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			orphans, err := s.Grants().ListActiveChildren(ctx, parent.ID)
			require.NoError(t, err)
			require.Empty(t, orphans)
		}
	})

	t.Run("audit chain under advisory lock", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 5)
		for i := range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.WithTx(ctx, func(tx store.Tx) error {
					if err := tx.Audit().LockChain(ctx, d.ID); err != nil {
						return err
					}
					prev, err := tx.Audit().LastHash(ctx, d.ID)
					if err != nil {
						return err
					}
					return tx.Audit().AppendEntry(ctx, domain.AuditEntry{
						ID: idx.NewPrefixed(idx.PrefixAuditEntry), DeveloperID: d.ID, Action: domain.ActionTokenCheck,
						Status: domain.AuditSuccess, Timestamp: epoch, Hash: fmt.Sprintf("h%d", i), PreviousHash: prev,
					})
				})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		entries, err := s.Audit().ListEntries(ctx, d.ID, domain.AuditFilter{})
		require.NoError(t, err)
		require.Len(t, entries, 5)
		require.Nil(t, entries[0].PreviousHash)
		for i := 1; i < len(entries); i++ {
			require.Equal(t, entries[i-1].Hash, *entries[i].PreviousHash)
		}
	})
}
