package jwtx_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/agentgrant/pkg/cryptox"
	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func testClaims(now time.Time) jwtx.Claims {
	return jwtx.NewGrantClaims(jwtx.GrantClaimsParams{
		Issuer:      "https://auth.test",
		PrincipalID: "user_1",
		AgentDID:    "did:agentgrant:ag_1",
		DeveloperID: "dev_1",
		Scopes:      []string{"email:read", "payments:initiate:max_500"},
		TokenID:     "tok_1",
		GrantID:     "grnt_1",
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Hour),
	})
}

func TestNewEphemeralKeyManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		opts      jwtx.KeyManagerOptions
		wantErr   bool
		wantAlg   string
		wantCount int
	}{
		{name: "EdDSA default count", opts: jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmEdDSA, Issuer: "https://auth.test"}, wantAlg: "EdDSA", wantCount: 1},
		{name: "ES256 three keys", opts: jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmES256, Issuer: "https://auth.test", NumKeys: 3}, wantAlg: "ES256", wantCount: 3},
		{name: "RS256 2048", opts: jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmRS256, Issuer: "https://auth.test", RSABits: 2048}, wantAlg: "RS256", wantCount: 1},
		{name: "caps at ten", opts: jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmEdDSA, Issuer: "https://auth.test", NumKeys: 50}, wantAlg: "EdDSA", wantCount: 10},
		{name: "missing issuer", opts: jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmEdDSA}, wantErr: true},
		{name: "unsupported algorithm", opts: jwtx.KeyManagerOptions{Algorithm: "HS256", Issuer: "https://auth.test"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			km, err := jwtx.NewEphemeralKeyManager(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, km.IsReady())
			require.Equal(t, tt.wantAlg, km.Algorithm())
			require.Equal(t, tt.wantCount, km.NumSigners())
			require.Len(t, km.KeySet.PublicJWKS().Keys, tt.wantCount)
		})
	}
}

func TestKeyManagerSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	for _, alg := range []string{jwtx.AlgorithmRS256, jwtx.AlgorithmES256, jwtx.AlgorithmEdDSA} {
		t.Run(alg, func(t *testing.T) {
			t.Parallel()

			km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: alg, Issuer: "https://auth.test", NumKeys: 2})
			require.NoError(t, err)

			tok, err := km.Sign(testClaims(time.Now()))
			require.NoError(t, err)

			claims, err := km.Verify(tok)
			require.NoError(t, err)
			require.Equal(t, "grnt_1", claims.GrantID)
			require.Equal(t, "did:agentgrant:ag_1", claims.AgentDID)
			require.Equal(t, []string{"email:read", "payments:initiate:max_500"}, claims.Scopes)
			require.Nil(t, claims.DelegationDepth)
		})
	}
}

func TestNewFileKeyManager(t *testing.T) {
	t.Parallel()

	pemKey, err := cryptox.GenerateES256Key()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "signing.pem")
	require.NoError(t, os.WriteFile(path, pemKey, 0o600))

	a, err := jwtx.NewFileKeyManager(path, jwtx.KeyManagerOptions{Issuer: "https://auth.test"})
	require.NoError(t, err)
	require.Equal(t, jwtx.AlgorithmES256, a.Algorithm())

	b, err := jwtx.NewFileKeyManager(path, jwtx.KeyManagerOptions{Issuer: "https://auth.test"})
	require.NoError(t, err)

	// Same key file, same kid, so tokens from one replica verify on another.
	require.Equal(t, a.GetSigner().KID(), b.GetSigner().KID())

	tok, err := a.Sign(testClaims(time.Now()))
	require.NoError(t, err)
	_, err = b.Verify(tok)
	require.NoError(t, err)

	_, err = jwtx.NewFileKeyManager(filepath.Join(t.TempDir(), "missing.pem"), jwtx.KeyManagerOptions{Issuer: "x"})
	require.Error(t, err)
}

func TestPrincipalSessionTokens(t *testing.T) {
	t.Parallel()

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmEdDSA, Issuer: "https://auth.test"})
	require.NoError(t, err)
	now := time.Now()

	session, err := km.Sign(jwtx.NewPrincipalSessionClaims("https://auth.test", "dev_1", "user_1", "ps_1", now, now.Add(time.Hour)))
	require.NoError(t, err)
	grant, err := km.Sign(testClaims(now))
	require.NoError(t, err)

	t.Run("session verifies as a session", func(t *testing.T) {
		claims, err := km.VerifyPrincipalSession(session)
		require.NoError(t, err)
		require.Equal(t, "user_1", claims.Subject)
		require.Equal(t, "dev_1", claims.DeveloperID)
	})

	t.Run("session is not a grant token", func(t *testing.T) {
		_, err := km.Verify(session)
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})

	t.Run("grant token is not a session", func(t *testing.T) {
		_, err := km.VerifyPrincipalSession(grant)
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})

	t.Run("expired session", func(t *testing.T) {
		old, err := km.Sign(jwtx.NewPrincipalSessionClaims("https://auth.test", "dev_1", "user_1", "ps_2", now.Add(-2*time.Hour), now.Add(-time.Hour)))
		require.NoError(t, err)
		_, err = km.VerifyPrincipalSession(old)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})
}
