package auth_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// TestJWKSVerification checks that grant tokens verify offline against the
// published JWKS, and that the guard enforces scopes and constraints
// without calling back to the service.
func TestJWKSVerification(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	s := newDeveloper(t, client, "sandbox")
	agent := registerAgent(t, s, "payments-bot", "payments:initiate:max_500", "payments:read")
	tok := sandboxGrant(t, s, agent.AgentID, "user_42", "payments:initiate:max_500")

	jwks, err := client.GetJWKS(ctx)
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, jwtx.AlgorithmEdDSA, jwks.Keys[0].Alg)

	verifier := authsdk.NewOfflineVerifier(client, jwtx.VerifyOptions{Issuer: testIssuer})
	claims, err := verifier.VerifyGrant(ctx, tok.GrantToken)
	require.NoError(t, err)
	require.Equal(t, "user_42", claims.Subject)
	require.Equal(t, agent.DID, claims.AgentDID)
	require.Equal(t, tok.GrantID, claims.GrantID)
	require.Equal(t, []string{"payments:initiate:max_500"}, claims.Scopes)

	var events []authsdk.GuardEvent
	guard := authsdk.Guard{
		Verifier: verifier,
		Audit:    func(_ context.Context, e authsdk.GuardEvent) { events = append(events, e) },
	}

	amount := 120.0
	_, err = guard.Check(ctx, tok.GrantToken, "payments:initiate", &amount)
	require.NoError(t, err)

	amount = 900
	_, err = guard.Check(ctx, tok.GrantToken, "payments:initiate", &amount)
	assertCode(t, err, authsdk.CodeConstraintViolated, "over the max_500 ceiling")

	_, err = guard.Check(ctx, tok.GrantToken, "payments:read", nil)
	assertCode(t, err, authsdk.CodeScopeMissing, "scope declared on agent but not granted")

	_, err = guard.Check(ctx, tok.GrantToken+"x", "payments:initiate", nil)
	assertCode(t, err, authsdk.CodeTokenInvalid, "tampered signature")

	require.Len(t, events, 3, "only checks with a valid token are reported")
	require.Equal(t, "success", events[0].Status)
	require.Equal(t, "blocked", events[1].Status)
}
