package auth_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestFreshInstance checks a container with no tenants is live, ready and
// already publishing its signing key, and that tenant routes refuse
// anonymous callers.
func TestFreshInstance(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	health, err := client.GetLiveness(ctx)
	assertHealthy(t, health, err)

	health, err = client.GetReadiness(ctx)
	assertHealthy(t, health, err)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Signer)

	jwks, err := client.GetJWKS(ctx)
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1, "AUTH_NUM_KEYS=1")
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
	require.Equal(t, "sig", jwks.Keys[0].Use)
	_, err = jwks.Keys[0].PublicKey()
	require.NoError(t, err)

	resp, err := http.Get(baseURL + "/v1/agents")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))
}
