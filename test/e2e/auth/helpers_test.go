package auth_test

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for the end-to-end tests.
 * This includes container setup, tenant and grant fixtures, and assertions.
 */

const (
	testImageName = "agentgrant-test:latest"

	bootstrapToken = "test-bootstrap-token-12345"
	testIssuer     = "agentgrant-e2e"
)

// TestMain builds the Docker image once before all tests and removes it
// after they complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building agentgrant Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up agentgrant Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// baseEnv is the container environment shared by every test.
func baseEnv() map[string]string {
	return map[string]string{
		"BOOTSTRAP_TOKEN":    bootstrapToken,
		"AUTH_DATABASE_FILE": "/data/agentgrant.db",
		"AUTH_PEPPER_FILE":   "/data/pepper",
		"AUTH_ISSUER":        testIssuer,
		"AUTH_ALGORITHM":     "EdDSA",
		"AUTH_NUM_KEYS":      "1",
		"ENV":                "test",
		"LOG_LEVEL":          "info",
		"LOG_FORMAT":         "json",
	}
}

// relaxedLimits lifts rate limits so tests issuing many rapid requests are
// not throttled.
func relaxedLimits() map[string]string {
	env := map[string]string{}
	for _, preset := range []string{"STRICT", "MODERATE", "LENIENT", "PUBLIC"} {
		env["RATELIMIT_"+preset+"_REQUESTS"] = "10000"
		env["RATELIMIT_"+preset+"_WINDOW_SEC"] = "60"
		env["RATELIMIT_"+preset+"_BURST"] = "10000"
	}
	return env
}

// setupAuthContainer starts the service with relaxed rate limits and
// returns its base URL.
func setupAuthContainer(t *testing.T) (string, func()) {
	t.Helper()
	env := baseEnv()
	maps.Copy(env, relaxedLimits())
	return startContainer(t, env)
}

// setupAuthContainerWithDefaultRateLimits keeps production limits, for the
// rate limiting tests only.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, baseEnv())
}

func startContainer(t *testing.T, env map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// newDeveloper signs up a tenant and returns a session bound to its key.
func newDeveloper(t *testing.T, client *authsdk.SDKClient, mode string) *authsdk.Session {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "-")
	resp, err := client.CreateDeveloper(t.Context(), bootstrapToken, authsdk.CreateDeveloperRequest{
		Name:  name,
		Email: strings.ToLower(name) + "-" + mode + "@e2e.example",
		Mode:  mode,
	})
	require.NoError(t, err, "developer signup should succeed")
	require.True(t, strings.HasPrefix(resp.APIKey, "agk_"), "API key format")

	return client.WithAPIKey(resp.APIKey)
}

// registerAgent creates an agent declaring scopes.
func registerAgent(t *testing.T, s *authsdk.Session, name string, scopes ...string) *authsdk.AgentResponse {
	t.Helper()

	agent, err := s.RegisterAgent(t.Context(), authsdk.CreateAgentRequest{Name: name, Scopes: scopes})
	require.NoError(t, err)
	require.Equal(t, "did:agentgrant:"+agent.AgentID, agent.DID)
	return agent
}

// sandboxGrant authorizes and exchanges in one go. It relies on sandbox
// tenants receiving a code without consent.
func sandboxGrant(t *testing.T, s *authsdk.Session, agentID, principal string, scopes ...string) *authsdk.TokenResponse {
	t.Helper()
	ctx := t.Context()

	authz, err := s.Authorize(ctx, authsdk.AuthorizeRequest{
		AgentID:     agentID,
		PrincipalID: principal,
		Scopes:      scopes,
		ExpiresIn:   "1h",
	})
	require.NoError(t, err)
	require.True(t, authz.Sandbox, "sandbox tenants are auto-approved")
	require.NotEmpty(t, authz.Code)

	tok, err := s.ExchangeCode(ctx, authsdk.TokenRequest{Code: authz.Code, AgentID: agentID})
	require.NoError(t, err)
	assertTokenResponse(t, tok)
	return tok
}

// assertTokenResponse verifies a token response has all required fields.
func assertTokenResponse(t *testing.T, resp *authsdk.TokenResponse) {
	t.Helper()
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.GrantToken, "grant token should not be empty")
	require.NotEmpty(t, resp.RefreshToken, "refresh token should not be empty")
	require.True(t, strings.HasPrefix(resp.GrantID, "grnt_"), "grant id prefix")
	require.True(t, resp.ExpiresAt.After(time.Now()), "grant must not be born expired")
}

// assertCode checks that err is an API error with code.
func assertCode(t *testing.T, err error, code string, context string) {
	t.Helper()
	require.Error(t, err, context)
	require.True(t, authsdk.IsCode(err, code), "%s - want %s, got: %v", context, code, err)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
