package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/stretchr/testify/require"
)

// recordingServer answers every request with the canned reply registered
// for "METHOD /path" and remembers what it saw.
type recordingServer struct {
	*httptest.Server
	replies map[string]reply

	mu       sync.Mutex
	lastReq  *http.Request
	lastBody []byte
}

func (rs *recordingServer) last() *http.Request {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.lastReq
}

func (rs *recordingServer) body() []byte {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.lastBody
}

type reply struct {
	status int
	body   any
}

func newRecordingServer(t *testing.T, replies map[string]reply) *recordingServer {
	t.Helper()
	rs := &recordingServer{replies: replies}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rs.mu.Lock()
		rs.lastReq, rs.lastBody = r, body
		rs.mu.Unlock()

		rep, ok := rs.replies[r.Method+" "+r.URL.Path]
		if !ok {
			httpx.WriteError(w, r, httpx.CodeNotFound, "no route")
			return
		}
		if rep.body == nil {
			w.WriteHeader(rep.status)
			return
		}
		httpx.WriteJSON(w, rep.status, rep.body)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func TestSessionSendsAPIKey(t *testing.T) {
	t.Parallel()

	srv := newRecordingServer(t, map[string]reply{
		"GET /v1/me":           {http.StatusOK, ProfileResponse{DeveloperResponse: DeveloperResponse{DeveloperID: "dev_1"}}},
		"POST /v1/keys/rotate": {http.StatusOK, RotateKeyResponse{APIKey: "agk_new_secret", RotatedAt: time.Now()}},
	})
	s := NewSDKClient(srv.URL).WithAPIKey("agk_old_secret")

	me, err := s.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "dev_1", me.DeveloperID)
	require.Equal(t, "Bearer agk_old_secret", srv.last().Header.Get("Authorization"))

	_, err = s.RotateKey(context.Background())
	require.NoError(t, err)

	_, err = s.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer agk_new_secret", srv.last().Header.Get("Authorization"))
}

func TestSessionRoutes(t *testing.T) {
	t.Parallel()

	srv := newRecordingServer(t, map[string]reply{
		"POST /v1/agents":                {http.StatusCreated, AgentResponse{AgentID: "ag_1"}},
		"PATCH /v1/agents/ag_1":          {http.StatusOK, AgentResponse{AgentID: "ag_1"}},
		"DELETE /v1/agents/ag_1":         {http.StatusNoContent, nil},
		"POST /v1/authorize":             {http.StatusCreated, AuthorizeResponse{AuthRequestID: "areq_1", Code: "c", Sandbox: true}},
		"POST /v1/authorize/areq_1/deny": {http.StatusOK, DecisionResponse{AuthRequestID: "areq_1", Status: "denied"}},
		"POST /v1/token":                 {http.StatusCreated, TokenResponse{GrantID: "grnt_1"}},
		"POST /v1/token/refresh":         {http.StatusCreated, TokenResponse{GrantID: "grnt_1"}},
		"POST /v1/grants/delegate":       {http.StatusCreated, DelegateResponse{ParentGrantID: "grnt_1", DelegationDepth: 1}},
		"GET /v1/grants":                 {http.StatusOK, GrantListResponse{Total: 0}},
		"DELETE /v1/grants/grnt_1":       {http.StatusNoContent, nil},
		"DELETE /v1/tokens/tok_1":        {http.StatusNoContent, nil},
		"PATCH /v1/policies/pol_1":       {http.StatusOK, PolicyResponse{PolicyID: "pol_1"}},
		"GET /v1/audit/entries":          {http.StatusOK, AuditListResponse{}},
		"GET /v1/audit/verify":           {http.StatusOK, ChainVerificationResponse{Valid: true, CheckedEntries: 3}},
	})
	s := NewSDKClient(srv.URL).WithAPIKey("agk_k_s")
	ctx := context.Background()

	t.Run("agents", func(t *testing.T) {
		a, err := s.RegisterAgent(ctx, CreateAgentRequest{Name: "bot", Scopes: []string{"email:read"}})
		require.NoError(t, err)
		require.Equal(t, "ag_1", a.AgentID)
		require.JSONEq(t, `{"name":"bot","scopes":["email:read"]}`, string(srv.body()))

		status := "suspended"
		_, err = s.UpdateAgent(ctx, "ag_1", UpdateAgentRequest{Status: &status})
		require.NoError(t, err)
		require.JSONEq(t, `{"status":"suspended"}`, string(srv.body()))

		require.NoError(t, s.RevokeAgent(ctx, "ag_1"))
	})

	t.Run("authorize and tokens", func(t *testing.T) {
		ar, err := s.Authorize(ctx, AuthorizeRequest{AgentID: "ag_1", PrincipalID: "u", Scopes: []string{"a:b"}})
		require.NoError(t, err)
		require.True(t, ar.Sandbox)

		d, err := s.DenyRequest(ctx, "areq_1")
		require.NoError(t, err)
		require.Equal(t, "denied", d.Status)

		_, err = s.ExchangeCode(ctx, TokenRequest{Code: "c", AgentID: "ag_1"})
		require.NoError(t, err)
		_, err = s.RefreshGrant(ctx, RefreshRequest{RefreshToken: "r", AgentID: "ag_1"})
		require.NoError(t, err)
		require.NoError(t, s.RevokeToken(ctx, "tok_1"))
	})

	t.Run("grants", func(t *testing.T) {
		del, err := s.Delegate(ctx, DelegateRequest{ParentGrantToken: "t", SubAgentID: "ag_2", Scopes: []string{"a:b"}})
		require.NoError(t, err)
		require.Equal(t, 1, del.DelegationDepth)

		_, err = s.ListGrants(ctx, GrantQuery{AgentID: "ag_1", Status: "active"})
		require.NoError(t, err)
		require.Equal(t, "ag_1", srv.last().URL.Query().Get("agentId"))
		require.Equal(t, "active", srv.last().URL.Query().Get("status"))
		require.False(t, srv.last().URL.Query().Has("principalId"))

		require.NoError(t, s.RevokeGrant(ctx, "grnt_1"))
	})

	t.Run("policy patch keeps explicit nulls", func(t *testing.T) {
		_, err := s.UpdatePolicy(ctx, "pol_1", PolicyPatch{"agentId": nil, "priority": 3})
		require.NoError(t, err)

		var sent map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(srv.body(), &sent))
		require.Equal(t, "null", string(sent["agentId"]))
		require.Equal(t, "3", string(sent["priority"]))
	})

	t.Run("audit", func(t *testing.T) {
		since := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		_, err := s.ListAudit(ctx, AuditQuery{Action: "grant.revoked", Since: since, Limit: 10})
		require.NoError(t, err)
		q := srv.last().URL.Query()
		require.Equal(t, "grant.revoked", q.Get("action"))
		require.Equal(t, "2026-01-02T03:04:05Z", q.Get("since"))
		require.Equal(t, "10", q.Get("limit"))

		res, err := s.VerifyAuditChain(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, res.CheckedEntries)
	})
}

func TestErrorsAreTyped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/token/refresh":
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorBody{Message: "Refresh token already used", Code: httpx.CodeBadRequest, RequestID: "req_1"})
		case "/v1/consent/areq_1":
			httpx.WriteJSON(w, http.StatusGone, httpx.ErrorBody{Message: "gone", Code: httpx.CodeGone})
		default:
			w.Header().Set("X-Request-ID", "req_2")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		}
	}))
	t.Cleanup(srv.Close)
	c := NewSDKClient(srv.URL)
	ctx := context.Background()

	_, err := c.WithAPIKey("agk_a_b").RefreshGrant(ctx, RefreshRequest{RefreshToken: "r", AgentID: "a"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "req_1", apiErr.RequestID)
	require.Contains(t, apiErr.Error(), "already used")

	_, err = c.GetConsent(ctx, "areq_1")
	require.True(t, IsCode(err, CodeGone))

	_, err = c.GetLiveness(ctx)
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, CodeUpstream, apiErr.Code)
	require.Equal(t, "req_2", apiErr.RequestID)

	_, err = (&Session{client: c}).Me(ctx)
	require.ErrorContains(t, err, "no API key")
}

func TestCreateDeveloperSendsBootstrapHeader(t *testing.T) {
	t.Parallel()

	srv := newRecordingServer(t, map[string]reply{
		"POST /v1/developers": {http.StatusCreated, CreateDeveloperResponse{APIKey: "agk_x_y"}},
	})

	out, err := NewSDKClient(srv.URL).CreateDeveloper(context.Background(), "boot", CreateDeveloperRequest{Name: "Acme", Email: "a@b.c"})
	require.NoError(t, err)
	require.Equal(t, "agk_x_y", out.APIKey)
	require.Equal(t, "boot", srv.last().Header.Get(BootstrapHeader))
	require.Empty(t, srv.last().Header.Get("Authorization"))
}

func TestGetReadiness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    HealthResponse
		wantErr error
	}{
		{"ready", http.StatusOK, HealthResponse{Status: "ok"}, nil},
		{"denylist degraded", http.StatusOK, HealthResponse{Status: "degraded", Checks: &HealthChecks{Database: "ok", Denylist: "error: dial", Signer: "ok"}}, nil},
		{"database down", http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Checks: &HealthChecks{Database: "error: closed", Denylist: "ok", Signer: "ok"}}, ErrNotReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newRecordingServer(t, map[string]reply{"GET /readyz": {tt.status, tt.body}})
			health, err := NewSDKClient(srv.URL).GetReadiness(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NotNil(t, health)
			require.Equal(t, tt.body.Status, health.Status)
			require.Equal(t, tt.body.Checks, health.Checks)
		})
	}
}
