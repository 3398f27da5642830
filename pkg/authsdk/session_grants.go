package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Delegate issues a narrower child grant to a sub-agent.
func (s *Session) Delegate(ctx context.Context, req DelegateRequest) (*DelegateResponse, error) {
	return callJSON[DelegateResponse](ctx, s, http.MethodPost, "/v1/grants/delegate", req, http.StatusCreated)
}

func (s *Session) ListGrants(ctx context.Context, q GrantQuery) (*GrantListResponse, error) {
	v := url.Values{}
	setIf(v, "agentId", q.AgentID)
	setIf(v, "principalId", q.PrincipalID)
	setIf(v, "status", q.Status)
	return callJSON[GrantListResponse](ctx, s, http.MethodGet, withQuery("/v1/grants", v), nil, http.StatusOK)
}

func (s *Session) GetGrant(ctx context.Context, grantID string) (*GrantResponse, error) {
	return callJSON[GrantResponse](ctx, s, http.MethodGet, "/v1/grants/"+url.PathEscape(grantID), nil, http.StatusOK)
}

// RevokeGrant revokes a grant and every grant delegated from it.
func (s *Session) RevokeGrant(ctx context.Context, grantID string) error {
	return s.del(ctx, "/v1/grants/"+url.PathEscape(grantID))
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}
