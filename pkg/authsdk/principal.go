package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// CreatePrincipalSession mints a short-lived session for one of the
// developer's end users. Hand the token to the principal; it only unlocks
// the /v1/principal endpoints.
func (s *Session) CreatePrincipalSession(ctx context.Context, req CreatePrincipalSessionRequest) (*PrincipalSessionResponse, error) {
	return callJSON[PrincipalSessionResponse](ctx, s, http.MethodPost, "/v1/principal-sessions", req, http.StatusCreated)
}

// PrincipalPortal is the API as seen by a principal holding a session
// token. It lists and revokes only that principal's grants.
type PrincipalPortal struct {
	client *SDKClient
	token  string
}

// WithPrincipalSession returns a portal authenticated by a session token.
func (c *SDKClient) WithPrincipalSession(token string) *PrincipalPortal {
	return &PrincipalPortal{client: c, token: token}
}

// ListGrants returns the principal's active grants, newest first.
func (p *PrincipalPortal) ListGrants(ctx context.Context) (*PrincipalGrantListResponse, error) {
	return fetch[PrincipalGrantListResponse](ctx, p.client, bearer(call{
		method: http.MethodGet, path: "/v1/principal/grants", want: http.StatusOK,
	}, p.token))
}

// RevokeGrant revokes one of the principal's grants and everything
// delegated from it.
func (p *PrincipalPortal) RevokeGrant(ctx context.Context, grantID string) error {
	_, _, err := p.client.roundTrip(ctx, bearer(call{
		method: http.MethodDelete, path: "/v1/principal/grants/" + url.PathEscape(grantID), want: http.StatusNoContent,
	}, p.token))
	return err
}

// ListAudit returns recent activity about the principal, newest first.
func (p *PrincipalPortal) ListAudit(ctx context.Context) (*AuditListResponse, error) {
	return fetch[AuditListResponse](ctx, p.client, bearer(call{
		method: http.MethodGet, path: "/v1/principal/audit", want: http.StatusOK,
	}, p.token))
}
