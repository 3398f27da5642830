package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// ExchangeCode redeems an approved authorization code for a root grant.
func (s *Session) ExchangeCode(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	return callJSON[TokenResponse](ctx, s, http.MethodPost, "/v1/token", req, http.StatusCreated)
}

// RefreshGrant rotates a refresh token. The submitted token is burned even
// if the caller never reads the response.
func (s *Session) RefreshGrant(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	return callJSON[TokenResponse](ctx, s, http.MethodPost, "/v1/token/refresh", req, http.StatusCreated)
}

// VerifyToken checks a grant token online, including revocation.
func (s *Session) VerifyToken(ctx context.Context, token string) (*VerifyResponse, error) {
	return callJSON[VerifyResponse](ctx, s, http.MethodPost, "/v1/tokens/verify", TokenBody{Token: token}, http.StatusOK)
}

func (s *Session) IntrospectToken(ctx context.Context, token string) (*IntrospectionResponse, error) {
	return callJSON[IntrospectionResponse](ctx, s, http.MethodPost, "/v1/tokens/introspect", TokenBody{Token: token}, http.StatusOK)
}

// CheckToken asks the control plane to authorize one resource call. A
// refusal comes back as an *APIError coded TOKEN_INVALID, TOKEN_EXPIRED,
// SCOPE_MISSING or CONSTRAINT_VIOLATED.
func (s *Session) CheckToken(ctx context.Context, req CheckRequest) (*CheckResponse, error) {
	return callJSON[CheckResponse](ctx, s, http.MethodPost, "/v1/tokens/check", req, http.StatusOK)
}

// RevokeToken revokes a single token by jti. Its grant stays active.
func (s *Session) RevokeToken(ctx context.Context, jti string) error {
	return s.del(ctx, "/v1/tokens/"+url.PathEscape(jti))
}
