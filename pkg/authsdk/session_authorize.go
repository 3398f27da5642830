package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Authorize opens an authorization request. In sandbox mode, or when an
// allow policy matches, the response already carries the exchange code;
// otherwise the principal must visit ConsentURL.
func (s *Session) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResponse, error) {
	return callJSON[AuthorizeResponse](ctx, s, http.MethodPost, "/v1/authorize", req, http.StatusCreated)
}

// ApproveRequest approves a pending request on the principal's behalf, for
// developers who run their own consent UI.
func (s *Session) ApproveRequest(ctx context.Context, authRequestID string) (*DecisionResponse, error) {
	path := "/v1/authorize/" + url.PathEscape(authRequestID) + "/approve"
	return callJSON[DecisionResponse](ctx, s, http.MethodPost, path, nil, http.StatusOK)
}

func (s *Session) DenyRequest(ctx context.Context, authRequestID string) (*DecisionResponse, error) {
	path := "/v1/authorize/" + url.PathEscape(authRequestID) + "/deny"
	return callJSON[DecisionResponse](ctx, s, http.MethodPost, path, nil, http.StatusOK)
}
