package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Consent endpoints are public: the request id in the consent link is the
// only credential, so a principal's browser can call them directly.

func consentPath(authRequestID, action string) string {
	p := "/v1/consent/" + url.PathEscape(authRequestID)
	if action != "" {
		p += "/" + action
	}
	return p
}

// GetConsent fetches what the principal is being asked to approve. Expired
// or already decided requests come back as GONE.
func (c *SDKClient) GetConsent(ctx context.Context, authRequestID string) (*ConsentResponse, error) {
	return fetch[ConsentResponse](ctx, c, call{method: http.MethodGet, path: consentPath(authRequestID, ""), want: http.StatusOK})
}

// ApproveConsent records the principal's approval and returns the exchange
// code for the agent.
func (c *SDKClient) ApproveConsent(ctx context.Context, authRequestID string) (*ConsentApproveResponse, error) {
	return fetch[ConsentApproveResponse](ctx, c, call{method: http.MethodPost, path: consentPath(authRequestID, "approve"), want: http.StatusOK})
}

func (c *SDKClient) DenyConsent(ctx context.Context, authRequestID string) (*ConsentDenyResponse, error) {
	return fetch[ConsentDenyResponse](ctx, c, call{method: http.MethodPost, path: consentPath(authRequestID, "deny"), want: http.StatusOK})
}
