package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the agentgrant control plane.
// It covers the unauthenticated surface (health, JWKS, consent, signup) and
// hands out Sessions bound to a developer API key for everything else.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new client for the service at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithAPIKey returns a Session that authenticates as the developer owning
// apiKey.
func (c *SDKClient) WithAPIKey(apiKey string) *Session {
	return &Session{client: c, apiKey: apiKey}
}
