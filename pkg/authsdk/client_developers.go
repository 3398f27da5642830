package authsdk

import (
	"context"
	"net/http"
)

// BootstrapHeader carries the operator's signup token.
const BootstrapHeader = "X-Bootstrap-Token"

// CreateDeveloper registers a tenant. The returned API key is shown once;
// use it with WithAPIKey.
func (c *SDKClient) CreateDeveloper(ctx context.Context, bootstrapToken string, req CreateDeveloperRequest) (*CreateDeveloperResponse, error) {
	return fetch[CreateDeveloperResponse](ctx, c, call{
		method: http.MethodPost,
		path:   "/v1/developers",
		in:     req,
		want:   http.StatusCreated,
		header: http.Header{BootstrapHeader: {bootstrapToken}},
	})
}
