package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotReady is returned by GetReadiness alongside the decoded body when
// the service answers 503, so callers can still inspect which check failed.
var ErrNotReady = errors.New("authsdk: service not ready")

// GetLiveness calls /livez. It only fails when the process is unreachable.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return getPublic[HealthResponse](ctx, c, "/livez")
}

// GetReadiness calls /readyz. A "degraded" status with a nil error means a
// non-critical dependency (the denylist) is failing while the service
// keeps serving.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	status, raw, err := c.roundTrip(ctx, call{method: http.MethodGet, path: "/readyz", want: http.StatusOK})
	if err == nil || status == http.StatusServiceUnavailable {
		var out HealthResponse
		if derr := json.Unmarshal(raw, &out); derr != nil {
			return nil, fmt.Errorf("authsdk: decode /readyz: %w", derr)
		}
		if err != nil {
			return &out, ErrNotReady
		}
		return &out, nil
	}
	return nil, err
}

// GetJWKS fetches the public keys grant tokens are signed with. Resource
// servers normally go through OfflineVerifier, which caches this.
func (c *SDKClient) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	return getPublic[JWKSResponse](ctx, c, "/.well-known/jwks.json")
}

func getPublic[T any](ctx context.Context, c *SDKClient, path string) (*T, error) {
	return fetch[T](ctx, c, call{method: http.MethodGet, path: path, want: http.StatusOK})
}
