package authsdk

import (
	"context"
	"net/http"
	"sync"
)

// Session is a developer-authenticated view of the API. API keys do not
// expire, so unlike a token session there is nothing to refresh; RotateKey
// swaps the key in place.
type Session struct {
	client *SDKClient

	mu     sync.RWMutex
	apiKey string
}

func (s *Session) key() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// Me returns the authenticated developer with its current plan usage.
func (s *Session) Me(ctx context.Context) (*ProfileResponse, error) {
	return callJSON[ProfileResponse](ctx, s, http.MethodGet, "/v1/me", nil, http.StatusOK)
}

// RotateKey replaces the developer's API key. The old key stops working
// immediately and the session switches to the new one.
func (s *Session) RotateKey(ctx context.Context) (*RotateKeyResponse, error) {
	out, err := callJSON[RotateKeyResponse](ctx, s, http.MethodPost, "/v1/keys/rotate", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.apiKey = out.APIKey
	s.mu.Unlock()
	return out, nil
}

// del issues an authenticated DELETE that expects 204.
func (s *Session) del(ctx context.Context, path string) error {
	cl, err := s.authed(call{method: http.MethodDelete, path: path, want: http.StatusNoContent})
	if err != nil {
		return err
	}
	_, _, err = s.client.roundTrip(ctx, cl)
	return err
}
