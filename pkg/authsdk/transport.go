package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxResponseBody caps how much of a response the SDK will buffer.
const maxResponseBody = 1 << 20

var errNoAPIKey = errors.New("authsdk: session has no API key")

// call describes one round trip. A nil in sends no body.
type call struct {
	method string
	path   string
	in     any
	want   int
	header http.Header
}

func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

// roundTrip sends cl and returns the buffered body when the status is
// cl.want. Any other status is turned into an *APIError.
func (c *SDKClient) roundTrip(ctx context.Context, cl call) (int, []byte, error) {
	var body io.Reader
	if cl.in != nil {
		b, err := json.Marshal(cl.in)
		if err != nil {
			return 0, nil, fmt.Errorf("authsdk: encode %s %s: %w", cl.method, cl.path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.url(cl.path), body)
	if err != nil {
		return 0, nil, fmt.Errorf("authsdk: build request: %w", err)
	}
	for k, vs := range cl.header {
		req.Header[k] = vs
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("authsdk: %s %s: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("authsdk: read response: %w", err)
	}
	if resp.StatusCode != cl.want {
		if apiErr := parseErrorResponse(resp, raw); apiErr != nil {
			return resp.StatusCode, raw, apiErr
		}
		return resp.StatusCode, raw, fmt.Errorf("authsdk: unexpected status %d", resp.StatusCode)
	}
	return resp.StatusCode, raw, nil
}

// fetch runs cl and decodes the response into T.
func fetch[T any](ctx context.Context, c *SDKClient, cl call) (*T, error) {
	_, raw, err := c.roundTrip(ctx, cl)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("authsdk: decode %s: %w", cl.path, err)
	}
	return &out, nil
}

// authed adds the session's API key to cl.
func (s *Session) authed(cl call) (call, error) {
	key := s.key()
	if key == "" {
		return cl, errNoAPIKey
	}
	return bearer(cl, key), nil
}

func bearer(cl call, token string) call {
	h := cl.header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Authorization", "Bearer "+token)
	cl.header = h
	return cl
}

// callJSON is fetch for authenticated endpoints.
func callJSON[T any](ctx context.Context, s *Session, method, path string, in any, want int) (*T, error) {
	cl, err := s.authed(call{method: method, path: path, in: in, want: want})
	if err != nil {
		return nil, err
	}
	return fetch[T](ctx, s.client, cl)
}
