package httpx_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func fromAddr(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/token", nil)
	req.RemoteAddr = addr
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIPKeyExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr", "203.0.113.9:4000", nil, "203.0.113.9"},
		{"public peer cannot spoof", "203.0.113.9:4000", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.9"},
		{"proxy forwarded for", "10.0.0.2:4000", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"}, "198.51.100.7"},
		{"proxy real ip", "127.0.0.1:4000", map[string]string{"X-Real-IP": " 198.51.100.8 "}, "198.51.100.8"},
		{"proxy without headers", "192.168.1.1:4000", nil, "192.168.1.1"},
		{"no port", "198.51.100.1", nil, "198.51.100.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := fromAddr(tt.remote)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.IPKeyExtractor(req))
		})
	}
}

func TestKeyExtractorCombinators(t *testing.T) {
	t.Parallel()

	anon := fromAddr("203.0.113.9:1")
	authed := anon.WithContext(httpx.ContextWithDeveloper(anon.Context(), "dev_a"))

	require.Empty(t, httpx.DeveloperKeyExtractor(anon))
	require.Equal(t, "dev_a", httpx.DeveloperKeyExtractor(authed))

	composite := httpx.CompositeKeyExtractor("|", httpx.DeveloperKeyExtractor, httpx.IPKeyExtractor)
	require.Equal(t, "dev_a|203.0.113.9", composite(authed))
	require.Equal(t, "203.0.113.9", composite(anon))

	first := httpx.FirstKeyExtractor(httpx.DeveloperKeyExtractor, httpx.IPKeyExtractor)
	require.Equal(t, "0:dev_a", first(authed))
	require.Equal(t, "1:203.0.113.9", first(anon))
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("blocks after burst", func(t *testing.T) {
		t.Parallel()
		h := httpx.RateLimitByIP(httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3})(okHandler)

		for i := range 3 {
			require.Equal(t, http.StatusOK, serve(h, fromAddr("203.0.113.1:1")).Code, "request %d", i+1)
		}
		rec := serve(h, fromAddr("203.0.113.1:1"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		// 3 per minute refills one token every 20s.
		require.Equal(t, "20", rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Contains(t, rec.Body.String(), `"code":"RATE_LIMITED"`)

		require.Equal(t, http.StatusOK, serve(h, fromAddr("203.0.113.2:1")).Code, "other clients unaffected")
	})

	t.Run("burst smaller than rate", func(t *testing.T) {
		t.Parallel()
		h := httpx.RateLimitByIP(httpx.RateLimitConfig{RequestsPerWindow: 600, Window: time.Minute, Burst: 2})(okHandler)

		require.Equal(t, http.StatusOK, serve(h, fromAddr("203.0.113.1:1")).Code)
		require.Equal(t, http.StatusOK, serve(h, fromAddr("203.0.113.1:1")).Code)
		rec := serve(h, fromAddr("203.0.113.1:1"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "1", rec.Header().Get("Retry-After"), "sub-second waits round up")
	})

	t.Run("empty key is not limited", func(t *testing.T) {
		t.Parallel()
		h := httpx.RateLimitMiddleware(
			httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1},
			func(*http.Request) string { return "" },
		)(okHandler)

		for range 3 {
			require.Equal(t, http.StatusOK, serve(h, fromAddr("203.0.113.1:1")).Code)
		}
	})
}

func TestRateLimitByDeveloper(t *testing.T) {
	t.Parallel()

	h := httpx.RateLimitByDeveloper(httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2})(okHandler)

	as := func(dev, addr string) *http.Request {
		req := fromAddr(addr)
		return req.WithContext(httpx.ContextWithDeveloper(req.Context(), dev))
	}

	// One tenant calling from two addresses still shares a bucket.
	require.Equal(t, http.StatusOK, serve(h, as("dev_a", "203.0.113.1:1")).Code)
	require.Equal(t, http.StatusOK, serve(h, as("dev_a", "203.0.113.2:1")).Code)
	require.Equal(t, http.StatusTooManyRequests, serve(h, as("dev_a", "203.0.113.3:1")).Code)

	require.Equal(t, http.StatusOK, serve(h, as("dev_b", "203.0.113.1:1")).Code)
}

func TestRateLimitPresets(t *testing.T) {
	t.Parallel()

	presets := []httpx.RateLimitConfig{httpx.StrictLimit, httpx.ModerateLimit, httpx.LenientLimit, httpx.PublicLimit}
	for i, p := range presets {
		require.Positive(t, p.RequestsPerWindow)
		require.Positive(t, p.Window)
		require.Positive(t, p.Burst)
		if i > 0 {
			require.Less(t, presets[i-1].RequestsPerWindow, p.RequestsPerWindow)
		}
	}
}

func TestParseRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	tests := []struct {
		name string
		env  map[string]string
		want httpx.RateLimitConfig
	}{
		{"unset", nil, def},
		{"requests", map[string]string{"REQUESTS": "50"}, httpx.RateLimitConfig{RequestsPerWindow: 50, Window: time.Minute, Burst: 10}},
		{"window", map[string]string{"WINDOW_SEC": "120"}, httpx.RateLimitConfig{RequestsPerWindow: 10, Window: 2 * time.Minute, Burst: 10}},
		{"all", map[string]string{"REQUESTS": "200", "WINDOW_SEC": "30", "BURST": "250"}, httpx.RateLimitConfig{RequestsPerWindow: 200, Window: 30 * time.Second, Burst: 250}},
		{"invalid ignored", map[string]string{"REQUESTS": "x", "WINDOW_SEC": "-10", "BURST": "0"}, def},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv("RATELIMIT_TEST_"+k, v)
			}
			require.Equal(t, tt.want, httpx.ParseRateLimitFromEnv("TEST", def))
		})
	}
}

func BenchmarkRateLimitManyClients(b *testing.B) {
	h := httpx.RateLimitByIP(httpx.RateLimitConfig{RequestsPerWindow: 1_000_000, Window: time.Minute, Burst: 1000})(okHandler)

	for i := 0; b.Loop(); i++ {
		serve(h, fromAddr(fmt.Sprintf("198.51.%d.%d:1", i%255, (i/255)%255)))
	}
}
