package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteJSONCaching(t *testing.T) {
	t.Parallel()

	t.Run("default no-store", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		WriteJSON(rec, http.StatusCreated, map[string]string{"a": "b"})
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		require.JSONEq(t, `{"a":"b"}`, rec.Body.String())
	})

	t.Run("handler policy kept", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		rec.Header().Set("Cache-Control", "public, max-age=300")
		WriteJSON(rec, http.StatusOK, struct{}{})
		require.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))
		require.Empty(t, rec.Header().Get("Pragma"))
	})
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type body struct {
		Name string `json:"name"`
	}

	cases := map[string]struct {
		in      string
		wantErr string
	}{
		"ok":            {in: `{"name":"bot"}`},
		"empty":         {in: ``, wantErr: "required"},
		"unknown field": {in: `{"name":"bot","admin":true}`, wantErr: "unknown field"},
		"trailing":      {in: `{"name":"a"}{"name":"b"}`, wantErr: "single JSON object"},
		"malformed":     {in: `{"name":`, wantErr: "invalid JSON"},
		"too large":     {in: `{"name":"` + strings.Repeat("x", MaxBodyBytes) + `"}`, wantErr: "exceeds"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.in))
			var got body
			err := DecodeJSON(httptest.NewRecorder(), r, &got)
			if tc.wantErr == "" {
				require.NoError(t, err)
				require.Equal(t, "bot", got.Name)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}
