package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
	"github.com/aussiebroadwan/agentgrant/pkg/slogx"
)

// GrantVerifier checks a presented grant token. Implementations range from a
// pure signature check against a JWKS to an online check against the issuer.
type GrantVerifier interface {
	VerifyGrant(ctx context.Context, token string) (jwtx.Claims, error)
}

// GrantVerifierFunc adapts a function to GrantVerifier.
type GrantVerifierFunc func(ctx context.Context, token string) (jwtx.Claims, error)

func (f GrantVerifierFunc) VerifyGrant(ctx context.Context, token string) (jwtx.Claims, error) {
	return f(ctx, token)
}

// AuthnMiddleware requires a bearer grant token and injects its claims.
func AuthnMiddleware(v GrantVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, r, CodeUnauthorized, "Missing bearer token")
				return
			}

			claims, err := v.VerifyGrant(ctx, raw)
			if err != nil {
				log.Warn("grant verify failed", "err", err)

				var coded CodedError
				switch {
				case errors.Is(err, jwtx.ErrExpired):
					writeBearerError(w, r, CodeTokenExpired, "Grant token has expired")
				case errors.As(err, &coded):
					writeBearerError(w, r, coded.ErrorCode(), coded.Error())
				default:
					writeBearerError(w, r, CodeTokenInvalid, "Grant token is invalid")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithGrant(ctx, claims)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(authz, "Bearer ")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}

// RFC 6750 header alongside the JSON error body.
func writeBearerError(w http.ResponseWriter, r *http.Request, code, desc string) {
	if StatusForCode(code) == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	}
	WriteError(w, r, code, desc)
}
