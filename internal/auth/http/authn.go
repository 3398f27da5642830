package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/agentgrant/internal/auth/service"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/aussiebroadwan/agentgrant/pkg/slogx"
)

// requireDeveloper authenticates the developer API key and puts the tenant
// id on the context for handlers and the per-tenant rate limiter.
func (r *Router) requireDeveloper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		key, ok := httpx.BearerToken(req)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="agentgrant"`)
			httpx.WriteError(w, req, httpx.CodeUnauthorized, "Missing API key")
			return
		}

		dev, err := r.Developers.Authenticate(req.Context(), key)
		if err != nil {
			writeError(w, req, err)
			return
		}

		ctx := httpx.ContextWithDeveloper(req.Context(), dev.ID)
		ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With("developer_id", dev.ID))
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// requirePrincipal authenticates a principal session token. The tenant id
// goes on the context as for API keys, with the principal next to it.
func (r *Router) requirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		token, ok := httpx.BearerToken(req)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="agentgrant-principal"`)
			httpx.WriteError(w, req, httpx.CodeUnauthorized, "Missing session token")
			return
		}

		p, err := r.Principals.Authenticate(token)
		if err != nil {
			writeError(w, req, err)
			return
		}

		ctx := httpx.ContextWithDeveloper(req.Context(), p.DeveloperID)
		ctx = httpx.ContextWithPrincipal(ctx, p.PrincipalID)
		ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With("developer_id", p.DeveloperID))
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// writeError renders err as the standard error body. Coded errors carry
// their own status; anything else is logged and hidden behind a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var coded httpx.CodedError
	switch {
	case errors.As(err, &coded):
		httpx.WriteError(w, r, coded.ErrorCode(), coded.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(w, r, httpx.CodeServiceUnavailable, "Request timed out")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.WriteError(w, r, httpx.CodeInternal, "Internal server error")
	}
}

// decode reads a JSON body, writing a BAD_REQUEST on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		httpx.WriteError(w, r, httpx.CodeBadRequest, err.Error())
		return false
	}
	return true
}

func developerID(r *http.Request) string {
	return httpx.DeveloperIDFromContext(r.Context())
}

func principal(r *http.Request) service.Principal {
	return service.Principal{
		DeveloperID: httpx.DeveloperIDFromContext(r.Context()),
		PrincipalID: httpx.PrincipalIDFromContext(r.Context()),
	}
}
