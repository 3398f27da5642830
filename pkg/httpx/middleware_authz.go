package httpx

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/agentgrant/pkg/scopex"
)

// ValueFunc extracts the amount a request wants to act on, for example a
// payment total from the body or a query parameter.
type ValueFunc func(*http.Request) (float64, error)

// RequireScope requires the grant to carry a scope matching required.
// Constrained grants ("payments:initiate:max_500") satisfy the base scope.
func RequireScope(required string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := scopex.FindMatch(scopesFromCtx(r.Context()), required); !ok {
				writeScopeError(w, r, CodeScopeMissing, "Missing required scope: "+required, required)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireConstraint is RequireScope plus enforcement of any numeric
// constraint on the matched scope against the value the request carries.
func RequireConstraint(required string, value ValueFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, err := value(r)
			if err != nil {
				WriteError(w, r, CodeBadRequest, err.Error())
				return
			}

			_, err = scopex.Enforce(scopesFromCtx(r.Context()), required, &v)
			var cerr *scopex.ConstraintError
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.As(err, &cerr):
				writeScopeError(w, r, CodeConstraintViolated, cerr.Error(), required)
			default:
				writeScopeError(w, r, CodeScopeMissing, "Missing required scope: "+required, required)
			}
		})
	}
}

func writeScopeError(w http.ResponseWriter, r *http.Request, code, msg, scope string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+scope+`"`)
	WriteError(w, r, code, msg)
}
