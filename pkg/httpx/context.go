package httpx

import (
	"context"

	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyDeveloperID ctxKey = "developer_id"
	CtxKeyPrincipalID ctxKey = "principal_id"
	CtxKeyClaims      ctxKey = "claims"
)

// ContextWithDeveloper records the authenticated tenant.
func ContextWithDeveloper(ctx context.Context, developerID string) context.Context {
	return context.WithValue(ctx, CtxKeyDeveloperID, developerID)
}

// DeveloperIDFromContext returns the authenticated tenant, or "".
func DeveloperIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(CtxKeyDeveloperID).(string)
	return id
}

// ContextWithPrincipal records the principal of a verified session.
func ContextWithPrincipal(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, CtxKeyPrincipalID, principalID)
}

func PrincipalIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(CtxKeyPrincipalID).(string)
	return id
}

// ContextWithGrant records verified grant token claims.
func ContextWithGrant(ctx context.Context, c jwtx.Claims) context.Context {
	return context.WithValue(ctx, CtxKeyClaims, c)
}

// GrantFromContext returns the claims stored by AuthnMiddleware.
func GrantFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

func scopesFromCtx(ctx context.Context) []string {
	if c, ok := GrantFromContext(ctx); ok {
		return c.Scopes
	}
	return nil
}
