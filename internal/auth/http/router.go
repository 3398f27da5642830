package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/denylist"
	"github.com/aussiebroadwan/agentgrant/internal/auth/metrics"
	"github.com/aussiebroadwan/agentgrant/internal/auth/service"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
	"github.com/aussiebroadwan/agentgrant/pkg/slogx"

	_ "github.com/aussiebroadwan/agentgrant/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	denylist     denylist.Denylist
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Developers *service.DeveloperService
	Agents     *service.AgentService
	Authorize  *service.AuthorizeService
	Tokens     *service.TokenService
	Grants     *service.GrantService
	Policies   *service.PolicyService
	Audit      *service.AuditService
	Principals *service.PrincipalService
}

func NewRouter(
	keys *jwtx.KeySet,
	dl denylist.Denylist,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		denylist:     dl,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerDevelopers()
	r.registerAgents()
	r.registerAuthorize()
	r.registerConsent()
	r.registerTokens()
	r.registerGrants()
	r.registerPolicies()
	r.registerAudit()
	r.registerPrincipal()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			AgentGrant Authorization API
//	@version		0.1.0
//	@description	Control plane for granting AI agents scoped, time-boxed and revocable authority to act for a principal.
//	@description
//	@description				Grant tokens are signed JWTs and can be verified offline against the JWKS endpoint.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/agentgrant
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	APIKey
//	@in							header
//	@name						Authorization
//	@description				Developer API key. Format: "Bearer agk_{keyId}_{secret}".
//
//	@securityDefinitions.apikey	PrincipalSession
//	@in							header
//	@name						Authorization
//	@description				Principal session token from POST /v1/principal-sessions. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// public registers an unauthenticated route limited per client IP.
func (r *Router) public(pattern, route string, limit httpx.RateLimitConfig, h http.HandlerFunc) {
	r.Mux.Handle(pattern, httpx.Chain(h,
		metrics.Instrument(route),
		httpx.RateLimitByIP(limit),
	))
}

// tenant registers a route that requires a developer API key. The limit is
// applied after authentication so each tenant gets its own bucket.
func (r *Router) tenant(pattern, route string, limit httpx.RateLimitConfig, h http.HandlerFunc) {
	r.Mux.Handle(pattern, httpx.Chain(h,
		metrics.Instrument(route),
		r.requireDeveloper,
		httpx.RateLimitByDeveloper(limit),
	))
}

// principal registers a route authenticated by a principal session token.
// Principals arrive from browsers, so the limit is per client IP.
func (r *Router) principal(pattern, route string, limit httpx.RateLimitConfig, h http.HandlerFunc) {
	r.Mux.Handle(pattern, httpx.Chain(h,
		metrics.Instrument(route),
		httpx.RateLimitByIP(limit),
		r.requirePrincipal,
	))
}

func (r *Router) registerDevelopers() {
	h := &DevelopersHandler{Developers: r.Developers}

	// Signup is guarded by the bootstrap token, so keep it tight.
	r.public("POST /v1/developers", "/v1/developers", httpx.StrictLimit, h.HandleCreate)
	r.tenant("GET /v1/me", "/v1/me", httpx.LenientLimit, h.HandleMe)
	r.tenant("POST /v1/keys/rotate", "/v1/keys/rotate", httpx.StrictLimit, h.HandleRotateKey)
}

func (r *Router) registerAgents() {
	h := &AgentsHandler{Agents: r.Agents}

	r.tenant("POST /v1/agents", "/v1/agents", httpx.ModerateLimit, h.HandleCreate)
	r.tenant("GET /v1/agents", "/v1/agents", httpx.LenientLimit, h.HandleList)
	r.tenant("GET /v1/agents/{id}", "/v1/agents/{id}", httpx.LenientLimit, h.HandleGet)
	r.tenant("PATCH /v1/agents/{id}", "/v1/agents/{id}", httpx.ModerateLimit, h.HandleUpdate)
	r.tenant("DELETE /v1/agents/{id}", "/v1/agents/{id}", httpx.ModerateLimit, h.HandleDelete)
}

func (r *Router) registerAuthorize() {
	h := &AuthorizeHandler{Authorize: r.Authorize}

	r.tenant("POST /v1/authorize", "/v1/authorize", httpx.ModerateLimit, h.HandleAuthorize)
	r.tenant("POST /v1/authorize/{id}/approve", "/v1/authorize/{id}/approve", httpx.ModerateLimit, h.HandleApprove)
	r.tenant("POST /v1/authorize/{id}/deny", "/v1/authorize/{id}/deny", httpx.ModerateLimit, h.HandleDeny)
}

func (r *Router) registerConsent() {
	h := &ConsentHandler{Authorize: r.Authorize}

	// The principal's browser hits these without credentials.
	r.public("GET /consent", "/consent", httpx.LenientLimit, h.HandlePage)
	r.public("GET /v1/consent/{id}", "/v1/consent/{id}", httpx.ModerateLimit, h.HandleGet)
	r.public("POST /v1/consent/{id}/approve", "/v1/consent/{id}/approve", httpx.StrictLimit, h.HandleApprove)
	r.public("POST /v1/consent/{id}/deny", "/v1/consent/{id}/deny", httpx.StrictLimit, h.HandleDeny)
}

func (r *Router) registerTokens() {
	h := &TokensHandler{Tokens: r.Tokens}

	// Every agent of a tenant shares these buckets.
	r.tenant("POST /v1/token", "/v1/token", httpx.ModerateLimit, h.HandleExchange)
	r.tenant("POST /v1/token/refresh", "/v1/token/refresh", httpx.ModerateLimit, h.HandleRefresh)

	// Resource adapters call these on every request.
	r.tenant("POST /v1/tokens/verify", "/v1/tokens/verify", httpx.PublicLimit, h.HandleVerify)
	r.tenant("POST /v1/tokens/introspect", "/v1/tokens/introspect", httpx.PublicLimit, h.HandleIntrospect)
	r.tenant("POST /v1/tokens/check", "/v1/tokens/check", httpx.PublicLimit, h.HandleCheck)
	r.tenant("DELETE /v1/tokens/{jti}", "/v1/tokens/{jti}", httpx.ModerateLimit, h.HandleRevoke)
}

func (r *Router) registerGrants() {
	h := &GrantsHandler{Grants: r.Grants}

	r.tenant("POST /v1/grants/delegate", "/v1/grants/delegate", httpx.ModerateLimit, h.HandleDelegate)
	r.tenant("GET /v1/grants", "/v1/grants", httpx.LenientLimit, h.HandleList)
	r.tenant("GET /v1/grants/{id}", "/v1/grants/{id}", httpx.LenientLimit, h.HandleGet)
	r.tenant("DELETE /v1/grants/{id}", "/v1/grants/{id}", httpx.ModerateLimit, h.HandleRevoke)
}

func (r *Router) registerPolicies() {
	h := &PoliciesHandler{Policies: r.Policies}

	r.tenant("POST /v1/policies", "/v1/policies", httpx.ModerateLimit, h.HandleCreate)
	r.tenant("GET /v1/policies", "/v1/policies", httpx.LenientLimit, h.HandleList)
	r.tenant("GET /v1/policies/{id}", "/v1/policies/{id}", httpx.LenientLimit, h.HandleGet)
	r.tenant("PATCH /v1/policies/{id}", "/v1/policies/{id}", httpx.ModerateLimit, h.HandleUpdate)
	r.tenant("DELETE /v1/policies/{id}", "/v1/policies/{id}", httpx.ModerateLimit, h.HandleDelete)
}

func (r *Router) registerAudit() {
	h := &AuditHandler{Audit: r.Audit}

	r.tenant("POST /v1/audit/log", "/v1/audit/log", httpx.LenientLimit, h.HandleLog)
	r.tenant("GET /v1/audit/entries", "/v1/audit/entries", httpx.LenientLimit, h.HandleList)
	r.tenant("GET /v1/audit/verify", "/v1/audit/verify", httpx.StrictLimit, h.HandleVerify)
	r.tenant("GET /v1/audit/{id}", "/v1/audit/{id}", httpx.LenientLimit, h.HandleGet)
}

func (r *Router) registerPrincipal() {
	h := &PrincipalHandler{Principals: r.Principals}

	r.tenant("POST /v1/principal-sessions", "/v1/principal-sessions", httpx.ModerateLimit, h.HandleCreateSession)
	r.principal("GET /v1/principal/grants", "/v1/principal/grants", httpx.LenientLimit, h.HandleListGrants)
	r.principal("DELETE /v1/principal/grants/{id}", "/v1/principal/grants/{id}", httpx.ModerateLimit, h.HandleRevokeGrant)
	r.principal("GET /v1/principal/audit", "/v1/principal/audit", httpx.LenientLimit, h.HandleListAudit)
}

func (r *Router) registerSystem() {
	h := &SystemHandler{
		Store:    r.store,
		Denylist: r.denylist,
		Keys:     r.keys,
		Version:  r.buildVersion,
		Started:  r.startTime,
	}

	r.public("GET /.well-known/jwks.json", "/.well-known/jwks.json", httpx.PublicLimit, h.HandleJWKS)

	// Probes poll often.
	r.public("GET /livez", "/livez", httpx.LenientLimit, h.HandleLivez)
	r.public("GET /readyz", "/readyz", httpx.LenientLimit, h.HandleReadyz)

	r.Mux.Handle("GET /metrics", metrics.Handler())
}
