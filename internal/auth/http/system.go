package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/denylist"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
)

// readinessTimeout bounds each dependency probe so a hung database cannot
// stall the orchestrator's probe.
const readinessTimeout = 2 * time.Second

// SystemHandler serves probes and key discovery. None of it needs a tenant.
type SystemHandler struct {
	Store    store.Store
	Denylist denylist.Denylist
	Keys     *jwtx.KeySet
	Version  string
	Started  time.Time
}

func (h *SystemHandler) base(status string) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.Started).Round(time.Second).String(),
		Version: h.Version,
	}
}

// HandleLivez godoc
//
//	@Summary		Liveness probe
//	@Description	Always 200 while the process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Router			/livez [get]
func (h *SystemHandler) HandleLivez(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.base("ok"))
}

// HandleReadyz godoc
//
//	@Summary		Readiness probe
//	@Description	Probes the store, the revocation denylist and the signing keys.
//	@Description	A failing denylist reports "degraded" with 200, since verification falls back to the store.
//	@Description	A failing store or an empty key set answers 503.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Failure		503	{object}	authsdk.HealthResponse
//	@Router			/readyz [get]
func (h *SystemHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := &authsdk.HealthChecks{Database: "ok", Denylist: "ok", Signer: "ok"}
	status, code := "ok", http.StatusOK

	probe := func(fn func(context.Context) error) error {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		return fn(ctx)
	}

	if err := probe(h.Store.Ping); err != nil {
		checks.Database = "error: " + err.Error()
		status, code = "degraded", http.StatusServiceUnavailable
	}
	if err := probe(h.Denylist.Ping); err != nil {
		checks.Denylist = "error: " + err.Error()
		status = "degraded"
	}
	if !h.Keys.IsReady() {
		checks.Signer = "error: no signing keys loaded"
		status, code = "degraded", http.StatusServiceUnavailable
	}

	resp := h.base(status)
	resp.Checks = checks
	httpx.WriteJSON(w, code, resp)
}

// HandleJWKS godoc
//
//	@Summary		JSON Web Key Set
//	@Description	Public keys that grant tokens are signed with. Resource servers verify grants offline against these.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse
//	@Router			/.well-known/jwks.json [get]
func (h *SystemHandler) HandleJWKS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(h.Keys.PublicJWKS()))
}
