package http

import (
	"net/http"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/service"
	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/aussiebroadwan/agentgrant/pkg/slogx"
)

// DevelopersHandler serves tenant signup and the developer's own account.
type DevelopersHandler struct {
	Developers *service.DeveloperService
}

// HandleCreate godoc
//
//	@Summary		Create developer
//	@Description	Registers a tenant and returns its API key. The key is shown exactly once.
//	@Description	Requires the X-Bootstrap-Token header to match the server's BOOTSTRAP_TOKEN.
//	@Tags			Developers
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string							true	"Bootstrap token"
//	@Param			request				body		authsdk.CreateDeveloperRequest	true	"Developer"
//	@Success		201					{object}	authsdk.CreateDeveloperResponse
//	@Failure		400					{object}	httpx.ErrorBody
//	@Failure		401					{object}	httpx.ErrorBody
//	@Failure		409					{object}	httpx.ErrorBody
//	@Failure		503					{object}	httpx.ErrorBody	"signup disabled"
//	@Router			/v1/developers [post]
func (h *DevelopersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := h.Developers.CheckBootstrap(r.Header.Get(authsdk.BootstrapHeader)); err != nil {
		slogx.FromContext(r.Context()).Warn("developer signup rejected", "err", err)
		writeError(w, r, err)
		return
	}

	var req authsdk.CreateDeveloperRequest
	if !decode(w, r, &req) {
		return
	}

	creds, err := h.Developers.Create(r.Context(), service.CreateDeveloperInput{
		Name:  req.Name,
		Email: req.Email,
		Mode:  domain.DeveloperMode(req.Mode),
		Plan:  domain.Plan(req.Plan),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("developer created", "developer_id", creds.Developer.ID, "plan", creds.Developer.Plan)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.CreateDeveloperResponse{
		DeveloperResponse: developerResponse(creds.Developer),
		APIKey:            creds.APIKey,
	})
}

// HandleMe godoc
//
//	@Summary		Current developer
//	@Description	Returns the authenticated developer with plan usage and limits.
//	@Tags			Developers
//	@Produce		json
//	@Security		APIKey
//	@Success		200	{object}	authsdk.ProfileResponse
//	@Failure		401	{object}	httpx.ErrorBody
//	@Router			/v1/me [get]
func (h *DevelopersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, err := h.Developers.Profile(r.Context(), developerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profileResponse(p))
}

// HandleRotateKey godoc
//
//	@Summary		Rotate API key
//	@Description	Replaces the caller's API key. The old key stops working immediately.
//	@Tags			Developers
//	@Produce		json
//	@Security		APIKey
//	@Success		200	{object}	authsdk.RotateKeyResponse
//	@Failure		401	{object}	httpx.ErrorBody
//	@Router			/v1/keys/rotate [post]
func (h *DevelopersHandler) HandleRotateKey(w http.ResponseWriter, r *http.Request) {
	creds, err := h.Developers.RotateKey(r.Context(), developerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("api key rotated")
	httpx.WriteJSON(w, http.StatusOK, authsdk.RotateKeyResponse{
		APIKey:    creds.APIKey,
		RotatedAt: creds.Developer.UpdatedAt,
	})
}
