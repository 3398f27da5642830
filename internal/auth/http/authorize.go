package http

import (
	"net/http"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/service"
	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
)

// AuthorizeHandler starts authorization requests and lets the developer
// decide them directly.
type AuthorizeHandler struct {
	Authorize *service.AuthorizeService
}

// HandleAuthorize godoc
//
//	@Summary		Request authorization
//	@Description	Asks a principal to grant scopes to an agent. Policies are evaluated first:
//	@Description	a deny fails the request, an allow (or a sandbox tenant) approves it at once and returns the exchange code.
//	@Description	Otherwise the request stays pending until the principal answers at consentUrl.
//	@Tags			Authorization
//	@Accept			json
//	@Produce		json
//	@Security		APIKey
//	@Param			request	body		authsdk.AuthorizeRequest	true	"Authorization request"
//	@Success		201		{object}	authsdk.AuthorizeResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		402		{object}	httpx.ErrorBody	"plan limit"
//	@Failure		403		{object}	httpx.ErrorBody	"POLICY_DENIED"
//	@Failure		404		{object}	httpx.ErrorBody	"unknown or inactive agent"
//	@Router			/v1/authorize [post]
func (h *AuthorizeHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	var req authsdk.AuthorizeRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.Authorize.Authorize(r.Context(), developerID(r), service.AuthorizeInput{
		AgentID:             req.AgentID,
		PrincipalID:         req.PrincipalID,
		Scopes:              req.Scopes,
		RedirectURI:         req.RedirectURI,
		State:               req.State,
		ExpiresIn:           req.ExpiresIn,
		Audience:            req.Audience,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := authsdk.AuthorizeResponse{
		AuthRequestID: res.Request.ID,
		ConsentURL:    res.ConsentURL,
		ExpiresAt:     res.Request.ExpiresAt,
		Status:        string(res.Request.Status),
	}
	if res.AutoApproved() {
		out.Code = res.Code
		if res.Policy != nil {
			out.PolicyEnforced = true
			out.Effect = string(domain.EffectAllow)
			out.PolicyID = res.Policy.ID
		} else {
			out.Sandbox = res.Sandbox
		}
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

// HandleApprove godoc
//
//	@Summary		Approve request
//	@Description	Approves a pending request on the principal's behalf and returns the exchange code.
//	@Tags			Authorization
//	@Produce		json
//	@Security		APIKey
//	@Param			id	path		string	true	"Auth request ID"
//	@Success		200	{object}	authsdk.DecisionResponse
//	@Failure		404	{object}	httpx.ErrorBody	"unknown, decided or expired"
//	@Router			/v1/authorize/{id}/approve [post]
func (h *AuthorizeHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	d, err := h.Authorize.Approve(r.Context(), developerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, decisionResponse(d))
}

// HandleDeny godoc
//
//	@Summary	Deny request
//	@Tags		Authorization
//	@Produce	json
//	@Security	APIKey
//	@Param		id	path		string	true	"Auth request ID"
//	@Success	200	{object}	authsdk.DecisionResponse
//	@Failure	404	{object}	httpx.ErrorBody	"unknown or already decided"
//	@Router		/v1/authorize/{id}/deny [post]
func (h *AuthorizeHandler) HandleDeny(w http.ResponseWriter, r *http.Request) {
	d, err := h.Authorize.Deny(r.Context(), developerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, decisionResponse(d))
}

func decisionResponse(d service.Decision) authsdk.DecisionResponse {
	return authsdk.DecisionResponse{
		AuthRequestID: d.Request.ID,
		Status:        string(d.Request.Status),
		Code:          d.Code,
	}
}
