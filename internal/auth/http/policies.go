package http

import (
	"net/http"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/service"
	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
)

// PoliciesHandler serves policy CRUD.
type PoliciesHandler struct {
	Policies *service.PolicyService
}

// HandleCreate godoc
//
//	@Summary		Create policy
//	@Description	Policies are evaluated by priority (highest first, then oldest first); the first match decides.
//	@Tags			Policies
//	@Accept			json
//	@Produce		json
//	@Security		APIKey
//	@Param			request	body		authsdk.CreatePolicyRequest	true	"Policy"
//	@Success		201		{object}	authsdk.PolicyResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		402		{object}	httpx.ErrorBody	"plan limit"
//	@Router			/v1/policies [post]
func (h *PoliciesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreatePolicyRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.Policies.Create(r.Context(), developerID(r), service.PolicyInput{
		Name:        req.Name,
		Effect:      domain.PolicyEffect(req.Effect),
		Priority:    req.Priority,
		AgentID:     req.AgentID,
		PrincipalID: req.PrincipalID,
		Scopes:      req.Scopes,
		TimeStart:   req.TimeOfDayStart,
		TimeEnd:     req.TimeOfDayEnd,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, policyResponse(p))
}

// HandleList godoc
//
//	@Summary		List policies
//	@Description	Returns the tenant's policies in evaluation order.
//	@Tags			Policies
//	@Produce		json
//	@Security		APIKey
//	@Success		200	{object}	authsdk.PolicyListResponse
//	@Router			/v1/policies [get]
func (h *PoliciesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Policies.List(r.Context(), developerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.PolicyListResponse{
		Policies: mapSlice(policies, policyResponse),
		Total:    len(policies),
	})
}

// HandleGet godoc
//
//	@Summary	Get policy
//	@Tags		Policies
//	@Produce	json
//	@Security	APIKey
//	@Param		id	path		string	true	"Policy ID"
//	@Success	200	{object}	authsdk.PolicyResponse
//	@Failure	404	{object}	httpx.ErrorBody
//	@Router		/v1/policies/{id} [get]
func (h *PoliciesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.Policies.Get(r.Context(), developerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, policyResponse(p))
}

// HandleUpdate godoc
//
//	@Summary		Update policy
//	@Description	Merge patch: absent fields are kept, an explicit null clears a filter.
//	@Tags			Policies
//	@Accept			json
//	@Produce		json
//	@Security		APIKey
//	@Param			id		path		string				true	"Policy ID"
//	@Param			request	body		authsdk.PolicyPatch	true	"Fields to change"
//	@Success		200		{object}	authsdk.PolicyResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		404		{object}	httpx.ErrorBody
//	@Router			/v1/policies/{id} [patch]
func (h *PoliciesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch service.PolicyPatch
	if !decode(w, r, &patch) {
		return
	}

	p, err := h.Policies.Update(r.Context(), developerID(r), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, policyResponse(p))
}

// HandleDelete godoc
//
//	@Summary	Delete policy
//	@Tags		Policies
//	@Security	APIKey
//	@Param		id	path	string	true	"Policy ID"
//	@Success	204
//	@Failure	404	{object}	httpx.ErrorBody
//	@Router		/v1/policies/{id} [delete]
func (h *PoliciesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Policies.Delete(r.Context(), developerID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
