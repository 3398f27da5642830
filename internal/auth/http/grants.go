package http

import (
	"net/http"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/service"
	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/aussiebroadwan/agentgrant/pkg/slogx"
)

// GrantsHandler serves delegation and the grant tree.
type GrantsHandler struct {
	Grants *service.GrantService
}

// HandleDelegate godoc
//
//	@Summary		Delegate grant
//	@Description	Mints a sub-grant for another agent. Scopes must be covered by the parent token's scopes
//	@Description	and the sub-grant never outlives its parent.
//	@Tags			Grants
//	@Accept			json
//	@Produce		json
//	@Security		APIKey
//	@Param			request	body		authsdk.DelegateRequest	true	"Delegation"
//	@Success		201		{object}	authsdk.DelegateResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		404		{object}	httpx.ErrorBody	"sub-agent not found"
//	@Router			/v1/grants/delegate [post]
func (h *GrantsHandler) HandleDelegate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.DelegateRequest
	if !decode(w, r, &req) {
		return
	}

	ig, err := h.Grants.Delegate(r.Context(), developerID(r), service.DelegateInput{
		ParentGrantToken: req.ParentGrantToken,
		SubAgentID:       req.SubAgentID,
		Scopes:           req.Scopes,
		ExpiresIn:        req.ExpiresIn,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, authsdk.DelegateResponse{
		TokenResponse:   tokenResponse(ig),
		ParentGrantID:   ig.Grant.ParentGrantID,
		DelegationDepth: ig.Grant.DelegationDepth,
	})
}

// HandleList godoc
//
//	@Summary	List grants
//	@Tags		Grants
//	@Produce	json
//	@Security	APIKey
//	@Param		agentId		query		string	false	"Agent ID"
//	@Param		principalId	query		string	false	"Principal ID"
//	@Param		status		query		string	false	"Status"	Enums(active, revoked, expired)
//	@Success	200			{object}	authsdk.GrantListResponse
//	@Router		/v1/grants [get]
func (h *GrantsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	grants, err := h.Grants.List(r.Context(), developerID(r), domain.GrantFilter{
		AgentID:     q.Get("agentId"),
		PrincipalID: q.Get("principalId"),
		Status:      domain.GrantStatus(q.Get("status")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.GrantListResponse{
		Grants: mapSlice(grants, grantResponse),
		Total:  len(grants),
	})
}

// HandleGet godoc
//
//	@Summary	Get grant
//	@Tags		Grants
//	@Produce	json
//	@Security	APIKey
//	@Param		id	path		string	true	"Grant ID"
//	@Success	200	{object}	authsdk.GrantResponse
//	@Failure	404	{object}	httpx.ErrorBody
//	@Router		/v1/grants/{id} [get]
func (h *GrantsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	g, err := h.Grants.Get(r.Context(), developerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, grantResponse(g))
}

// HandleRevoke godoc
//
//	@Summary		Revoke grant
//	@Description	Revokes the grant and every grant delegated from it, at any depth.
//	@Tags			Grants
//	@Security		APIKey
//	@Param			id	path	string	true	"Grant ID"
//	@Success		204
//	@Failure		404	{object}	httpx.ErrorBody
//	@Router			/v1/grants/{id} [delete]
func (h *GrantsHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	revoked, err := h.Grants.Revoke(r.Context(), developerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	slogx.FromContext(r.Context()).Debug("grant revoke cascade", "grant_id", r.PathValue("id"), "count", len(revoked))
	w.WriteHeader(http.StatusNoContent)
}
