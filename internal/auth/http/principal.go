package http

import (
	"net/http"

	"github.com/aussiebroadwan/agentgrant/internal/auth/service"
	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/aussiebroadwan/agentgrant/pkg/slogx"
)

// PrincipalHandler serves the principal self-service endpoints.
type PrincipalHandler struct {
	Principals *service.PrincipalService
}

// HandleCreateSession godoc
//
//	@Summary		Create principal session
//	@Description	Mints a session token for an end user holding at least one active grant.
//	@Description	expiresIn defaults to 1h and is capped at 24h.
//	@Tags			Principal
//	@Accept			json
//	@Produce		json
//	@Security		APIKey
//	@Param			request	body		authsdk.CreatePrincipalSessionRequest	true	"Session"
//	@Success		201		{object}	authsdk.PrincipalSessionResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		404		{object}	httpx.ErrorBody	"no active grants"
//	@Router			/v1/principal-sessions [post]
func (h *PrincipalHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreatePrincipalSessionRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.Principals.CreateSession(r.Context(), developerID(r), service.CreateSessionInput{
		PrincipalID: req.PrincipalID,
		ExpiresIn:   req.ExpiresIn,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, authsdk.PrincipalSessionResponse{
		SessionToken: sess.Token,
		ExpiresAt:    sess.ExpiresAt,
	})
}

// HandleListGrants godoc
//
//	@Summary	List my grants
//	@Tags		Principal
//	@Produce	json
//	@Security	PrincipalSession
//	@Success	200	{object}	authsdk.PrincipalGrantListResponse
//	@Failure	401	{object}	httpx.ErrorBody
//	@Router		/v1/principal/grants [get]
func (h *PrincipalHandler) HandleListGrants(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	grants, err := h.Principals.ListGrants(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.PrincipalGrantListResponse{
		PrincipalID: p.PrincipalID,
		Grants:      mapSlice(grants, principalGrantResponse),
	})
}

// HandleRevokeGrant godoc
//
//	@Summary		Revoke my grant
//	@Description	Revokes one of the caller's active grants and every grant delegated from it.
//	@Tags			Principal
//	@Security		PrincipalSession
//	@Param			id	path	string	true	"Grant ID"
//	@Success		204
//	@Failure		401	{object}	httpx.ErrorBody
//	@Failure		404	{object}	httpx.ErrorBody
//	@Router			/v1/principal/grants/{id} [delete]
func (h *PrincipalHandler) HandleRevokeGrant(w http.ResponseWriter, r *http.Request) {
	revoked, err := h.Principals.RevokeGrant(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	slogx.FromContext(r.Context()).Info("principal revoked grant", "grant_id", r.PathValue("id"), "count", len(revoked))
	w.WriteHeader(http.StatusNoContent)
}

// HandleListAudit godoc
//
//	@Summary		List my activity
//	@Description	The 100 most recent audit entries about the caller, newest first.
//	@Tags			Principal
//	@Produce		json
//	@Security		PrincipalSession
//	@Success		200	{object}	authsdk.AuditListResponse
//	@Failure		401	{object}	httpx.ErrorBody
//	@Router			/v1/principal/audit [get]
func (h *PrincipalHandler) HandleListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Principals.ListAudit(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.AuditListResponse{
		Entries: mapSlice(entries, auditResponse),
		Total:   len(entries),
	})
}
