package http

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/service"
	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
)

// AuditHandler serves the tenant's hash-chained audit log.
type AuditHandler struct {
	Audit *service.AuditService
}

// HandleLog godoc
//
//	@Summary		Append audit entry
//	@Description	Records an action taken by an agent runtime. The entry is linked onto the tenant's hash chain.
//	@Tags			Audit
//	@Accept			json
//	@Produce		json
//	@Security		APIKey
//	@Param			request	body		authsdk.AuditLogRequest	true	"Entry"
//	@Success		201		{object}	authsdk.AuditEntryResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		402		{object}	httpx.ErrorBody	"plan limit"
//	@Router			/v1/audit/log [post]
func (h *AuditHandler) HandleLog(w http.ResponseWriter, r *http.Request) {
	var req authsdk.AuditLogRequest
	if !decode(w, r, &req) {
		return
	}

	e, err := h.Audit.Log(r.Context(), developerID(r), service.LogInput{
		AgentID:     req.AgentID,
		AgentDID:    req.AgentDID,
		GrantID:     req.GrantID,
		PrincipalID: req.PrincipalID,
		Action:      req.Action,
		Metadata:    req.Metadata,
		Status:      domain.AuditStatus(req.Status),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, auditResponse(e))
}

// HandleList godoc
//
//	@Summary		List audit entries
//	@Description	Entries in chain order, oldest first.
//	@Tags			Audit
//	@Produce		json
//	@Security		APIKey
//	@Param			agentId		query		string	false	"Agent ID"
//	@Param			grantId		query		string	false	"Grant ID"
//	@Param			principalId	query		string	false	"Principal ID"
//	@Param			action		query		string	false	"Action"
//	@Param			since		query		string	false	"RFC 3339 lower bound, inclusive"
//	@Param			until		query		string	false	"RFC 3339 upper bound, inclusive"
//	@Param			limit		query		int		false	"Maximum entries"
//	@Success		200			{object}	authsdk.AuditListResponse
//	@Failure		400			{object}	httpx.ErrorBody
//	@Router			/v1/audit/entries [get]
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	f, err := auditFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := h.Audit.List(r.Context(), developerID(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.AuditListResponse{
		Entries: mapSlice(entries, auditResponse),
		Total:   len(entries),
	})
}

func auditFilter(q url.Values) (domain.AuditFilter, error) {
	f := domain.AuditFilter{
		AgentID:     q.Get("agentId"),
		GrantID:     q.Get("grantId"),
		PrincipalID: q.Get("principalId"),
		Action:      q.Get("action"),
	}

	var err error
	if f.Since, err = parseTimeParam(q, "since"); err != nil {
		return f, err
	}
	if f.Until, err = parseTimeParam(q, "until"); err != nil {
		return f, err
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, service.Errorf(httpx.CodeBadRequest, "limit must be a non-negative integer")
		}
		f.Limit = n
	}
	return f, nil
}

func parseTimeParam(q url.Values, name string) (time.Time, error) {
	v := q.Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, service.Errorf(httpx.CodeBadRequest, "%s must be an RFC 3339 timestamp", name)
	}
	return t, nil
}

// HandleGet godoc
//
//	@Summary	Get audit entry
//	@Tags		Audit
//	@Produce	json
//	@Security	APIKey
//	@Param		id	path		string	true	"Entry ID"
//	@Success	200	{object}	authsdk.AuditEntryResponse
//	@Failure	404	{object}	httpx.ErrorBody
//	@Router		/v1/audit/{id} [get]
func (h *AuditHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, err := h.Audit.Get(r.Context(), developerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, auditResponse(e))
}

// HandleVerify godoc
//
//	@Summary		Verify audit chain
//	@Description	Recomputes every hash and link in the tenant's chain and reports the first broken entry.
//	@Tags			Audit
//	@Produce		json
//	@Security		APIKey
//	@Success		200	{object}	authsdk.ChainVerificationResponse
//	@Router			/v1/audit/verify [get]
func (h *AuditHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	res, err := h.Audit.Verify(r.Context(), developerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ChainVerificationResponse{
		Valid:          res.Valid,
		CheckedEntries: res.Checked,
		FirstBrokenAt:  res.FirstBrokenAt,
	})
}
