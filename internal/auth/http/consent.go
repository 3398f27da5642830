package http

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/service"
	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/aussiebroadwan/agentgrant/pkg/scopex"
	"github.com/aussiebroadwan/agentgrant/pkg/slogx"
)

//go:embed templates/consent.html
var templatesFS embed.FS

var consentTemplate = template.Must(template.ParseFS(templatesFS, "templates/consent.html"))

// ConsentHandler serves the principal-facing side of an authorization
// request. None of its routes take credentials; the request id is the
// capability.
type ConsentHandler struct {
	Authorize *service.AuthorizeService
}

type consentScope struct {
	Scope       string
	Description string
}

type consentPage struct {
	Error            string
	AuthRequestID    string
	AgentName        string
	AgentDescription string
	AgentDID         string
	PrincipalID      string
	Scopes           []consentScope
	ExpiresAt        string
	RedirectURI      string
	State            string
}

// HandlePage godoc
//
//	@Summary		Consent page
//	@Description	HTML page where the principal approves or denies a pending request.
//	@Tags			Consent
//	@Produce		html
//	@Param			req	query		string	true	"Auth request ID"
//	@Success		200	{string}	string	"HTML"
//	@Failure		404	{string}	string	"HTML"
//	@Failure		410	{string}	string	"HTML"
//	@Router			/consent [get]
func (h *ConsentHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("req")
	if id == "" {
		h.render(w, r, http.StatusBadRequest, consentPage{Error: "Missing request ID."})
		return
	}

	view, err := h.Authorize.Consent(r.Context(), id)
	if err != nil {
		var coded httpx.CodedError
		if !errors.As(err, &coded) {
			slogx.FromContext(r.Context()).Error("consent page failed", "err", err)
			h.render(w, r, http.StatusInternalServerError, consentPage{Error: "Something went wrong. Please try again."})
			return
		}
		msg := "Authorization request not found."
		if coded.ErrorCode() == httpx.CodeGone {
			msg = "This authorization request has expired or has already been processed."
		}
		h.render(w, r, httpx.StatusForCode(coded.ErrorCode()), consentPage{Error: msg})
		return
	}

	page := consentPage{
		AuthRequestID:    view.Request.ID,
		AgentName:        view.Agent.Name,
		AgentDescription: view.Agent.Description,
		AgentDID:         view.Agent.DID,
		PrincipalID:      view.Request.PrincipalID,
		ExpiresAt:        view.Request.ExpiresAt.UTC().Format(time.RFC1123),
		RedirectURI:      view.Request.RedirectURI,
		State:            view.Request.State,
	}
	for _, s := range view.Request.Scopes {
		page.Scopes = append(page.Scopes, consentScope{Scope: s, Description: scopex.Describe(s)})
	}
	h.render(w, r, http.StatusOK, page)
}

func (h *ConsentHandler) render(w http.ResponseWriter, r *http.Request, status int, page consentPage) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Frame-Options", "DENY")
	w.WriteHeader(status)
	if err := consentTemplate.Execute(w, page); err != nil {
		slogx.FromContext(r.Context()).Error("render consent page", "err", err)
	}
}

// HandleGet godoc
//
//	@Summary		Get consent request
//	@Description	Returns what a consent UI needs to render a pending request.
//	@Tags			Consent
//	@Produce		json
//	@Param			id	path		string	true	"Auth request ID"
//	@Success		200	{object}	authsdk.ConsentResponse
//	@Failure		404	{object}	httpx.ErrorBody
//	@Failure		410	{object}	httpx.ErrorBody	"expired or already decided"
//	@Router			/v1/consent/{id} [get]
func (h *ConsentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.Authorize.Consent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ConsentResponse{
		AuthRequestID:     view.Request.ID,
		AgentName:         view.Agent.Name,
		AgentDID:          view.Agent.DID,
		AgentDescription:  view.Agent.Description,
		PrincipalID:       view.Request.PrincipalID,
		Scopes:            nonNil(view.Request.Scopes),
		ScopeDescriptions: scopex.DescribeAll(view.Request.Scopes),
		ExpiresAt:         view.Request.ExpiresAt,
		Status:            string(view.Request.Status),
	})
}

// HandleApprove godoc
//
//	@Summary		Approve consent
//	@Description	Records the principal's approval and returns the exchange code for the redirect.
//	@Tags			Consent
//	@Produce		json
//	@Param			id	path		string	true	"Auth request ID"
//	@Success		200	{object}	authsdk.ConsentApproveResponse
//	@Failure		404	{object}	httpx.ErrorBody
//	@Failure		410	{object}	httpx.ErrorBody	"expired or already decided"
//	@Router			/v1/consent/{id}/approve [post]
func (h *ConsentHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	d, err := h.Authorize.ConsentApprove(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ConsentApproveResponse{
		Code:        d.Code,
		RedirectURI: d.Request.RedirectURI,
		State:       d.Request.State,
	})
}

// HandleDeny godoc
//
//	@Summary	Deny consent
//	@Tags		Consent
//	@Produce	json
//	@Param		id	path		string	true	"Auth request ID"
//	@Success	200	{object}	authsdk.ConsentDenyResponse
//	@Failure	404	{object}	httpx.ErrorBody	"unknown or already decided"
//	@Router		/v1/consent/{id}/deny [post]
func (h *ConsentHandler) HandleDeny(w http.ResponseWriter, r *http.Request) {
	d, err := h.Authorize.ConsentDeny(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ConsentDenyResponse{Status: string(d.Request.Status)})
}
