package http

import (
	"net/http"

	"github.com/aussiebroadwan/agentgrant/internal/auth/service"
	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
)

// TokensHandler serves code exchange, refresh rotation and the online
// verification endpoints resource adapters call.
type TokensHandler struct {
	Tokens *service.TokenService
}

// HandleExchange godoc
//
//	@Summary		Exchange code
//	@Description	Exchanges an approved request's one-time code for a grant token and refresh token.
//	@Tags			Tokens
//	@Accept			json
//	@Produce		json
//	@Security		APIKey
//	@Param			request	body		authsdk.TokenRequest	true	"Code exchange"
//	@Success		201		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Header			201		{string}	Cache-Control	"no-store"
//	@Router			/v1/token [post]
func (h *TokensHandler) HandleExchange(w http.ResponseWriter, r *http.Request) {
	var req authsdk.TokenRequest
	if !decode(w, r, &req) {
		return
	}

	ig, err := h.Tokens.Exchange(r.Context(), developerID(r), service.ExchangeInput{
		Code:         req.Code,
		AgentID:      req.AgentID,
		CodeVerifier: req.CodeVerifier,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tokenResponse(ig))
}

// HandleRefresh godoc
//
//	@Summary		Refresh grant token
//	@Description	Rotates a refresh token. Each refresh token works once; the response carries its successor.
//	@Tags			Tokens
//	@Accept			json
//	@Produce		json
//	@Security		APIKey
//	@Param			request	body		authsdk.RefreshRequest	true	"Refresh"
//	@Success		201		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	httpx.ErrorBody	"used, expired, revoked or agent mismatch"
//	@Router			/v1/token/refresh [post]
func (h *TokensHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if !decode(w, r, &req) {
		return
	}

	ig, err := h.Tokens.Refresh(r.Context(), developerID(r), service.RefreshInput{
		RefreshToken: req.RefreshToken,
		AgentID:      req.AgentID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tokenResponse(ig))
}

// HandleVerify godoc
//
//	@Summary		Verify grant token
//	@Description	Online verification: signature, expiry, denylist and the grant's current state.
//	@Tags			Tokens
//	@Accept			json
//	@Produce		json
//	@Security		APIKey
//	@Param			request	body		authsdk.TokenBody	true	"Token"
//	@Success		200		{object}	authsdk.VerifyResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Router			/v1/tokens/verify [post]
func (h *TokensHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req authsdk.TokenBody
	if !decode(w, r, &req) {
		return
	}

	v, err := h.Tokens.Verify(r.Context(), developerID(r), req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := authsdk.VerifyResponse{Valid: v.Valid, Reason: v.Reason}
	if v.Valid {
		c := v.Claims
		out.GrantID = c.GrantID
		out.Scopes = c.Scopes
		out.PrincipalID = c.Subject
		out.AgentDID = c.AgentDID
		out.DelegationDepth = c.DelegationDepth
		if c.ExpiresAt != nil {
			exp := c.ExpiresAt.UTC()
			out.ExpiresAt = &exp
		}
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleIntrospect godoc
//
//	@Summary		Introspect grant token
//	@Description	RFC 7662 style introspection. Inactive tokens return only {"active": false}.
//	@Tags			Tokens
//	@Accept			json
//	@Produce		json
//	@Security		APIKey
//	@Param			request	body		authsdk.TokenBody	true	"Token"
//	@Success		200		{object}	authsdk.IntrospectionResponse
//	@Router			/v1/tokens/introspect [post]
func (h *TokensHandler) HandleIntrospect(w http.ResponseWriter, r *http.Request) {
	var req authsdk.TokenBody
	if !decode(w, r, &req) {
		return
	}

	v, err := h.Tokens.Introspect(r.Context(), developerID(r), req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !v.Valid {
		httpx.WriteJSON(w, http.StatusOK, authsdk.IntrospectionResponse{Active: false})
		return
	}

	c := v.Claims
	out := authsdk.IntrospectionResponse{
		Active: true,
		Sub:    c.Subject,
		Agt:    c.AgentDID,
		Dev:    c.DeveloperID,
		Scp:    c.Scopes,
		Jti:    c.ID,
		Grnt:   c.GrantID,
		Iss:    c.Issuer,
		Aud:    c.Audience,
	}
	if c.ExpiresAt != nil {
		out.Exp = c.ExpiresAt.Unix()
	}
	if c.IssuedAt != nil {
		out.Iat = c.IssuedAt.Unix()
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCheck godoc
//
//	@Summary		Check a resource call
//	@Description	Verifies the token online, then checks it carries scope and that value fits the scope's constraint.
//	@Description	The decision is written to the audit log whenever the token itself is valid.
//	@Tags			Tokens
//	@Accept			json
//	@Produce		json
//	@Security		APIKey
//	@Param			request	body		authsdk.CheckRequest	true	"Call to authorize"
//	@Success		200		{object}	authsdk.CheckResponse
//	@Failure		401		{object}	httpx.ErrorBody	"TOKEN_INVALID or TOKEN_EXPIRED"
//	@Failure		403		{object}	httpx.ErrorBody	"SCOPE_MISSING or CONSTRAINT_VIOLATED"
//	@Router			/v1/tokens/check [post]
func (h *TokensHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CheckRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.Tokens.Check(r.Context(), developerID(r), service.CheckInput{
		Token:  req.Token,
		Scope:  req.Scope,
		Value:  req.Value,
		Action: req.Action,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.CheckResponse{
		Allowed:      true,
		GrantID:      res.GrantID,
		MatchedScope: res.MatchedScope.Raw,
		Constraint:   res.MatchedScope.Constraint,
	})
}

// HandleRevoke godoc
//
//	@Summary		Revoke token
//	@Description	Revokes a single grant token by id. The grant and its other tokens are unaffected.
//	@Tags			Tokens
//	@Security		APIKey
//	@Param			jti	path	string	true	"Token ID"
//	@Success		204
//	@Failure		404	{object}	httpx.ErrorBody	"unknown or already revoked"
//	@Router			/v1/tokens/{jti} [delete]
func (h *TokensHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := h.Tokens.RevokeToken(r.Context(), developerID(r), r.PathValue("jti")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
