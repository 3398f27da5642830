package http

import (
	"net/http"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/service"
	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
)

// AgentsHandler serves agent registration for the calling tenant.
type AgentsHandler struct {
	Agents *service.AgentService
}

// HandleCreate godoc
//
//	@Summary		Register agent
//	@Description	Registers an agent and assigns it a DID. Scopes, when given, cap what the agent may ever be granted.
//	@Tags			Agents
//	@Accept			json
//	@Produce		json
//	@Security		APIKey
//	@Param			request	body		authsdk.CreateAgentRequest	true	"Agent"
//	@Success		201		{object}	authsdk.AgentResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		402		{object}	httpx.ErrorBody	"plan limit"
//	@Router			/v1/agents [post]
func (h *AgentsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreateAgentRequest
	if !decode(w, r, &req) {
		return
	}

	agent, err := h.Agents.Create(r.Context(), developerID(r), service.CreateAgentInput{
		Name:        req.Name,
		Description: req.Description,
		Scopes:      req.Scopes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, agentResponse(agent))
}

// HandleList godoc
//
//	@Summary	List agents
//	@Tags		Agents
//	@Produce	json
//	@Security	APIKey
//	@Success	200	{object}	authsdk.AgentListResponse
//	@Router		/v1/agents [get]
func (h *AgentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Agents.List(r.Context(), developerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.AgentListResponse{
		Agents: mapSlice(agents, agentResponse),
		Total:  len(agents),
	})
}

// HandleGet godoc
//
//	@Summary	Get agent
//	@Tags		Agents
//	@Produce	json
//	@Security	APIKey
//	@Param		id	path		string	true	"Agent ID"
//	@Success	200	{object}	authsdk.AgentResponse
//	@Failure	404	{object}	httpx.ErrorBody
//	@Router		/v1/agents/{id} [get]
func (h *AgentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	agent, err := h.Agents.Get(r.Context(), developerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, agentResponse(agent))
}

// HandleUpdate godoc
//
//	@Summary		Update agent
//	@Description	Partial update. Status may be set to active or suspended; use DELETE to revoke.
//	@Tags			Agents
//	@Accept			json
//	@Produce		json
//	@Security		APIKey
//	@Param			id		path		string						true	"Agent ID"
//	@Param			request	body		authsdk.UpdateAgentRequest	true	"Fields to change"
//	@Success		200		{object}	authsdk.AgentResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		404		{object}	httpx.ErrorBody
//	@Router			/v1/agents/{id} [patch]
func (h *AgentsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.UpdateAgentRequest
	if !decode(w, r, &req) {
		return
	}

	patch := service.AgentPatch{
		Name:        req.Name,
		Description: req.Description,
		Scopes:      req.Scopes,
	}
	if req.Status != nil {
		st := domain.AgentStatus(*req.Status)
		patch.Status = &st
	}

	agent, err := h.Agents.Update(r.Context(), developerID(r), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, agentResponse(agent))
}

// HandleDelete godoc
//
//	@Summary		Revoke agent
//	@Description	Marks the agent revoked and cascades revocation to every active grant it holds.
//	@Tags			Agents
//	@Security		APIKey
//	@Param			id	path	string	true	"Agent ID"
//	@Success		204
//	@Failure		404	{object}	httpx.ErrorBody
//	@Router			/v1/agents/{id} [delete]
func (h *AgentsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Agents.Delete(r.Context(), developerID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
