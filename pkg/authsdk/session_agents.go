package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// RegisterAgent creates an agent identity.
func (s *Session) RegisterAgent(ctx context.Context, req CreateAgentRequest) (*AgentResponse, error) {
	return callJSON[AgentResponse](ctx, s, http.MethodPost, "/v1/agents", req, http.StatusCreated)
}

func (s *Session) ListAgents(ctx context.Context) (*AgentListResponse, error) {
	return callJSON[AgentListResponse](ctx, s, http.MethodGet, "/v1/agents", nil, http.StatusOK)
}

func (s *Session) GetAgent(ctx context.Context, agentID string) (*AgentResponse, error) {
	return callJSON[AgentResponse](ctx, s, http.MethodGet, "/v1/agents/"+url.PathEscape(agentID), nil, http.StatusOK)
}

func (s *Session) UpdateAgent(ctx context.Context, agentID string, req UpdateAgentRequest) (*AgentResponse, error) {
	return callJSON[AgentResponse](ctx, s, http.MethodPatch, "/v1/agents/"+url.PathEscape(agentID), req, http.StatusOK)
}

// RevokeAgent soft-deletes an agent and revokes every grant it holds,
// including grants delegated from them.
func (s *Session) RevokeAgent(ctx context.Context, agentID string) error {
	return s.del(ctx, "/v1/agents/"+url.PathEscape(agentID))
}
