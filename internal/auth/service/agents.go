package service

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/pkg/idx"
	"github.com/aussiebroadwan/agentgrant/pkg/scopex"
)

// AgentService manages the agents a developer registers.
type AgentService struct {
	Runtime

	// Grants performs the cascade when an agent is revoked.
	Grants *GrantService
}

type CreateAgentInput struct {
	Name        string
	Description string
	Scopes      []string
}

// AgentPatch holds the fields of a partial update. Nil means unchanged.
type AgentPatch struct {
	Name        *string
	Description *string
	Scopes      *[]string
	Status      *domain.AgentStatus
}

func (s *AgentService) Create(ctx context.Context, developerID string, in CreateAgentInput) (domain.Agent, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.Agent{}, ErrAgentName
	}
	scopes, err := declaredScopes(in.Scopes)
	if err != nil {
		return domain.Agent{}, err
	}

	now := s.now()
	id := idx.NewPrefixed(idx.PrefixAgent)
	agent := domain.Agent{
		ID:          id,
		DID:         domain.AgentDID(id),
		DeveloperID: developerID,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Scopes:      scopes,
		Status:      domain.AgentActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		dev, err := tx.Developers().GetDeveloperByID(ctx, developerID)
		if err != nil {
			return err
		}
		usage, err := tx.Developers().GetUsage(ctx, developerID, now)
		if err != nil {
			return err
		}
		if err := checkLimit(dev.Plan, "agents", usage.Agents, LimitsFor(dev.Plan).Agents); err != nil {
			return err
		}
		return tx.Agents().CreateAgent(ctx, agent)
	})
	if err != nil {
		return domain.Agent{}, err
	}
	return agent, nil
}

func (s *AgentService) Get(ctx context.Context, developerID, id string) (domain.Agent, error) {
	a, err := query(ctx, s.Runtime, func(ctx context.Context, st store.Store) (domain.Agent, error) {
		return st.Agents().GetAgent(ctx, developerID, id)
	})
	if errors.Is(err, store.ErrNotFound) {
		return domain.Agent{}, ErrAgentNotFound
	}
	return a, err
}

func (s *AgentService) List(ctx context.Context, developerID string) ([]domain.Agent, error) {
	return query(ctx, s.Runtime, func(ctx context.Context, st store.Store) ([]domain.Agent, error) {
		return st.Agents().ListAgents(ctx, developerID)
	})
}

// Update applies a partial update. Revocation is not reachable from here;
// use Delete.
func (s *AgentService) Update(ctx context.Context, developerID, id string, p AgentPatch) (domain.Agent, error) {
	if p.Name == nil && p.Description == nil && p.Scopes == nil && p.Status == nil {
		return domain.Agent{}, ErrNoFields
	}
	if p.Status != nil && *p.Status != domain.AgentActive && *p.Status != domain.AgentSuspended {
		return domain.Agent{}, ErrAgentStatus
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return domain.Agent{}, ErrAgentName
	}
	var scopes []string
	if p.Scopes != nil {
		var err error
		if scopes, err = declaredScopes(*p.Scopes); err != nil {
			return domain.Agent{}, err
		}
	}

	var agent domain.Agent
	err := s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		agent, err = tx.Agents().GetAgent(ctx, developerID, id)
		if errors.Is(err, store.ErrNotFound) || (err == nil && agent.Status == domain.AgentRevoked) {
			return ErrAgentNotFound
		}
		if err != nil {
			return err
		}

		if p.Name != nil {
			agent.Name = strings.TrimSpace(*p.Name)
		}
		if p.Description != nil {
			agent.Description = strings.TrimSpace(*p.Description)
		}
		if p.Scopes != nil {
			agent.Scopes = scopes
		}
		if p.Status != nil {
			agent.Status = *p.Status
		}
		agent.UpdatedAt = s.now()
		return tx.Agents().UpdateAgent(ctx, agent)
	})
	if err != nil {
		return domain.Agent{}, err
	}
	return agent, nil
}

// Delete soft-revokes an agent and cascade-revokes every active grant it
// holds, together with everything delegated from those grants.
func (s *AgentService) Delete(ctx context.Context, developerID, id string) error {
	now := s.now()
	var rv revocation
	err := s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		agent, err := tx.Agents().GetAgent(ctx, developerID, id)
		if errors.Is(err, store.ErrNotFound) || (err == nil && agent.Status == domain.AgentRevoked) {
			return ErrAgentNotFound
		}
		if err != nil {
			return err
		}

		agent.Status = domain.AgentRevoked
		agent.UpdatedAt = now
		if err := tx.Agents().UpdateAgent(ctx, agent); err != nil {
			return err
		}

		held, err := tx.Grants().ListGrants(ctx, developerID, domain.GrantFilter{
			AgentID: id,
			Status:  domain.GrantActive,
		})
		if err != nil {
			return err
		}
		rv, err = cascade(ctx, tx, held, now)
		return err
	})
	if err != nil {
		return err
	}

	if s.Grants != nil {
		s.Grants.finish(ctx, developerID, rv, map[string]any{"reason": "agent.revoked", "revokedAgentId": id}, now)
	}
	return nil
}

func declaredScopes(in []string) ([]string, error) {
	scopes := scopex.Normalize(in)
	for _, sc := range scopes {
		if !scopex.Valid(sc) {
			return nil, ErrInvalidScope
		}
	}
	return scopes, nil
}
