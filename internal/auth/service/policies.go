package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/policy"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/aussiebroadwan/agentgrant/pkg/idx"
	"github.com/aussiebroadwan/agentgrant/pkg/scopex"
)

// Field is one member of a JSON merge patch. Set reports that the key was
// present; a nil Value with Set true is an explicit null.
type Field[T any] struct {
	Set   bool
	Value *T
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

// PolicyService manages tenant policies.
type PolicyService struct {
	Runtime
}

type PolicyInput struct {
	Name        string
	Effect      domain.PolicyEffect
	Priority    int
	AgentID     *string
	PrincipalID *string
	Scopes      []string // nil leaves the filter unset
	TimeStart   *string
	TimeEnd     *string
}

// PolicyPatch distinguishes "clear this filter" (explicit null) from
// "leave it alone" (absent).
type PolicyPatch struct {
	Name        Field[string]              `json:"name"`
	Effect      Field[domain.PolicyEffect] `json:"effect"`
	Priority    Field[int]                 `json:"priority"`
	AgentID     Field[string]              `json:"agentId"`
	PrincipalID Field[string]              `json:"principalId"`
	Scopes      Field[[]string]            `json:"scopes"`
	TimeStart   Field[string]              `json:"timeOfDayStart"`
	TimeEnd     Field[string]              `json:"timeOfDayEnd"`
}

func (p PolicyPatch) empty() bool {
	return !p.Name.Set && !p.Effect.Set && !p.Priority.Set && !p.AgentID.Set &&
		!p.PrincipalID.Set && !p.Scopes.Set && !p.TimeStart.Set && !p.TimeEnd.Set
}

func (s *PolicyService) Create(ctx context.Context, developerID string, in PolicyInput) (domain.Policy, error) {
	now := s.now()
	p := domain.Policy{
		ID:          idx.NewPrefixed(idx.PrefixPolicy),
		DeveloperID: developerID,
		Name:        strings.TrimSpace(in.Name),
		Effect:      in.Effect,
		Priority:    in.Priority,
		AgentID:     blankToNil(in.AgentID),
		PrincipalID: blankToNil(in.PrincipalID),
		TimeStart:   blankToNil(in.TimeStart),
		TimeEnd:     blankToNil(in.TimeEnd),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Name == "" || p.Effect == "" {
		return domain.Policy{}, ErrPolicyFields
	}
	if in.Scopes != nil {
		p.Scopes = scopex.Normalize(in.Scopes)
	}
	if err := validatePolicy(p); err != nil {
		return domain.Policy{}, err
	}

	err := s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		dev, err := tx.Developers().GetDeveloperByID(ctx, developerID)
		if err != nil {
			return err
		}
		usage, err := tx.Developers().GetUsage(ctx, developerID, now)
		if err != nil {
			return err
		}
		if err := checkLimit(dev.Plan, "policies", usage.Policies, LimitsFor(dev.Plan).Policies); err != nil {
			return err
		}
		return tx.Policies().CreatePolicy(ctx, p)
	})
	if err != nil {
		return domain.Policy{}, err
	}
	return p, nil
}

// List returns policies in evaluation order.
func (s *PolicyService) List(ctx context.Context, developerID string) ([]domain.Policy, error) {
	return query(ctx, s.Runtime, func(ctx context.Context, st store.Store) ([]domain.Policy, error) {
		return st.Policies().ListPolicies(ctx, developerID)
	})
}

func (s *PolicyService) Get(ctx context.Context, developerID, id string) (domain.Policy, error) {
	p, err := query(ctx, s.Runtime, func(ctx context.Context, st store.Store) (domain.Policy, error) {
		return st.Policies().GetPolicy(ctx, developerID, id)
	})
	if errors.Is(err, store.ErrNotFound) {
		return domain.Policy{}, ErrPolicyNotFound
	}
	return p, err
}

func (s *PolicyService) Update(ctx context.Context, developerID, id string, patch PolicyPatch) (domain.Policy, error) {
	if patch.empty() {
		return domain.Policy{}, ErrNoFields
	}

	var p domain.Policy
	err := s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		p, err = tx.Policies().GetPolicy(ctx, developerID, id)
		if errors.Is(err, store.ErrNotFound) {
			return ErrPolicyNotFound
		}
		if err != nil {
			return err
		}

		if patch.Name.Set {
			if patch.Name.Value == nil || strings.TrimSpace(*patch.Name.Value) == "" {
				return ErrPolicyFields
			}
			p.Name = strings.TrimSpace(*patch.Name.Value)
		}
		if patch.Effect.Set {
			if patch.Effect.Value == nil {
				return ErrPolicyEffect
			}
			p.Effect = *patch.Effect.Value
		}
		if patch.Priority.Set {
			p.Priority = 0
			if patch.Priority.Value != nil {
				p.Priority = *patch.Priority.Value
			}
		}
		if patch.AgentID.Set {
			p.AgentID = blankToNil(patch.AgentID.Value)
		}
		if patch.PrincipalID.Set {
			p.PrincipalID = blankToNil(patch.PrincipalID.Value)
		}
		if patch.Scopes.Set {
			p.Scopes = nil
			if patch.Scopes.Value != nil {
				p.Scopes = scopex.Normalize(*patch.Scopes.Value)
			}
		}
		if patch.TimeStart.Set {
			p.TimeStart = blankToNil(patch.TimeStart.Value)
		}
		if patch.TimeEnd.Set {
			p.TimeEnd = blankToNil(patch.TimeEnd.Value)
		}
		if err := validatePolicy(p); err != nil {
			return err
		}

		p.UpdatedAt = s.now()
		return tx.Policies().UpdatePolicy(ctx, p)
	})
	if err != nil {
		return domain.Policy{}, err
	}
	return p, nil
}

func (s *PolicyService) Delete(ctx context.Context, developerID, id string) error {
	err := s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Policies().DeletePolicy(ctx, developerID, id)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrPolicyNotFound
	}
	return err
}

func validatePolicy(p domain.Policy) error {
	if p.Effect != domain.EffectAllow && p.Effect != domain.EffectDeny {
		return ErrPolicyEffect
	}
	for _, sc := range p.Scopes {
		if !scopex.Valid(sc) {
			return ErrInvalidScope
		}
	}
	if err := policy.ValidateWindow(p.TimeStart, p.TimeEnd); err != nil {
		return Errorf(httpx.CodeBadRequest, "%s", err.Error())
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
