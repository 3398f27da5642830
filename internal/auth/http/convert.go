package http

import (
	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/service"
	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
)

func developerResponse(d domain.Developer) authsdk.DeveloperResponse {
	return authsdk.DeveloperResponse{
		DeveloperID: d.ID,
		Name:        d.Name,
		Email:       d.Email,
		Mode:        string(d.Mode),
		Plan:        string(d.Plan),
		CreatedAt:   d.CreatedAt,
	}
}

func profileResponse(p service.Profile) authsdk.ProfileResponse {
	return authsdk.ProfileResponse{
		DeveloperResponse: developerResponse(p.Developer),
		Usage: authsdk.Usage{
			Agents:       p.Usage.Agents,
			ActiveGrants: p.Usage.ActiveGrants,
			Policies:     p.Usage.Policies,
			AuditEntries: p.Usage.AuditEntries,
		},
		Limits: authsdk.Limits{
			Agents:       p.Limits.Agents,
			Grants:       p.Limits.Grants,
			Policies:     p.Limits.Policies,
			AuditEntries: p.Limits.AuditEntries,
		},
	}
}

func agentResponse(a domain.Agent) authsdk.AgentResponse {
	return authsdk.AgentResponse{
		AgentID:     a.ID,
		DID:         a.DID,
		DeveloperID: a.DeveloperID,
		Name:        a.Name,
		Description: a.Description,
		Scopes:      nonNil(a.Scopes),
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func grantResponse(g domain.Grant) authsdk.GrantResponse {
	return authsdk.GrantResponse{
		GrantID:         g.ID,
		AgentID:         g.AgentID,
		PrincipalID:     g.PrincipalID,
		DeveloperID:     g.DeveloperID,
		Scopes:          nonNil(g.Scopes),
		Status:          string(g.Status),
		IssuedAt:        g.IssuedAt,
		ExpiresAt:       g.ExpiresAt,
		RevokedAt:       g.RevokedAt,
		ParentGrantID:   g.ParentGrantID,
		DelegationDepth: g.DelegationDepth,
		Audience:        g.Audience,
	}
}

func principalGrantResponse(pg service.PrincipalGrant) authsdk.PrincipalGrantResponse {
	g := pg.Grant
	out := authsdk.PrincipalGrantResponse{
		GrantID:         g.ID,
		AgentID:         g.AgentID,
		Scopes:          nonNil(g.Scopes),
		Status:          string(g.Status),
		IssuedAt:        g.IssuedAt,
		ExpiresAt:       g.ExpiresAt,
		DelegationDepth: g.DelegationDepth,
	}
	if a := pg.Agent; a != nil {
		out.AgentName = a.Name
		out.AgentDescription = a.Description
		out.AgentDID = a.DID
	}
	return out
}

func tokenResponse(ig domain.IssuedGrant) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		GrantToken:   ig.GrantToken,
		ExpiresAt:    ig.Grant.ExpiresAt,
		Scopes:       nonNil(ig.Grant.Scopes),
		RefreshToken: ig.RefreshToken,
		GrantID:      ig.Grant.ID,
	}
}

func policyResponse(p domain.Policy) authsdk.PolicyResponse {
	return authsdk.PolicyResponse{
		PolicyID:       p.ID,
		Name:           p.Name,
		Effect:         string(p.Effect),
		Priority:       p.Priority,
		AgentID:        p.AgentID,
		PrincipalID:    p.PrincipalID,
		Scopes:         p.Scopes,
		TimeOfDayStart: p.TimeStart,
		TimeOfDayEnd:   p.TimeEnd,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func auditResponse(e domain.AuditEntry) authsdk.AuditEntryResponse {
	meta := e.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return authsdk.AuditEntryResponse{
		ID:           e.ID,
		AgentID:      e.AgentID,
		AgentDID:     e.AgentDID,
		GrantID:      e.GrantID,
		PrincipalID:  e.PrincipalID,
		DeveloperID:  e.DeveloperID,
		Action:       e.Action,
		Metadata:     meta,
		Status:       string(e.Status),
		Timestamp:    e.Timestamp,
		Hash:         e.Hash,
		PreviousHash: e.PreviousHash,
	}
}

func mapSlice[T, R any](in []T, f func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}

// nonNil keeps empty lists as [] rather than null on the wire.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
