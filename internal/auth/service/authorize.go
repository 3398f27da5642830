package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/metrics"
	"github.com/aussiebroadwan/agentgrant/internal/auth/policy"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/pkg/cryptox"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/aussiebroadwan/agentgrant/pkg/idx"
	"github.com/aussiebroadwan/agentgrant/pkg/scopex"
	"github.com/aussiebroadwan/agentgrant/pkg/slogx"
)

// AuthorizeService runs the authorization request state machine:
//
//	pending -> approved -> consumed
//	pending -> denied
//
// A request is born approved when the tenant is in sandbox mode or an allow
// policy matches. Approval mints the one-time exchange code; only its
// fingerprint is kept.
type AuthorizeService struct {
	Runtime

	Audit *AuditService

	// PublicURL is the base of consent links handed back to developers.
	PublicURL string
}

type AuthorizeInput struct {
	AgentID             string
	PrincipalID         string
	Scopes              []string
	RedirectURI         string
	State               string
	ExpiresIn           string
	Audience            string
	CodeChallenge       string
	CodeChallengeMethod string
}

// AuthorizeResult carries the request and, on auto-approval, the code.
type AuthorizeResult struct {
	Request    domain.AuthRequest
	ConsentURL string
	Code       string

	// Why the request skipped consent.
	Sandbox bool
	Policy  *domain.Policy
}

// AutoApproved reports whether a code was minted without consent.
func (r AuthorizeResult) AutoApproved() bool { return r.Code != "" }

// Decision is the outcome of approving or denying a pending request.
type Decision struct {
	Request domain.AuthRequest
	Code    string // set on approval only
}

// ConsentView is what the consent page shows the principal.
type ConsentView struct {
	Request domain.AuthRequest
	Agent   domain.Agent
}

// Authorize opens an authorization request for an agent to act for a
// principal.
func (s *AuthorizeService) Authorize(ctx context.Context, developerID string, in AuthorizeInput) (AuthorizeResult, error) {
	scopes := scopex.Normalize(in.Scopes)
	if strings.TrimSpace(in.AgentID) == "" || strings.TrimSpace(in.PrincipalID) == "" || len(scopes) == 0 {
		return AuthorizeResult{}, ErrAuthorizeFields
	}
	for _, sc := range scopes {
		if !scopex.Valid(sc) {
			return AuthorizeResult{}, ErrInvalidScope
		}
	}
	if in.RedirectURI != "" {
		u, err := url.Parse(in.RedirectURI)
		if err != nil || !u.IsAbs() {
			return AuthorizeResult{}, ErrRedirectURIMalformed
		}
	}
	pkce, err := newPKCEBinding(in.CodeChallenge, in.CodeChallengeMethod)
	if err != nil {
		return AuthorizeResult{}, err
	}

	now := s.now()
	ttl := ParseExpiresIn(in.ExpiresIn, fallbackTTL)

	var (
		res       AuthorizeResult
		agent     domain.Agent
		decision  policy.Decision
		evaluated bool
	)
	err = s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		dev, err := tx.Developers().GetDeveloperByID(ctx, developerID)
		if err != nil {
			return err
		}

		agent, err = tx.Agents().GetAgent(ctx, developerID, in.AgentID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && agent.Status != domain.AgentActive) {
			return ErrAgentNotFound
		}
		if err != nil {
			return err
		}
		if len(agent.Scopes) > 0 {
			if excess := scopex.Covered(scopes, agent.Scopes); len(excess) > 0 {
				return Errorf(httpx.CodeBadRequest,
					"Requested scopes exceed the agent's declared scopes: %s", strings.Join(excess, ", "))
			}
		}

		usage, err := tx.Developers().GetUsage(ctx, developerID, now)
		if err != nil {
			return err
		}
		if err := checkLimit(dev.Plan, "active grants", usage.ActiveGrants, LimitsFor(dev.Plan).Grants); err != nil {
			return err
		}

		policies, err := tx.Policies().ListPolicies(ctx, developerID)
		if err != nil {
			return err
		}
		decision = policy.Evaluate(policies, policy.Candidate{
			AgentID:     agent.ID,
			PrincipalID: in.PrincipalID,
			Scopes:      scopes,
		}, now)
		evaluated = true
		if decision.Deny() {
			return ErrPolicyDenied
		}

		req := domain.AuthRequest{
			ID:                  idx.NewPrefixed(idx.PrefixAuthRequest),
			AgentID:             agent.ID,
			PrincipalID:         in.PrincipalID,
			DeveloperID:         developerID,
			Scopes:              scopes,
			RedirectURI:         in.RedirectURI,
			State:               in.State,
			Audience:            in.Audience,
			CodeChallenge:       pkce.Challenge,
			CodeChallengeMethod: pkce.Method,
			GrantTTL:            ttl,
			Status:              domain.AuthRequestPending,
			ExpiresAt:           now.Add(ttl),
			CreatedAt:           now,
		}

		res = AuthorizeResult{Sandbox: dev.IsSandbox()}
		if dev.IsSandbox() || decision.Allow() {
			code, err := cryptox.GenerateToken(cryptox.TokenSize256)
			if err != nil {
				return err
			}
			decidedAt := now
			req.Status = domain.AuthRequestApproved
			req.CodeHash = cryptox.FingerprintToken(code)
			req.DecidedAt = &decidedAt
			res.Code = code
			if decision.Allow() {
				res.Policy = decision.Policy
			}
		}

		if err := tx.AuthRequests().CreateAuthRequest(ctx, req); err != nil {
			return err
		}
		res.Request = req
		return nil
	})

	if evaluated {
		switch {
		case decision.Allow():
			metrics.PolicyDecision(string(domain.EffectAllow))
		case decision.Deny():
			metrics.PolicyDecision(string(domain.EffectDeny))
		default:
			metrics.PolicyDecision("none")
		}
	}

	if errors.Is(err, ErrPolicyDenied) {
		slogx.FromContext(ctx).Info("authorization denied by policy",
			"developer_id", developerID, "agent_id", agent.ID, "policy_id", decision.Policy.ID)
		s.Audit.Record(ctx, domain.AuditEntry{
			DeveloperID: developerID,
			AgentID:     agent.ID,
			AgentDID:    agent.DID,
			PrincipalID: in.PrincipalID,
			Action:      domain.ActionAuthPolicyDenied,
			Status:      domain.AuditBlocked,
			Metadata: map[string]any{
				"policyId":   decision.Policy.ID,
				"policyName": decision.Policy.Name,
				"scopes":     scopes,
			},
		})
		return AuthorizeResult{}, err
	}
	if err != nil {
		return AuthorizeResult{}, err
	}

	res.ConsentURL = s.consentURL(res.Request.ID)
	if res.AutoApproved() {
		meta := map[string]any{"authRequestId": res.Request.ID, "scopes": scopes, "reason": "sandbox"}
		if res.Policy != nil {
			meta["reason"] = "policy"
			meta["policyId"] = res.Policy.ID
		}
		s.Audit.Record(ctx, requestEntry(res.Request, agent.DID, domain.ActionAuthAutoApproved, meta))
	}
	return res, nil
}

func (s *AuthorizeService) consentURL(id string) string {
	return strings.TrimRight(s.PublicURL, "/") + "/consent?req=" + url.QueryEscape(id)
}

// Approve is the developer-side approval of a pending request.
func (s *AuthorizeService) Approve(ctx context.Context, developerID, id string) (Decision, error) {
	return s.approve(ctx, id, developerID, "developer", ErrAuthRequestDecided, ErrAuthRequestDecided)
}

// Deny is the developer-side denial of a pending request.
func (s *AuthorizeService) Deny(ctx context.Context, developerID, id string) (Decision, error) {
	return s.deny(ctx, id, developerID, "developer", ErrAuthRequestDecided)
}

// Consent loads a request for the principal-facing consent page.
func (s *AuthorizeService) Consent(ctx context.Context, id string) (ConsentView, error) {
	now := s.now()
	var view ConsentView
	err := s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		req, err := tx.AuthRequests().GetAuthRequest(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return ErrAuthRequestNotFound
		}
		if err != nil {
			return err
		}
		if req.Status != domain.AuthRequestPending || req.Expired(now) {
			return ErrAuthRequestGone
		}
		agent, err := tx.Agents().GetAgent(ctx, req.DeveloperID, req.AgentID)
		if err != nil {
			return err
		}
		view = ConsentView{Request: req, Agent: agent}
		return nil
	})
	return view, err
}

// ConsentApprove records the principal's approval.
func (s *AuthorizeService) ConsentApprove(ctx context.Context, id string) (Decision, error) {
	return s.approve(ctx, id, "", "consent", ErrAuthRequestNotFound, ErrAuthRequestGone)
}

// ConsentDeny records the principal's refusal.
func (s *AuthorizeService) ConsentDeny(ctx context.Context, id string) (Decision, error) {
	return s.deny(ctx, id, "", "consent", ErrAuthRequestNotFound)
}

// approve moves a request to approved. An empty developerID skips the
// tenant check, for the unauthenticated consent page.
func (s *AuthorizeService) approve(ctx context.Context, id, developerID, via string, missing, stale error) (Decision, error) {
	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return Decision{}, err
	}

	now := s.now()
	var (
		req   domain.AuthRequest
		agent domain.Agent
	)
	err = s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		req, err = tx.AuthRequests().GetAuthRequest(ctx, id)
		if errors.Is(err, store.ErrNotFound) || (err == nil && developerID != "" && req.DeveloperID != developerID) {
			return missing
		}
		if err != nil {
			return err
		}
		ok, err := tx.AuthRequests().ApproveAuthRequest(ctx, id, cryptox.FingerprintToken(code), now)
		if err != nil {
			return err
		}
		if !ok {
			return stale
		}
		agent, err = tx.Agents().GetAgent(ctx, req.DeveloperID, req.AgentID)
		return err
	})
	if err != nil {
		return Decision{}, err
	}

	req.Status = domain.AuthRequestApproved
	req.DecidedAt = &now
	s.Audit.Record(ctx, requestEntry(req, agent.DID, domain.ActionAuthApproved, map[string]any{
		"authRequestId": req.ID,
		"scopes":        req.Scopes,
		"via":           via,
	}))
	return Decision{Request: req, Code: code}, nil
}

func (s *AuthorizeService) deny(ctx context.Context, id, developerID, via string, missing error) (Decision, error) {
	now := s.now()
	var (
		req   domain.AuthRequest
		agent domain.Agent
	)
	err := s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		req, err = tx.AuthRequests().GetAuthRequest(ctx, id)
		if errors.Is(err, store.ErrNotFound) || (err == nil && developerID != "" && req.DeveloperID != developerID) {
			return missing
		}
		if err != nil {
			return err
		}
		ok, err := tx.AuthRequests().DenyAuthRequest(ctx, id, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAuthRequestDecided
		}
		agent, err = tx.Agents().GetAgent(ctx, req.DeveloperID, req.AgentID)
		return err
	})
	if err != nil {
		return Decision{}, err
	}

	req.Status = domain.AuthRequestDenied
	req.DecidedAt = &now
	s.Audit.Record(ctx, requestEntry(req, agent.DID, domain.ActionAuthDenied, map[string]any{
		"authRequestId": req.ID,
		"via":           via,
	}))
	return Decision{Request: req}, nil
}

func requestEntry(r domain.AuthRequest, agentDID, action string, meta map[string]any) domain.AuditEntry {
	return domain.AuditEntry{
		DeveloperID: r.DeveloperID,
		AgentID:     r.AgentID,
		AgentDID:    agentDID,
		PrincipalID: r.PrincipalID,
		Action:      action,
		Metadata:    meta,
	}
}
