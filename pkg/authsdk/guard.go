package authsdk

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
	"github.com/aussiebroadwan/agentgrant/pkg/scopex"
)

// DIDPrefix starts every agent DID the control plane issues.
const DIDPrefix = "did:agentgrant:"

// AgentIDFromDID strips DIDPrefix. Foreign DIDs are returned unchanged.
func AgentIDFromDID(did string) string {
	return strings.TrimPrefix(did, DIDPrefix)
}

// GuardEvent describes one guarded call for the audit trail.
type GuardEvent struct {
	Claims jwtx.Claims
	Scope  string
	Value  *float64
	Status string // "success" or "blocked"
	Reason string // error code when blocked
}

// AuditFunc receives guard outcomes. It must not block the caller for long;
// Guard ignores whatever it does with the event.
type AuditFunc func(ctx context.Context, e GuardEvent)

// Guard authorizes resource calls inside a resource adapter: it verifies
// the grant token, finds the granted scope covering the action and enforces
// any numeric constraint on it.
type Guard struct {
	Verifier httpx.GrantVerifier

	// Audit is optional.
	Audit AuditFunc
}

// Decision is a successful guard check.
type Decision struct {
	Claims  jwtx.Claims
	Matched scopex.Scope
}

// Check authorizes one call needing scope. value is the amount the call acts
// on, or nil when the action is not parameterised. Refusals are *APIError
// values coded TOKEN_INVALID, TOKEN_EXPIRED, SCOPE_MISSING or
// CONSTRAINT_VIOLATED.
func (g *Guard) Check(ctx context.Context, token, scope string, value *float64) (Decision, error) {
	claims, err := g.Verifier.VerifyGrant(ctx, token)
	if err != nil {
		var coded httpx.CodedError
		switch {
		case errors.Is(err, jwtx.ErrExpired):
			return Decision{}, guardError(CodeTokenExpired, "grant token has expired")
		case errors.As(err, &coded):
			return Decision{}, err
		default:
			return Decision{}, guardError(CodeTokenInvalid, "grant token is invalid")
		}
	}

	matched, err := scopex.Enforce(claims.Scopes, scope, value)
	if err != nil {
		apiErr := guardError(CodeScopeMissing, "missing required scope: "+scope)
		var cerr *scopex.ConstraintError
		if errors.As(err, &cerr) {
			apiErr = guardError(CodeConstraintViolated, cerr.Error())
		}
		g.report(ctx, GuardEvent{Claims: claims, Scope: scope, Value: value, Status: "blocked", Reason: apiErr.Code})
		return Decision{}, apiErr
	}

	g.report(ctx, GuardEvent{Claims: claims, Scope: scope, Value: value, Status: "success"})
	return Decision{Claims: claims, Matched: matched}, nil
}

func (g *Guard) report(ctx context.Context, e GuardEvent) {
	if g.Audit != nil {
		g.Audit(ctx, e)
	}
}

func guardError(code, msg string) *APIError {
	return &APIError{StatusCode: StatusForCode(code), Code: code, Message: msg}
}

// SessionAudit forwards guard outcomes to the control plane's audit log
// under action. Failures are logged and dropped.
func SessionAudit(s *Session, action string) AuditFunc {
	return func(ctx context.Context, e GuardEvent) {
		meta := map[string]any{"scope": e.Scope}
		if e.Value != nil {
			meta["value"] = *e.Value
		}
		if e.Reason != "" {
			meta["reason"] = e.Reason
		}

		_, err := s.LogAudit(ctx, AuditLogRequest{
			AgentID:     AgentIDFromDID(e.Claims.AgentDID),
			AgentDID:    e.Claims.AgentDID,
			GrantID:     e.Claims.GrantID,
			PrincipalID: e.Claims.Subject,
			Action:      action,
			Metadata:    meta,
			Status:      e.Status,
		})
		if err != nil {
			slog.WarnContext(ctx, "guard audit failed", "grant_id", e.Claims.GrantID, "error", err)
		}
	}
}
