package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
)

// Error is a failure the caller can act on. Code is one of the httpx.Code*
// values and decides the HTTP status; Message is safe to show to clients.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string     { return e.Message }
func (e *Error) ErrorCode() string { return e.Code }

// Errorf builds an Error with a formatted message.
func Errorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func badRequest(msg string) *Error { return &Error{Code: httpx.CodeBadRequest, Message: msg} }
func notFound(msg string) *Error   { return &Error{Code: httpx.CodeNotFound, Message: msg} }

var (
	ErrUnauthorized    = &Error{Code: httpx.CodeUnauthorized, Message: "Invalid API key"}
	ErrUnavailable     = &Error{Code: httpx.CodeServiceUnavailable, Message: "Store temporarily unavailable"}
	ErrEmailTaken      = &Error{Code: httpx.CodeConflict, Message: "A developer with this email already exists"}
	ErrAgentNotFound   = notFound("Agent not found")
	ErrSubAgentMissing = notFound("Sub-agent not found")
	ErrPolicyNotFound  = notFound("Policy not found")
	ErrGrantNotFound   = notFound("Grant not found")
	ErrAuditNotFound   = notFound("Audit entry not found")
	ErrTokenNotFound   = notFound("Token not found or already revoked")

	// Authorization requests.
	ErrAuthRequestNotFound  = notFound("Auth request not found")
	ErrAuthRequestDecided   = notFound("Auth request not found or already processed")
	ErrAuthRequestGone      = &Error{Code: httpx.CodeGone, Message: "Auth request expired or already processed"}
	ErrPolicyDenied         = &Error{Code: httpx.CodePolicyDenied, Message: "Authorization denied by policy"}
	ErrAuthorizeFields      = badRequest("agentId, principalId, and scopes are required")
	ErrPKCEMethod           = badRequest("codeChallengeMethod must be S256 or plain")
	ErrInvalidScope         = badRequest("scopes must be non-empty and contain no whitespace")
	ErrRedirectURIMalformed = badRequest("redirectUri must be an absolute URL")

	// Exchange and refresh.
	ErrExchangeFields     = badRequest("code and agentId are required")
	ErrInvalidCode        = badRequest("Invalid code")
	ErrCodeNotApproved    = badRequest("Auth request not approved")
	ErrCodeUsed           = badRequest("Code already used")
	ErrCodeExpired        = badRequest("Auth request expired")
	ErrVerifierRequired   = badRequest("codeVerifier is required")
	ErrVerifierMismatch   = badRequest("Invalid codeVerifier")
	ErrAgentInactive      = badRequest("Agent is not active")
	ErrRefreshFields      = badRequest("refreshToken and agentId are required")
	ErrInvalidRefresh     = badRequest("Invalid refresh token")
	ErrRefreshUsed        = badRequest("Refresh token already used")
	ErrRefreshExpired     = badRequest("Refresh token expired")
	ErrRefreshAgent       = badRequest("Agent mismatch")
	ErrGrantRevoked       = badRequest("Grant has been revoked")
	ErrGrantExpired       = badRequest("Grant has expired")
	ErrDelegateFields     = badRequest("parentGrantToken, subAgentId, and scopes are required")
	ErrInvalidParent      = badRequest("Invalid parentGrantToken")
	ErrParentRevoked      = badRequest("Parent grant has been revoked")
	ErrParentInactive     = badRequest("Parent grant is not active")
	ErrDepthExceeded      = badRequest("delegation depth exceeded")
	ErrTokenRequired      = badRequest("token is required")
	ErrCheckFields        = badRequest("token and scope are required")
	ErrTokenInvalid       = &Error{Code: httpx.CodeTokenInvalid, Message: "Token is invalid"}
	ErrTokenExpired       = &Error{Code: httpx.CodeTokenExpired, Message: "Token has expired"}
	ErrTokenRevoked       = &Error{Code: httpx.CodeTokenInvalid, Message: "Token has been revoked"}
	ErrDeveloperFields    = badRequest("name and email are required")
	ErrDeveloperMode      = badRequest("mode must be live or sandbox")
	ErrDeveloperPlan      = badRequest("plan must be free, pro or enterprise")
	ErrAgentName          = badRequest("name is required")
	ErrNoFields           = badRequest("No fields to update")
	ErrAgentStatus        = badRequest("status must be active or suspended")
	ErrPolicyFields       = badRequest("name and effect (allow|deny) are required")
	ErrPolicyEffect       = badRequest("effect must be allow or deny")
	ErrAuditFields        = badRequest("agentId, agentDid, grantId, principalId, and action are required")
	ErrAuditStatus        = badRequest("status must be success, failure or blocked")
	ErrBootstrapDisabled  = &Error{Code: httpx.CodeServiceUnavailable, Message: "Developer signup is not configured"}
	ErrBootstrapMismatch  = &Error{Code: httpx.CodeUnauthorized, Message: "Invalid bootstrap token"}
	ErrKeysNotReady       = &Error{Code: httpx.CodeServiceUnavailable, Message: "Signing keys are not loaded"}

	// Principal sessions.
	ErrPrincipalFields = badRequest("principalId is required")
	ErrSessionExpiry   = badRequest(`Invalid expiresIn format. Use e.g. "1h", "30m", "24h".`)
	ErrNoActiveGrants  = notFound("No active grants found for this principal")
	ErrSessionInvalid  = &Error{Code: httpx.CodeUnauthorized, Message: "Invalid or expired session token"}
)

// storeErr translates infrastructure failures into service errors. Errors
// that already carry a code pass through unchanged.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, store.ErrConflict) {
		return ErrUnavailable
	}
	return err
}
