package httpx

import (
	"net/http"

	"github.com/aussiebroadwan/agentgrant/pkg/slogx"
)

// Error codes carried in the "code" field of every error body.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeGone               = "GONE"
	CodeConflict           = "CONFLICT"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeScopeMissing       = "SCOPE_MISSING"
	CodeConstraintViolated = "CONSTRAINT_VIOLATED"
	CodePolicyDenied       = "POLICY_DENIED"
	CodePlanLimitExceeded  = "PLAN_LIMIT_EXCEEDED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeUpstream           = "UPSTREAM_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// StatusForCode maps an error code onto its HTTP status. Unknown codes are
// treated as internal errors.
func StatusForCode(code string) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeTokenInvalid, CodeTokenExpired:
		return http.StatusUnauthorized
	case CodePlanLimitExceeded:
		return http.StatusPaymentRequired
	case CodeForbidden, CodePolicyDenied, CodeScopeMissing, CodeConstraintViolated:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeGone:
		return http.StatusGone
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUpstream:
		return http.StatusBadGateway
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes an error body, tagging it with the request id that
// slogx.HTTPMiddleware put on the context.
func WriteError(w http.ResponseWriter, r *http.Request, code, message string) {
	body := ErrorBody{Message: message, Code: code}
	if r != nil {
		body.RequestID = slogx.RequestIDFromContext(r.Context())
	}
	WriteJSON(w, StatusForCode(code), body)
}

// CodedError is implemented by errors that know their wire code.
type CodedError interface {
	error
	ErrorCode() string
}
