package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/agentgrant/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

// Error codes carried in the "code" field of every error body.
const (
	CodeBadRequest         = httpx.CodeBadRequest
	CodeUnauthorized       = httpx.CodeUnauthorized
	CodeForbidden          = httpx.CodeForbidden
	CodeNotFound           = httpx.CodeNotFound
	CodeGone               = httpx.CodeGone
	CodeConflict           = httpx.CodeConflict
	CodeTokenInvalid       = httpx.CodeTokenInvalid
	CodeTokenExpired       = httpx.CodeTokenExpired
	CodeScopeMissing       = httpx.CodeScopeMissing
	CodeConstraintViolated = httpx.CodeConstraintViolated
	CodePolicyDenied       = httpx.CodePolicyDenied
	CodePlanLimitExceeded  = httpx.CodePlanLimitExceeded
	CodeRateLimited        = httpx.CodeRateLimited
	CodeInternal           = httpx.CodeInternal
	CodeUpstream           = httpx.CodeUpstream
	CodeServiceUnavailable = httpx.CodeServiceUnavailable
)

// StatusForCode maps an error code onto its HTTP status.
func StatusForCode(code string) int { return httpx.StatusForCode(code) }

// ============================================================================
// APIError
// ============================================================================

// APIError is a non-2xx response from the service. Its JSON form is the
// error body every endpoint returns: {message, code, requestId}.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	RequestID  string `json:"requestId,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (request %s)", e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode implements httpx.CodedError, so an APIError surfaced by a
// verifier keeps its code when written back out by middleware.
func (e *APIError) ErrorCode() string { return e.Code }

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *APIError. Bodies that
// are not the standard error shape (a proxy's HTML page, say) still produce
// an error coded from the status.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err == nil && apiErr.Code != "" {
		return apiErr
	}

	apiErr.Code = codeForStatus(resp.StatusCode)
	apiErr.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	apiErr.RequestID = resp.Header.Get("X-Request-ID")
	return apiErr
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusPaymentRequired:
		return CodePlanLimitExceeded
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusGone:
		return CodeGone
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusBadGateway:
		return CodeUpstream
	case http.StatusServiceUnavailable:
		return CodeServiceUnavailable
	default:
		return CodeInternal
	}
}
