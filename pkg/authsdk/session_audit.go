package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// LogAudit appends an entry to the developer's audit chain.
func (s *Session) LogAudit(ctx context.Context, req AuditLogRequest) (*AuditEntryResponse, error) {
	return callJSON[AuditEntryResponse](ctx, s, http.MethodPost, "/v1/audit/log", req, http.StatusCreated)
}

// ListAudit returns entries in chain order, oldest first.
func (s *Session) ListAudit(ctx context.Context, q AuditQuery) (*AuditListResponse, error) {
	v := url.Values{}
	setIf(v, "agentId", q.AgentID)
	setIf(v, "grantId", q.GrantID)
	setIf(v, "principalId", q.PrincipalID)
	setIf(v, "action", q.Action)
	if !q.Since.IsZero() {
		v.Set("since", q.Since.UTC().Format(time.RFC3339))
	}
	if !q.Until.IsZero() {
		v.Set("until", q.Until.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return callJSON[AuditListResponse](ctx, s, http.MethodGet, withQuery("/v1/audit/entries", v), nil, http.StatusOK)
}

func (s *Session) GetAuditEntry(ctx context.Context, id string) (*AuditEntryResponse, error) {
	return callJSON[AuditEntryResponse](ctx, s, http.MethodGet, "/v1/audit/"+url.PathEscape(id), nil, http.StatusOK)
}

// VerifyAuditChain recomputes the developer's hash chain server side.
func (s *Session) VerifyAuditChain(ctx context.Context) (*ChainVerificationResponse, error) {
	return callJSON[ChainVerificationResponse](ctx, s, http.MethodGet, "/v1/audit/verify", nil, http.StatusOK)
}
