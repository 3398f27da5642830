package domain

import "time"

type AuditStatus string

const (
	AuditSuccess AuditStatus = "success"
	AuditFailure AuditStatus = "failure"
	AuditBlocked AuditStatus = "blocked"
)

// Actions the service itself records.
const (
	ActionAuthApproved     = "authorization.approved"
	ActionAuthDenied       = "authorization.denied"
	ActionAuthAutoApproved = "authorization.auto_approved"
	ActionAuthPolicyDenied = "authorization.policy_denied"
	ActionGrantIssued      = "grant.issued"
	ActionGrantRefreshed   = "grant.refreshed"
	ActionGrantDelegated   = "grant.delegated"
	ActionGrantRevoked     = "grant.revoked"
	ActionGrantExpired     = "grant.expired"
	ActionTokenRevoked     = "token.revoked"
	ActionTokenCheck       = "token.check"
)

// AuditEntry is one link in a tenant's hash chain. Entries are append-only.
type AuditEntry struct {
	ID           string
	DeveloperID  string
	AgentID      string
	AgentDID     string
	GrantID      string
	PrincipalID  string
	Action       string
	Metadata     map[string]any
	Status       AuditStatus
	Timestamp    time.Time
	Hash         string
	PreviousHash *string
}

// AuditFilter narrows audit listings. Zero fields are ignored.
type AuditFilter struct {
	AgentID     string
	GrantID     string
	PrincipalID string
	Action      string
	Since       time.Time
	Until       time.Time
	Limit       int
}

// ChainVerification is the result of walking a tenant's chain.
type ChainVerification struct {
	Valid         bool
	Checked       int
	FirstBrokenAt *string
}
