package domain

import "time"

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// Policy is a tenant rule consulted before asking a principal for consent.
// Nil filters are unset and match every candidate on that dimension.
type Policy struct {
	ID          string
	DeveloperID string
	Name        string
	Effect      PolicyEffect
	Priority    int
	AgentID     *string
	PrincipalID *string
	Scopes      []string // nil means unset
	TimeStart   *string  // "HH:MM" UTC
	TimeEnd     *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
