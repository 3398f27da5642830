package domain

import "time"

// DeveloperMode controls whether authorization requests need a principal.
type DeveloperMode string

const (
	ModeLive    DeveloperMode = "live"
	ModeSandbox DeveloperMode = "sandbox"
)

// Plan selects the resource ceilings a tenant operates under.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Developer is a tenant. Every other record is scoped to one.
type Developer struct {
	ID         string
	Name       string
	Email      string
	Mode       DeveloperMode
	Plan       Plan
	APIKeyID   string
	APIKeyHash string // argon2id PHC string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsSandbox reports whether authorization requests are auto-approved.
func (d Developer) IsSandbox() bool { return d.Mode == ModeSandbox }

// Usage is a point-in-time count of a tenant's plan-limited resources.
type Usage struct {
	Agents       int
	ActiveGrants int
	Policies     int
	AuditEntries int
}
