package domain

import "time"

type GrantStatus string

const (
	GrantActive  GrantStatus = "active"
	GrantRevoked GrantStatus = "revoked"
	GrantExpired GrantStatus = "expired"
)

// Grant is the authoritative permission record. Delegated grants point at
// their parent by id; the tree is walked by id lookups, never by reference.
type Grant struct {
	ID              string
	AgentID         string
	PrincipalID     string
	DeveloperID     string
	Scopes          []string
	Status          GrantStatus
	IssuedAt        time.Time
	ExpiresAt       time.Time
	RevokedAt       *time.Time
	ParentGrantID   string // empty for root grants
	DelegationDepth int
	Audience        string // carried into every token minted for the grant
}

// IsActive reports whether the grant is usable at now.
func (g Grant) IsActive(now time.Time) bool {
	return g.Status == GrantActive && now.Before(g.ExpiresAt)
}

// GrantToken records a signed token minted for a grant, keyed by its jti.
type GrantToken struct {
	JTI       string
	GrantID   string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// RefreshToken is a single-use credential tied to a grant. Only the
// fingerprint of the secret is stored.
type RefreshToken struct {
	ID        string
	GrantID   string
	TokenHash string
	IsUsed    bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TokenGrant is a grant token row joined with its grant, the shape online
// verification needs.
type TokenGrant struct {
	Token GrantToken
	Grant Grant
}

// IssuedGrant is what the token engine hands back to callers: the signed
// token plus the secrets that are never stored in the clear.
type IssuedGrant struct {
	Grant        Grant
	GrantToken   string
	RefreshToken string
	TokenID      string
}

// GrantFilter narrows grant listings. Zero fields are ignored.
type GrantFilter struct {
	AgentID     string
	PrincipalID string
	Status      GrantStatus
}
