package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the claims carried by a grant token. Registered claims hold
// iss/sub/aud/exp/iat/jti; the rest are private claims with short names so
// tokens stay compact.
//
// The three delegation claims are only present on delegated grants. A nil
// DelegationDepth means a root grant, which is distinct from depth 0 being
// absent by accident.
type Claims struct {
	jwt.RegisteredClaims

	// Agent DID the grant was issued to.
	AgentDID string `json:"agt"`

	// Tenant (developer) that owns the agent.
	DeveloperID string `json:"dev"`

	// Granted scopes, possibly constrained ("payments:initiate:max_500").
	Scopes []string `json:"scp"`

	// Grant record this token represents.
	GrantID string `json:"grnt"`

	ParentAgentDID  string `json:"parentAgt,omitempty"`
	ParentGrantID   string `json:"parentGrnt,omitempty"`
	DelegationDepth *int   `json:"delegationDepth,omitempty"`

	// Kind is empty on grant tokens.
	Kind string `json:"knd,omitempty"`
}

// KindPrincipalSession marks a token that lets a principal list and revoke
// their own grants. It carries no scopes and never passes as a grant token.
const KindPrincipalSession = "principal_session"

// GrantClaimsParams collects what the token engine knows when it mints a
// token. ExpiresAt is absolute because a token never outlives its grant.
type GrantClaimsParams struct {
	Issuer      string
	PrincipalID string
	AgentDID    string
	DeveloperID string
	Scopes      []string
	TokenID     string
	GrantID     string
	Audience    string
	IssuedAt    time.Time
	ExpiresAt   time.Time

	// Delegation, only set for child grants.
	ParentAgentDID string
	ParentGrantID  string
	Depth          int
}

// NewGrantClaims builds claims for a grant token.
func NewGrantClaims(p GrantClaimsParams) Claims {
	c := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.Issuer,
			Subject:   p.PrincipalID,
			IssuedAt:  jwt.NewNumericDate(p.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
			ID:        p.TokenID,
		},
		AgentDID:    p.AgentDID,
		DeveloperID: p.DeveloperID,
		Scopes:      p.Scopes,
		GrantID:     p.GrantID,
	}
	if p.Audience != "" {
		c.Audience = jwt.ClaimStrings{p.Audience}
	}
	if p.ParentGrantID != "" {
		depth := p.Depth
		c.ParentAgentDID = p.ParentAgentDID
		c.ParentGrantID = p.ParentGrantID
		c.DelegationDepth = &depth
	}
	return c
}

// NewPrincipalSessionClaims builds claims for a principal session token.
func NewPrincipalSessionClaims(issuer, developerID, principalID, id string, issuedAt, expiresAt time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        id,
		},
		DeveloperID: developerID,
		Kind:        KindPrincipalSession,
	}
}

// Depth returns the delegation depth, 0 for root grants.
func (c *Claims) Depth() int {
	if c.DelegationDepth == nil {
		return 0
	}
	return *c.DelegationDepth
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry checks exp (and nbf when present) with a small allowance
// for clock skew between the issuer and the verifier.
func (c *Claims) ValidateExpiry(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}

// ValidateShape rejects tokens that verify cryptographically but are missing
// the claims every grant token must carry.
func (c *Claims) ValidateShape() error {
	if c.Kind != "" || c.ID == "" || c.GrantID == "" || c.Subject == "" || c.DeveloperID == "" || c.Scopes == nil {
		return ErrInvalidClaim
	}
	if (c.ParentGrantID == "") != (c.DelegationDepth == nil) {
		return ErrInvalidClaim
	}
	return nil
}

// ValidateSessionShape is ValidateShape for principal session tokens.
func (c *Claims) ValidateSessionShape() error {
	if c.Kind != KindPrincipalSession || c.ID == "" || c.Subject == "" || c.DeveloperID == "" {
		return ErrInvalidClaim
	}
	if c.GrantID != "" || c.Scopes != nil {
		return ErrInvalidClaim
	}
	return nil
}
