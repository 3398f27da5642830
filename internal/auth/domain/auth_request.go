package domain

import "time"

type AuthRequestStatus string

const (
	AuthRequestPending  AuthRequestStatus = "pending"
	AuthRequestApproved AuthRequestStatus = "approved"
	AuthRequestDenied   AuthRequestStatus = "denied"
	AuthRequestConsumed AuthRequestStatus = "consumed"
	AuthRequestExpired  AuthRequestStatus = "expired"
)

// AuthRequest tracks a principal's consent for an agent from creation until
// its exchange code is redeemed.
type AuthRequest struct {
	ID          string
	AgentID     string
	PrincipalID string
	DeveloperID string
	Scopes      []string
	RedirectURI string
	State       string
	Audience    string

	// PKCE, empty when the client registered no challenge.
	CodeChallenge       string
	CodeChallengeMethod string

	// Fingerprint of the one-time exchange code, set only once approved.
	CodeHash string

	// Lifetime the resulting grant will have. Also bounds the request itself.
	GrantTTL time.Duration

	Status    AuthRequestStatus
	ExpiresAt time.Time
	CreatedAt time.Time
	DecidedAt *time.Time
}

// Expired reports whether the request can no longer be acted on at now.
func (r AuthRequest) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
