package authsdk

import (
	"time"

	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
	"github.com/aussiebroadwan/agentgrant/pkg/scopex"
)

// ============================================================================
// Developers
// ============================================================================

// CreateDeveloperRequest is the body of POST /v1/developers.
type CreateDeveloperRequest struct {
	Name  string `json:"name" example:"Acme"`
	Email string `json:"email" example:"ops@acme.example"`
	Mode  string `json:"mode,omitempty" enums:"live,sandbox"`
	Plan  string `json:"plan,omitempty" enums:"free,pro,enterprise"`
}

// DeveloperResponse describes a tenant. Secrets are never included.
type DeveloperResponse struct {
	DeveloperID string    `json:"developerId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Mode        string    `json:"mode"`
	Plan        string    `json:"plan"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateDeveloperResponse carries the API key. It is shown exactly once.
type CreateDeveloperResponse struct {
	DeveloperResponse
	APIKey string `json:"apiKey"`
}

// RotateKeyResponse is returned from POST /v1/keys/rotate.
type RotateKeyResponse struct {
	APIKey    string    `json:"apiKey"`
	RotatedAt time.Time `json:"rotatedAt"`
}

// Usage counts the plan-limited resources a tenant holds.
type Usage struct {
	Agents       int `json:"agents"`
	ActiveGrants int `json:"activeGrants"`
	Policies     int `json:"policies"`
	AuditEntries int `json:"auditEntries"`
}

// Limits are plan ceilings. -1 means unlimited.
type Limits struct {
	Agents       int `json:"agents"`
	Grants       int `json:"grants"`
	Policies     int `json:"policies"`
	AuditEntries int `json:"auditEntries"`
}

// ProfileResponse is returned from GET /v1/me.
type ProfileResponse struct {
	DeveloperResponse
	Usage  Usage  `json:"usage"`
	Limits Limits `json:"limits"`
}

// ============================================================================
// Agents
// ============================================================================

type CreateAgentRequest struct {
	Name        string   `json:"name" example:"inbox-triage"`
	Description string   `json:"description,omitempty"`
	Scopes      []string `json:"scopes,omitempty" example:"email:read,email:archive"`
}

// UpdateAgentRequest is a partial update. Nil fields are left alone.
type UpdateAgentRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Scopes      *[]string `json:"scopes,omitempty"`
	Status      *string   `json:"status,omitempty" enums:"active,suspended"`
}

type AgentResponse struct {
	AgentID     string    `json:"agentId"`
	DID         string    `json:"did" example:"did:agentgrant:ag_01J..."`
	DeveloperID string    `json:"developerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Scopes      []string  `json:"scopes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type AgentListResponse struct {
	Agents []AgentResponse `json:"agents"`
	Total  int             `json:"total"`
}

// ============================================================================
// Authorization & Consent
// ============================================================================

// AuthorizeRequest is the body of POST /v1/authorize.
type AuthorizeRequest struct {
	AgentID             string   `json:"agentId"`
	PrincipalID         string   `json:"principalId"`
	Scopes              []string `json:"scopes"`
	RedirectURI         string   `json:"redirectUri,omitempty"`
	State               string   `json:"state,omitempty"`
	ExpiresIn           string   `json:"expiresIn,omitempty" example:"24h"`
	Audience            string   `json:"audience,omitempty"`
	CodeChallenge       string   `json:"codeChallenge,omitempty"`
	CodeChallengeMethod string   `json:"codeChallengeMethod,omitempty" enums:"S256,plain"`
}

// AuthorizeResponse describes a new authorization request. Code is only
// present when the request was approved without consent, in which case
// exactly one of Sandbox or PolicyEnforced is set.
type AuthorizeResponse struct {
	AuthRequestID  string    `json:"authRequestId"`
	ConsentURL     string    `json:"consentUrl"`
	ExpiresAt      time.Time `json:"expiresAt"`
	Status         string    `json:"status"`
	Code           string    `json:"code,omitempty"`
	Sandbox        bool      `json:"sandbox,omitempty"`
	PolicyEnforced bool      `json:"policyEnforced,omitempty"`
	Effect         string    `json:"effect,omitempty"`
	PolicyID       string    `json:"policyId,omitempty"`
}

// DecisionResponse is returned when a developer approves or denies a request.
type DecisionResponse struct {
	AuthRequestID string `json:"authRequestId"`
	Status        string `json:"status"`
	Code          string `json:"code,omitempty"`
}

// ConsentResponse is what a consent UI needs to render a request.
type ConsentResponse struct {
	AuthRequestID     string            `json:"authRequestId"`
	AgentName         string            `json:"agentName"`
	AgentDID          string            `json:"agentDid"`
	AgentDescription  string            `json:"agentDescription"`
	PrincipalID       string            `json:"principalId"`
	Scopes            []string          `json:"scopes"`
	ScopeDescriptions map[string]string `json:"scopeDescriptions"`
	ExpiresAt         time.Time         `json:"expiresAt"`
	Status            string            `json:"status"`
}

// ConsentApproveResponse hands the exchange code back to the principal's
// browser so it can be forwarded to the redirect URI.
type ConsentApproveResponse struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirectUri,omitempty"`
	State       string `json:"state,omitempty"`
}

type ConsentDenyResponse struct {
	Status string `json:"status"`
}

// ============================================================================
// Tokens
// ============================================================================

// TokenRequest is the body of POST /v1/token.
type TokenRequest struct {
	Code         string `json:"code"`
	AgentID      string `json:"agentId"`
	CodeVerifier string `json:"codeVerifier,omitempty"`
}

// RefreshRequest is the body of POST /v1/token/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	AgentID      string `json:"agentId"`
}

// TokenResponse is returned from exchange, refresh and delegation.
type TokenResponse struct {
	GrantToken   string    `json:"grantToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Scopes       []string  `json:"scopes"`
	RefreshToken string    `json:"refreshToken"`
	GrantID      string    `json:"grantId"`
}

type TokenBody struct {
	Token string `json:"token"`
}

// VerifyResponse is the result of online verification. Everything but
// Valid and Reason is omitted for invalid tokens.
type VerifyResponse struct {
	Valid           bool       `json:"valid"`
	Reason          string     `json:"reason,omitempty" enums:"invalid,expired,revoked,not_found"`
	GrantID         string     `json:"grantId,omitempty"`
	Scopes          []string   `json:"scopes,omitempty"`
	PrincipalID     string     `json:"principalId,omitempty"`
	AgentDID        string     `json:"agentDid,omitempty"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	DelegationDepth *int       `json:"delegationDepth,omitempty"`
}

// IntrospectionResponse follows RFC 7662 with the grant token's private
// claims. Inactive tokens carry only Active.
type IntrospectionResponse struct {
	Active bool     `json:"active"`
	Sub    string   `json:"sub,omitempty"`
	Agt    string   `json:"agt,omitempty"`
	Dev    string   `json:"dev,omitempty"`
	Scp    []string `json:"scp,omitempty"`
	Jti    string   `json:"jti,omitempty"`
	Grnt   string   `json:"grnt,omitempty"`
	Exp    int64    `json:"exp,omitempty"`
	Iat    int64    `json:"iat,omitempty"`
	Iss    string   `json:"iss,omitempty"`
	Aud    []string `json:"aud,omitempty"`
}

// CheckRequest asks whether a token may perform one resource call.
type CheckRequest struct {
	Token  string   `json:"token"`
	Scope  string   `json:"scope" example:"payments:initiate"`
	Value  *float64 `json:"value,omitempty" example:"250"`
	Action string   `json:"action,omitempty" example:"payments.initiate"`
}

type CheckResponse struct {
	Allowed      bool               `json:"allowed"`
	GrantID      string             `json:"grantId"`
	MatchedScope string             `json:"matchedScope"`
	Constraint   *scopex.Constraint `json:"constraint,omitempty"`
}

// ============================================================================
// Grants
// ============================================================================

type DelegateRequest struct {
	ParentGrantToken string   `json:"parentGrantToken"`
	SubAgentID       string   `json:"subAgentId"`
	Scopes           []string `json:"scopes"`
	ExpiresIn        string   `json:"expiresIn,omitempty"`
}

type DelegateResponse struct {
	TokenResponse
	ParentGrantID   string `json:"parentGrantId"`
	DelegationDepth int    `json:"delegationDepth"`
}

type GrantResponse struct {
	GrantID         string     `json:"grantId"`
	AgentID         string     `json:"agentId"`
	PrincipalID     string     `json:"principalId"`
	DeveloperID     string     `json:"developerId"`
	Scopes          []string   `json:"scopes"`
	Status          string     `json:"status"`
	IssuedAt        time.Time  `json:"issuedAt"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	RevokedAt       *time.Time `json:"revokedAt,omitempty"`
	ParentGrantID   string     `json:"parentGrantId,omitempty"`
	DelegationDepth int        `json:"delegationDepth"`
	Audience        string     `json:"audience,omitempty"`
}

type GrantListResponse struct {
	Grants []GrantResponse `json:"grants"`
	Total  int             `json:"total"`
}

// GrantQuery filters GET /v1/grants. Empty fields are ignored.
type GrantQuery struct {
	AgentID     string
	PrincipalID string
	Status      string
}

// ============================================================================
// Principal sessions
// ============================================================================

// CreatePrincipalSessionRequest is the body of POST /v1/principal-sessions.
type CreatePrincipalSessionRequest struct {
	PrincipalID string `json:"principalId" example:"user_42"`
	ExpiresIn   string `json:"expiresIn,omitempty" example:"1h"`
}

type PrincipalSessionResponse struct {
	SessionToken string    `json:"sessionToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// PrincipalGrantResponse is a grant as its principal sees it. The agent
// fields are empty when the agent no longer exists.
type PrincipalGrantResponse struct {
	GrantID          string    `json:"grantId"`
	AgentID          string    `json:"agentId"`
	AgentName        string    `json:"agentName,omitempty"`
	AgentDescription string    `json:"agentDescription,omitempty"`
	AgentDID         string    `json:"agentDid,omitempty"`
	Scopes           []string  `json:"scopes"`
	Status           string    `json:"status"`
	IssuedAt         time.Time `json:"issuedAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
	DelegationDepth  int       `json:"delegationDepth"`
}

type PrincipalGrantListResponse struct {
	PrincipalID string                   `json:"principalId"`
	Grants      []PrincipalGrantResponse `json:"grants"`
}

// ============================================================================
// Policies
// ============================================================================

type CreatePolicyRequest struct {
	Name           string   `json:"name"`
	Effect         string   `json:"effect" enums:"allow,deny"`
	Priority       int      `json:"priority,omitempty"`
	AgentID        *string  `json:"agentId,omitempty"`
	PrincipalID    *string  `json:"principalId,omitempty"`
	Scopes         []string `json:"scopes,omitempty"`
	TimeOfDayStart *string  `json:"timeOfDayStart,omitempty" example:"09:00"`
	TimeOfDayEnd   *string  `json:"timeOfDayEnd,omitempty" example:"17:00"`
}

// PolicyPatch is a JSON merge patch. An absent key keeps the current value
// and an explicit nil clears a filter, so it is a map rather than a struct.
type PolicyPatch map[string]any

type PolicyResponse struct {
	PolicyID       string    `json:"id"`
	Name           string    `json:"name"`
	Effect         string    `json:"effect"`
	Priority       int       `json:"priority"`
	AgentID        *string   `json:"agentId"`
	PrincipalID    *string   `json:"principalId"`
	Scopes         []string  `json:"scopes"`
	TimeOfDayStart *string   `json:"timeOfDayStart"`
	TimeOfDayEnd   *string   `json:"timeOfDayEnd"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// PolicyListResponse lists policies in evaluation order.
type PolicyListResponse struct {
	Policies []PolicyResponse `json:"policies"`
	Total    int              `json:"total"`
}

// ============================================================================
// Audit
// ============================================================================

// AuditLogRequest is an entry submitted by an agent runtime.
type AuditLogRequest struct {
	AgentID     string         `json:"agentId"`
	AgentDID    string         `json:"agentDid"`
	GrantID     string         `json:"grantId"`
	PrincipalID string         `json:"principalId"`
	Action      string         `json:"action"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Status      string         `json:"status,omitempty" enums:"success,failure,blocked"`
}

type AuditEntryResponse struct {
	ID           string         `json:"id"`
	AgentID      string         `json:"agentId"`
	AgentDID     string         `json:"agentDid"`
	GrantID      string         `json:"grantId"`
	PrincipalID  string         `json:"principalId"`
	DeveloperID  string         `json:"developerId"`
	Action       string         `json:"action"`
	Metadata     map[string]any `json:"metadata"`
	Status       string         `json:"status"`
	Timestamp    time.Time      `json:"timestamp"`
	Hash         string         `json:"hash"`
	PreviousHash *string        `json:"previousHash"`
}

type AuditListResponse struct {
	Entries []AuditEntryResponse `json:"entries"`
	Total   int                  `json:"total"`
}

// AuditQuery filters GET /v1/audit/entries. Zero fields are ignored.
type AuditQuery struct {
	AgentID     string
	GrantID     string
	PrincipalID string
	Action      string
	Since       time.Time
	Until       time.Time
	Limit       int
}

// ChainVerificationResponse reports the integrity of a tenant's audit chain.
// CheckedEntries counts the links that verified before the first break.
type ChainVerificationResponse struct {
	Valid          bool    `json:"valid"`
	CheckedEntries int     `json:"checkedEntries"`
	FirstBrokenAt  *string `json:"firstBrokenAt"`
}

// ============================================================================
// Health Check Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the relational store status
	Database string `json:"database"`

	// Denylist indicates the revocation cache status
	Denylist string `json:"denylist"`

	// Signer indicates the JWT signing capability status
	Signer string `json:"signer"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse contains the JSON Web Key Set.
// This is returned from the GET /.well-known/jwks.json endpoint and contains
// public keys used to verify grant token signatures.
type JWKSResponse jwtx.JWKS
