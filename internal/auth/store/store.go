package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict reports a transient serialization failure (sqlite BUSY,
	// postgres serialization/deadlock). The operation can be retried.
	ErrConflict = errors.New("store: conflict, retry")

	// ErrNestedTx is returned by Tx and WithTx on a Tx-scoped store.
	ErrNestedTx = errors.New("store: nested transaction")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and so a Tx-scoped store cannot start a nested transaction.
//
// Every tenant-owned lookup takes the developer id, so a foreign id reads as
// ErrNotFound rather than leaking another tenant's record.
type Store interface {
	Developers() Developers
	Agents() Agents
	AuthRequests() AuthRequests
	Grants() Grants
	GrantTokens() GrantTokens
	RefreshTokens() RefreshTokens
	Policies() Policies
	Audit() Audit

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// RunTx begins a transaction on s, runs fn and commits when fn returns nil.
// Drivers implement WithTx with it.
func RunTx(ctx context.Context, s interface {
	Tx(ctx context.Context) (Tx, error)
}, fn func(tx Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Developers interface {
	CreateDeveloper(ctx context.Context, d domain.Developer) error
	GetDeveloperByID(ctx context.Context, id string) (domain.Developer, error)

	// GetDeveloperByAPIKeyID resolves the key id embedded in an API key.
	GetDeveloperByAPIKeyID(ctx context.Context, keyID string) (domain.Developer, error)

	// RotateAPIKey replaces the developer's key; the old key stops working
	// immediately.
	RotateAPIKey(ctx context.Context, id, keyID, keyHash string, now time.Time) error

	// GetUsage counts plan-limited resources. Grants count when active and
	// unexpired at now; agents count unless revoked.
	GetUsage(ctx context.Context, developerID string, now time.Time) (domain.Usage, error)
}

type Agents interface {
	CreateAgent(ctx context.Context, a domain.Agent) error
	GetAgent(ctx context.Context, developerID, id string) (domain.Agent, error)
	ListAgents(ctx context.Context, developerID string) ([]domain.Agent, error)

	// UpdateAgent writes name, description, scopes and status.
	UpdateAgent(ctx context.Context, a domain.Agent) error
}

type AuthRequests interface {
	CreateAuthRequest(ctx context.Context, r domain.AuthRequest) error

	// GetAuthRequest is unscoped: the consent page only knows the id.
	GetAuthRequest(ctx context.Context, id string) (domain.AuthRequest, error)

	GetAuthRequestByCodeHash(ctx context.Context, developerID, codeHash string) (domain.AuthRequest, error)

	// ApproveAuthRequest moves a pending, unexpired request to approved and
	// stores the code fingerprint. Reports false when nothing matched.
	ApproveAuthRequest(ctx context.Context, id, codeHash string, now time.Time) (bool, error)

	// DenyAuthRequest moves a pending request to denied.
	DenyAuthRequest(ctx context.Context, id string, now time.Time) (bool, error)

	// ConsumeAuthRequest moves an approved request to consumed.
	ConsumeAuthRequest(ctx context.Context, id string) (bool, error)

	// DeleteExpiredAuthRequests removes requests that expired before cutoff.
	DeleteExpiredAuthRequests(ctx context.Context, cutoff time.Time) (int64, error)
}

type Grants interface {
	CreateGrant(ctx context.Context, g domain.Grant) error
	GetGrant(ctx context.Context, developerID, id string) (domain.Grant, error)

	// GetGrantForShare reads a grant and holds a shared row lock on it until
	// the transaction ends, so a concurrent RevokeGrant waits for the caller
	// to commit. Drivers whose transactions are already serial read plainly.
	GetGrantForShare(ctx context.Context, developerID, id string) (domain.Grant, error)

	ListGrants(ctx context.Context, developerID string, f domain.GrantFilter) ([]domain.Grant, error)

	// ListActiveChildren returns the active grants delegated directly from parentID.
	ListActiveChildren(ctx context.Context, parentID string) ([]domain.Grant, error)

	// RevokeGrant moves an active grant to revoked. Reports false when the
	// grant was not active.
	RevokeGrant(ctx context.Context, id string, now time.Time) (bool, error)

	// ExpireGrants marks active grants past expiry as expired and returns
	// them with their new status.
	ExpireGrants(ctx context.Context, now time.Time) ([]domain.Grant, error)
}

type GrantTokens interface {
	CreateGrantToken(ctx context.Context, t domain.GrantToken) error

	// GetTokenGrant loads a token row together with its grant.
	GetTokenGrant(ctx context.Context, jti string) (domain.TokenGrant, error)

	// ListByGrant returns every token minted for a grant.
	ListByGrant(ctx context.Context, grantID string) ([]domain.GrantToken, error)

	// RevokeGrantToken flags a single unrevoked token of the tenant as
	// revoked and returns it. ErrNotFound when the jti is unknown, belongs to
	// another tenant, or was already revoked.
	RevokeGrantToken(ctx context.Context, developerID, jti string) (domain.GrantToken, error)

	DeleteExpiredGrantTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// MarkRefreshTokenUsed flips is_used only if it is currently unset, so two
	// concurrent rotations cannot both succeed. Reports false when already used.
	MarkRefreshTokenUsed(ctx context.Context, id string) (bool, error)

	DeleteExpiredRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

type Policies interface {
	CreatePolicy(ctx context.Context, p domain.Policy) error
	GetPolicy(ctx context.Context, developerID, id string) (domain.Policy, error)

	// ListPolicies returns policies in evaluation order: priority descending,
	// then oldest first.
	ListPolicies(ctx context.Context, developerID string) ([]domain.Policy, error)

	UpdatePolicy(ctx context.Context, p domain.Policy) error
	DeletePolicy(ctx context.Context, developerID, id string) error
}

type Audit interface {
	// LockChain serializes appends for one tenant until the transaction
	// ends. Drivers whose transactions are already serial may no-op.
	LockChain(ctx context.Context, developerID string) error

	// LastHash returns the hash of the newest entry, nil for an empty chain.
	LastHash(ctx context.Context, developerID string) (*string, error)

	AppendEntry(ctx context.Context, e domain.AuditEntry) error
	GetEntry(ctx context.Context, developerID, id string) (domain.AuditEntry, error)

	// ListEntries returns entries in chain order (oldest first).
	ListEntries(ctx context.Context, developerID string, f domain.AuditFilter) ([]domain.AuditEntry, error)
}
