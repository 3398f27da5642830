package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type authRequestsRepo struct {
	db dbtx
}

const authRequestColumns = `id, agent_id, principal_id, developer_id, scopes, redirect_uri, state, audience,
	code_challenge, code_challenge_method, code_hash, grant_ttl_ms, status, expires_at, created_at, decided_at`

func (r *authRequestsRepo) CreateAuthRequest(ctx context.Context, a domain.AuthRequest) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO auth_requests (`+authRequestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		a.ID, a.AgentID, a.PrincipalID, a.DeveloperID, nonNil(a.Scopes), a.RedirectURI, a.State, a.Audience,
		a.CodeChallenge, a.CodeChallengeMethod, nullIfEmpty(a.CodeHash), a.GrantTTL.Milliseconds(),
		string(a.Status), a.ExpiresAt, a.CreatedAt, a.DecidedAt,
	)
	return mapErr(err)
}

func (r *authRequestsRepo) GetAuthRequest(ctx context.Context, id string) (domain.AuthRequest, error) {
	return scanAuthRequest(r.db.QueryRow(ctx, `SELECT `+authRequestColumns+` FROM auth_requests WHERE id = $1`, id))
}

func (r *authRequestsRepo) GetAuthRequestByCodeHash(ctx context.Context, developerID, codeHash string) (domain.AuthRequest, error) {
	return scanAuthRequest(r.db.QueryRow(ctx,
		`SELECT `+authRequestColumns+` FROM auth_requests WHERE code_hash = $1 AND developer_id = $2`,
		codeHash, developerID))
}

func (r *authRequestsRepo) ApproveAuthRequest(ctx context.Context, id, codeHash string, now time.Time) (bool, error) {
	return changed(r.db.Exec(ctx, `
		UPDATE auth_requests
		SET status = 'approved', code_hash = $1, decided_at = $2
		WHERE id = $3 AND status = 'pending' AND expires_at > $2`,
		codeHash, now, id,
	))
}

func (r *authRequestsRepo) DenyAuthRequest(ctx context.Context, id string, now time.Time) (bool, error) {
	return changed(r.db.Exec(ctx,
		`UPDATE auth_requests SET status = 'denied', decided_at = $1 WHERE id = $2 AND status = 'pending'`,
		now, id))
}

func (r *authRequestsRepo) ConsumeAuthRequest(ctx context.Context, id string) (bool, error) {
	return changed(r.db.Exec(ctx,
		`UPDATE auth_requests SET status = 'consumed' WHERE id = $1 AND status = 'approved'`, id))
}

func (r *authRequestsRepo) DeleteExpiredAuthRequests(ctx context.Context, cutoff time.Time) (int64, error) {
	return affected(r.db.Exec(ctx, `DELETE FROM auth_requests WHERE expires_at < $1`, cutoff))
}

func scanAuthRequest(row pgx.Row) (domain.AuthRequest, error) {
	var (
		a        domain.AuthRequest
		status   string
		codeHash *string
		ttlMs    int64
	)
	err := row.Scan(
		&a.ID, &a.AgentID, &a.PrincipalID, &a.DeveloperID, &a.Scopes, &a.RedirectURI, &a.State, &a.Audience,
		&a.CodeChallenge, &a.CodeChallengeMethod, &codeHash, &ttlMs, &status, &a.ExpiresAt, &a.CreatedAt, &a.DecidedAt,
	)
	if err != nil {
		return domain.AuthRequest{}, mapErr(err)
	}
	a.Scopes = nonNil(a.Scopes)
	a.CodeHash = deref(codeHash)
	a.GrantTTL = time.Duration(ttlMs) * time.Millisecond
	a.Status = domain.AuthRequestStatus(status)
	a.ExpiresAt = a.ExpiresAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.DecidedAt = utcPtr(a.DecidedAt)
	return a, nil
}
