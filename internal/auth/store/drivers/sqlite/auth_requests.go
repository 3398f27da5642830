package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type authRequestsRepo struct {
	db dbtx
}

const authRequestColumns = `id, agent_id, principal_id, developer_id, scopes, redirect_uri, state, audience,
	code_challenge, code_challenge_method, code_hash, grant_ttl_ms, status, expires_at, created_at, decided_at`

func (r *authRequestsRepo) CreateAuthRequest(ctx context.Context, a domain.AuthRequest) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_requests (`+authRequestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.AgentID, a.PrincipalID, a.DeveloperID, joinScopes(a.Scopes), a.RedirectURI, a.State, a.Audience,
		a.CodeChallenge, a.CodeChallengeMethod, mapStringNull(a.CodeHash), a.GrantTTL.Milliseconds(),
		string(a.Status), toMillis(a.ExpiresAt), toMillis(a.CreatedAt), mapOptionalTime(a.DecidedAt),
	)
	return mapErr(err)
}

func (r *authRequestsRepo) GetAuthRequest(ctx context.Context, id string) (domain.AuthRequest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+authRequestColumns+` FROM auth_requests WHERE id = ?`, id)
	return scanAuthRequest(row)
}

func (r *authRequestsRepo) GetAuthRequestByCodeHash(ctx context.Context, developerID, codeHash string) (domain.AuthRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+authRequestColumns+` FROM auth_requests WHERE code_hash = ? AND developer_id = ?`,
		codeHash, developerID)
	return scanAuthRequest(row)
}

func (r *authRequestsRepo) ApproveAuthRequest(ctx context.Context, id, codeHash string, now time.Time) (bool, error) {
	return changed(r.db.ExecContext(ctx, `
		UPDATE auth_requests
		SET status = 'approved', code_hash = ?, decided_at = ?
		WHERE id = ? AND status = 'pending' AND expires_at > ?`,
		codeHash, toMillis(now), id, toMillis(now),
	))
}

func (r *authRequestsRepo) DenyAuthRequest(ctx context.Context, id string, now time.Time) (bool, error) {
	return changed(r.db.ExecContext(ctx, `
		UPDATE auth_requests
		SET status = 'denied', decided_at = ?
		WHERE id = ? AND status = 'pending'`,
		toMillis(now), id,
	))
}

func (r *authRequestsRepo) ConsumeAuthRequest(ctx context.Context, id string) (bool, error) {
	return changed(r.db.ExecContext(ctx,
		`UPDATE auth_requests SET status = 'consumed' WHERE id = ? AND status = 'approved'`, id))
}

func (r *authRequestsRepo) DeleteExpiredAuthRequests(ctx context.Context, cutoff time.Time) (int64, error) {
	return affected(r.db.ExecContext(ctx, `DELETE FROM auth_requests WHERE expires_at < ?`, toMillis(cutoff)))
}

func scanAuthRequest(row scanner) (domain.AuthRequest, error) {
	var (
		a                       domain.AuthRequest
		scopes, status          string
		codeHash                sql.NullString
		ttlMs, expiresAt, createdAt int64
		decidedAt               sql.NullInt64
	)
	err := row.Scan(
		&a.ID, &a.AgentID, &a.PrincipalID, &a.DeveloperID, &scopes, &a.RedirectURI, &a.State, &a.Audience,
		&a.CodeChallenge, &a.CodeChallengeMethod, &codeHash, &ttlMs, &status, &expiresAt, &createdAt, &decidedAt,
	)
	if err != nil {
		return domain.AuthRequest{}, mapErr(err)
	}
	a.Scopes = splitScopes(scopes)
	a.CodeHash = mapNullString(codeHash)
	a.GrantTTL = time.Duration(ttlMs) * time.Millisecond
	a.Status = domain.AuthRequestStatus(status)
	a.ExpiresAt = fromMillis(expiresAt)
	a.CreatedAt = fromMillis(createdAt)
	a.DecidedAt = mapNullTimePtr(decidedAt)
	return a, nil
}
