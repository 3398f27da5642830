package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type grantTokensRepo struct {
	db dbtx
}

const grantTokenColumns = `jti, grant_id, expires_at, is_revoked, created_at`

func (r *grantTokensRepo) CreateGrantToken(ctx context.Context, t domain.GrantToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO grant_tokens (`+grantTokenColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		t.JTI, t.GrantID, t.ExpiresAt, t.Revoked, t.CreatedAt,
	)
	return mapErr(err)
}

func (r *grantTokensRepo) GetTokenGrant(ctx context.Context, jti string) (domain.TokenGrant, error) {
	var (
		tg     domain.TokenGrant
		status string
		parent *string
	)
	err := r.db.QueryRow(ctx, `
		SELECT t.jti, t.grant_id, t.expires_at, t.is_revoked, t.created_at,
			g.id, g.agent_id, g.principal_id, g.developer_id, g.scopes, g.status, g.issued_at, g.expires_at,
			g.revoked_at, g.parent_grant_id, g.delegation_depth, g.audience
		FROM grant_tokens t
		JOIN grants g ON g.id = t.grant_id
		WHERE t.jti = $1`, jti,
	).Scan(
		&tg.Token.JTI, &tg.Token.GrantID, &tg.Token.ExpiresAt, &tg.Token.Revoked, &tg.Token.CreatedAt,
		&tg.Grant.ID, &tg.Grant.AgentID, &tg.Grant.PrincipalID, &tg.Grant.DeveloperID, &tg.Grant.Scopes, &status,
		&tg.Grant.IssuedAt, &tg.Grant.ExpiresAt, &tg.Grant.RevokedAt, &parent, &tg.Grant.DelegationDepth, &tg.Grant.Audience,
	)
	if err != nil {
		return domain.TokenGrant{}, mapErr(err)
	}
	tg.Token.ExpiresAt = tg.Token.ExpiresAt.UTC()
	tg.Token.CreatedAt = tg.Token.CreatedAt.UTC()
	normalizeGrant(&tg.Grant, status, parent)
	return tg, nil
}

func (r *grantTokensRepo) ListByGrant(ctx context.Context, grantID string) ([]domain.GrantToken, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+grantTokenColumns+` FROM grant_tokens WHERE grant_id = $1 ORDER BY created_at`, grantID)
	return collect(rows, err, scanGrantToken)
}

func (r *grantTokensRepo) RevokeGrantToken(ctx context.Context, developerID, jti string) (domain.GrantToken, error) {
	return scanGrantToken(r.db.QueryRow(ctx, `
		UPDATE grant_tokens SET is_revoked = TRUE
		WHERE jti = $1 AND is_revoked = FALSE AND grant_id IN (SELECT id FROM grants WHERE developer_id = $2)
		RETURNING `+grantTokenColumns, jti, developerID))
}

func (r *grantTokensRepo) DeleteExpiredGrantTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	return affected(r.db.Exec(ctx, `DELETE FROM grant_tokens WHERE expires_at < $1`, cutoff))
}

func scanGrantToken(row pgx.Row) (domain.GrantToken, error) {
	var t domain.GrantToken
	if err := row.Scan(&t.JTI, &t.GrantID, &t.ExpiresAt, &t.Revoked, &t.CreatedAt); err != nil {
		return domain.GrantToken{}, mapErr(err)
	}
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}
