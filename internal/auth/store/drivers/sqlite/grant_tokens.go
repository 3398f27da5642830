package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type grantTokensRepo struct {
	db dbtx
}

func (r *grantTokensRepo) CreateGrantToken(ctx context.Context, t domain.GrantToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO grant_tokens (jti, grant_id, expires_at, is_revoked, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.JTI, t.GrantID, toMillis(t.ExpiresAt), t.Revoked, toMillis(t.CreatedAt),
	)
	return mapErr(err)
}

func (r *grantTokensRepo) GetTokenGrant(ctx context.Context, jti string) (domain.TokenGrant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT t.jti, t.grant_id, t.expires_at, t.is_revoked, t.created_at,
			g.id, g.agent_id, g.principal_id, g.developer_id, g.scopes, g.status, g.issued_at, g.expires_at,
			g.revoked_at, g.parent_grant_id, g.delegation_depth, g.audience
		FROM grant_tokens t
		JOIN grants g ON g.id = t.grant_id
		WHERE t.jti = ?`, jti)

	var (
		tok                  domain.GrantToken
		expiresAt, createdAt int64
	)
	joined := &prefixScanner{row: row, prefix: []any{&tok.JTI, &tok.GrantID, &expiresAt, &tok.Revoked, &createdAt}}
	g, err := scanGrant(joined)
	if err != nil {
		return domain.TokenGrant{}, err
	}
	tok.ExpiresAt = fromMillis(expiresAt)
	tok.CreatedAt = fromMillis(createdAt)
	return domain.TokenGrant{Token: tok, Grant: g}, nil
}

func (r *grantTokensRepo) ListByGrant(ctx context.Context, grantID string) ([]domain.GrantToken, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT jti, grant_id, expires_at, is_revoked, created_at
		FROM grant_tokens WHERE grant_id = ? ORDER BY created_at`, grantID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []domain.GrantToken{}
	for rows.Next() {
		t, err := scanGrantToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, mapErr(rows.Err())
}

func (r *grantTokensRepo) RevokeGrantToken(ctx context.Context, developerID, jti string) (domain.GrantToken, error) {
	err := requireOne(r.db.ExecContext(ctx, `
		UPDATE grant_tokens SET is_revoked = 1
		WHERE jti = ? AND is_revoked = 0 AND grant_id IN (SELECT id FROM grants WHERE developer_id = ?)`,
		jti, developerID))
	if err != nil {
		return domain.GrantToken{}, err
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT jti, grant_id, expires_at, is_revoked, created_at FROM grant_tokens WHERE jti = ?`, jti)
	return scanGrantToken(row)
}

func (r *grantTokensRepo) DeleteExpiredGrantTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	return affected(r.db.ExecContext(ctx, `DELETE FROM grant_tokens WHERE expires_at < ?`, toMillis(cutoff)))
}

func scanGrantToken(row scanner) (domain.GrantToken, error) {
	var (
		t                    domain.GrantToken
		expiresAt, createdAt int64
	)
	if err := row.Scan(&t.JTI, &t.GrantID, &expiresAt, &t.Revoked, &createdAt); err != nil {
		return domain.GrantToken{}, mapErr(err)
	}
	t.ExpiresAt = fromMillis(expiresAt)
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}

// prefixScanner lets a joined row reuse a single-table scan function by
// scanning extra leading columns into prefix first.
type prefixScanner struct {
	row    scanner
	prefix []any
}

func (p *prefixScanner) Scan(dest ...any) error {
	return p.row.Scan(append(append([]any{}, p.prefix...), dest...)...)
}
