package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, grant_id, token_hash, is_used, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.GrantID, t.TokenHash, t.IsUsed, toMillis(t.ExpiresAt), toMillis(t.CreatedAt),
	)
	return mapErr(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(
	ctx context.Context,
	hash string,
) (domain.RefreshToken, error) {
	var (
		t                    domain.RefreshToken
		expiresAt, createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, grant_id, token_hash, is_used, expires_at, created_at
		FROM refresh_tokens WHERE token_hash = ?`, hash,
	).Scan(&t.ID, &t.GrantID, &t.TokenHash, &t.IsUsed, &expiresAt, &createdAt)
	if err != nil {
		return domain.RefreshToken{}, mapErr(err)
	}
	t.ExpiresAt = fromMillis(expiresAt)
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}

func (r *refreshTokensRepo) MarkRefreshTokenUsed(ctx context.Context, id string) (bool, error) {
	return changed(r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET is_used = 1 WHERE id = ? AND is_used = 0`, id))
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	return affected(r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < ?`, toMillis(cutoff)))
}
