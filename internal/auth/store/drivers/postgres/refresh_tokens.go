package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, grant_id, token_hash, is_used, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.GrantID, t.TokenHash, t.IsUsed, t.ExpiresAt, t.CreatedAt,
	)
	return mapErr(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.QueryRow(ctx, `
		SELECT id, grant_id, token_hash, is_used, expires_at, created_at
		FROM refresh_tokens WHERE token_hash = $1`, hash,
	).Scan(&t.ID, &t.GrantID, &t.TokenHash, &t.IsUsed, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapErr(err)
	}
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func (r *refreshTokensRepo) MarkRefreshTokenUsed(ctx context.Context, id string) (bool, error) {
	return changed(r.db.Exec(ctx,
		`UPDATE refresh_tokens SET is_used = TRUE WHERE id = $1 AND is_used = FALSE`, id))
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	return affected(r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, cutoff))
}
