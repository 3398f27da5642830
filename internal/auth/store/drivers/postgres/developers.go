package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type developersRepo struct {
	db dbtx
}

const developerColumns = `id, name, email, mode, plan, api_key_id, api_key_hash, created_at, updated_at`

func (r *developersRepo) CreateDeveloper(ctx context.Context, d domain.Developer) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO developers (`+developerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.Name, d.Email, string(d.Mode), string(d.Plan), d.APIKeyID, d.APIKeyHash, d.CreatedAt, d.UpdatedAt,
	)
	return mapErr(err)
}

func (r *developersRepo) GetDeveloperByID(ctx context.Context, id string) (domain.Developer, error) {
	return scanDeveloper(r.db.QueryRow(ctx, `SELECT `+developerColumns+` FROM developers WHERE id = $1`, id))
}

func (r *developersRepo) GetDeveloperByAPIKeyID(ctx context.Context, keyID string) (domain.Developer, error) {
	return scanDeveloper(r.db.QueryRow(ctx, `SELECT `+developerColumns+` FROM developers WHERE api_key_id = $1`, keyID))
}

func (r *developersRepo) RotateAPIKey(ctx context.Context, id, keyID, keyHash string, now time.Time) error {
	return requireOne(r.db.Exec(ctx,
		`UPDATE developers SET api_key_id = $1, api_key_hash = $2, updated_at = $3 WHERE id = $4`,
		keyID, keyHash, now, id))
}

func (r *developersRepo) GetUsage(ctx context.Context, developerID string, now time.Time) (domain.Usage, error) {
	var u domain.Usage
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM agents WHERE developer_id = $1 AND status <> 'revoked'),
			(SELECT COUNT(*) FROM grants WHERE developer_id = $1 AND status = 'active' AND expires_at > $2),
			(SELECT COUNT(*) FROM policies WHERE developer_id = $1),
			(SELECT COUNT(*) FROM audit_log WHERE developer_id = $1)`,
		developerID, now,
	).Scan(&u.Agents, &u.ActiveGrants, &u.Policies, &u.AuditEntries)
	if err != nil {
		return domain.Usage{}, mapErr(err)
	}
	return u, nil
}

func scanDeveloper(row pgx.Row) (domain.Developer, error) {
	var (
		d          domain.Developer
		mode, plan string
	)
	err := row.Scan(&d.ID, &d.Name, &d.Email, &mode, &plan, &d.APIKeyID, &d.APIKeyHash, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return domain.Developer{}, mapErr(err)
	}
	d.Mode = domain.DeveloperMode(mode)
	d.Plan = domain.Plan(plan)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return d, nil
}
