package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type developersRepo struct {
	db dbtx
}

const developerColumns = `id, name, email, mode, plan, api_key_id, api_key_hash, created_at, updated_at`

func (r *developersRepo) CreateDeveloper(ctx context.Context, d domain.Developer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO developers (`+developerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Email, string(d.Mode), string(d.Plan), d.APIKeyID, d.APIKeyHash,
		toMillis(d.CreatedAt), toMillis(d.UpdatedAt),
	)
	return mapErr(err)
}

func (r *developersRepo) GetDeveloperByID(ctx context.Context, id string) (domain.Developer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+developerColumns+` FROM developers WHERE id = ?`, id)
	return scanDeveloper(row)
}

func (r *developersRepo) GetDeveloperByAPIKeyID(ctx context.Context, keyID string) (domain.Developer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+developerColumns+` FROM developers WHERE api_key_id = ?`, keyID)
	return scanDeveloper(row)
}

func (r *developersRepo) RotateAPIKey(ctx context.Context, id, keyID, keyHash string, now time.Time) error {
	return requireOne(r.db.ExecContext(ctx,
		`UPDATE developers SET api_key_id = ?, api_key_hash = ?, updated_at = ? WHERE id = ?`,
		keyID, keyHash, toMillis(now), id))
}

func (r *developersRepo) GetUsage(ctx context.Context, developerID string, now time.Time) (domain.Usage, error) {
	var u domain.Usage
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM agents WHERE developer_id = ?1 AND status != 'revoked'),
			(SELECT COUNT(*) FROM grants WHERE developer_id = ?1 AND status = 'active' AND expires_at > ?2),
			(SELECT COUNT(*) FROM policies WHERE developer_id = ?1),
			(SELECT COUNT(*) FROM audit_log WHERE developer_id = ?1)`,
		developerID, toMillis(now),
	).Scan(&u.Agents, &u.ActiveGrants, &u.Policies, &u.AuditEntries)
	if err != nil {
		return domain.Usage{}, mapErr(err)
	}
	return u, nil
}

func scanDeveloper(row scanner) (domain.Developer, error) {
	var (
		d                    domain.Developer
		mode, plan           string
		createdAt, updatedAt int64
	)
	err := row.Scan(&d.ID, &d.Name, &d.Email, &mode, &plan, &d.APIKeyID, &d.APIKeyHash, &createdAt, &updatedAt)
	if err != nil {
		return domain.Developer{}, mapErr(err)
	}
	d.Mode = domain.DeveloperMode(mode)
	d.Plan = domain.Plan(plan)
	d.CreatedAt = fromMillis(createdAt)
	d.UpdatedAt = fromMillis(updatedAt)
	return d, nil
}
