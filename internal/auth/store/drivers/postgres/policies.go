package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type policiesRepo struct {
	db dbtx
}

const policyColumns = `id, developer_id, name, effect, priority, agent_id, principal_id, scopes,
	time_start, time_end, created_at, updated_at`

func (r *policiesRepo) CreatePolicy(ctx context.Context, p domain.Policy) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO policies (`+policyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.DeveloperID, p.Name, string(p.Effect), p.Priority, p.AgentID, p.PrincipalID, p.Scopes,
		p.TimeStart, p.TimeEnd, p.CreatedAt, p.UpdatedAt,
	)
	return mapErr(err)
}

func (r *policiesRepo) GetPolicy(ctx context.Context, developerID, id string) (domain.Policy, error) {
	return scanPolicy(r.db.QueryRow(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE id = $1 AND developer_id = $2`, id, developerID))
}

func (r *policiesRepo) ListPolicies(ctx context.Context, developerID string) ([]domain.Policy, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+policyColumns+` FROM policies
		WHERE developer_id = $1
		ORDER BY priority DESC, created_at ASC, id ASC`, developerID)
	return collect(rows, err, scanPolicy)
}

func (r *policiesRepo) UpdatePolicy(ctx context.Context, p domain.Policy) error {
	return requireOne(r.db.Exec(ctx, `
		UPDATE policies
		SET name = $1, effect = $2, priority = $3, agent_id = $4, principal_id = $5, scopes = $6,
			time_start = $7, time_end = $8, updated_at = $9
		WHERE id = $10 AND developer_id = $11`,
		p.Name, string(p.Effect), p.Priority, p.AgentID, p.PrincipalID, p.Scopes,
		p.TimeStart, p.TimeEnd, p.UpdatedAt, p.ID, p.DeveloperID,
	))
}

func (r *policiesRepo) DeletePolicy(ctx context.Context, developerID, id string) error {
	return requireOne(r.db.Exec(ctx, `DELETE FROM policies WHERE id = $1 AND developer_id = $2`, id, developerID))
}

func scanPolicy(row pgx.Row) (domain.Policy, error) {
	var (
		p      domain.Policy
		effect string
	)
	err := row.Scan(
		&p.ID, &p.DeveloperID, &p.Name, &effect, &p.Priority, &p.AgentID, &p.PrincipalID, &p.Scopes,
		&p.TimeStart, &p.TimeEnd, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Policy{}, mapErr(err)
	}
	p.Effect = domain.PolicyEffect(effect)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
