package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type policiesRepo struct {
	db dbtx
}

const policyColumns = `id, developer_id, name, effect, priority, agent_id, principal_id, scopes,
	time_start, time_end, created_at, updated_at`

func (r *policiesRepo) CreatePolicy(ctx context.Context, p domain.Policy) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO policies (`+policyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.DeveloperID, p.Name, string(p.Effect), p.Priority,
		mapOptionalString(p.AgentID), mapOptionalString(p.PrincipalID), mapOptionalScopes(p.Scopes),
		mapOptionalString(p.TimeStart), mapOptionalString(p.TimeEnd),
		toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	return mapErr(err)
}

func (r *policiesRepo) GetPolicy(ctx context.Context, developerID, id string) (domain.Policy, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE id = ? AND developer_id = ?`, id, developerID)
	return scanPolicy(row)
}

func (r *policiesRepo) ListPolicies(ctx context.Context, developerID string) ([]domain.Policy, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+policyColumns+` FROM policies
		WHERE developer_id = ?
		ORDER BY priority DESC, created_at ASC, id ASC`, developerID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []domain.Policy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, mapErr(rows.Err())
}

func (r *policiesRepo) UpdatePolicy(ctx context.Context, p domain.Policy) error {
	return requireOne(r.db.ExecContext(ctx, `
		UPDATE policies
		SET name = ?, effect = ?, priority = ?, agent_id = ?, principal_id = ?, scopes = ?,
			time_start = ?, time_end = ?, updated_at = ?
		WHERE id = ? AND developer_id = ?`,
		p.Name, string(p.Effect), p.Priority,
		mapOptionalString(p.AgentID), mapOptionalString(p.PrincipalID), mapOptionalScopes(p.Scopes),
		mapOptionalString(p.TimeStart), mapOptionalString(p.TimeEnd), toMillis(p.UpdatedAt),
		p.ID, p.DeveloperID,
	))
}

func (r *policiesRepo) DeletePolicy(ctx context.Context, developerID, id string) error {
	return requireOne(r.db.ExecContext(ctx,
		`DELETE FROM policies WHERE id = ? AND developer_id = ?`, id, developerID))
}

func scanPolicy(row scanner) (domain.Policy, error) {
	var (
		p                                        domain.Policy
		effect                                   string
		agentID, principalID, scopes, start, end sql.NullString
		createdAt, updatedAt                     int64
	)
	err := row.Scan(
		&p.ID, &p.DeveloperID, &p.Name, &effect, &p.Priority,
		&agentID, &principalID, &scopes, &start, &end, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Policy{}, mapErr(err)
	}
	p.Effect = domain.PolicyEffect(effect)
	p.AgentID = mapNullStringPtr(agentID)
	p.PrincipalID = mapNullStringPtr(principalID)
	p.Scopes = mapNullScopes(scopes)
	p.TimeStart = mapNullStringPtr(start)
	p.TimeEnd = mapNullStringPtr(end)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}
