package sqlite

import (
	"context"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type agentsRepo struct {
	db dbtx
}

const agentColumns = `id, did, developer_id, name, description, scopes, status, created_at, updated_at`

func (r *agentsRepo) CreateAgent(ctx context.Context, a domain.Agent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO agents (`+agentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.DID, a.DeveloperID, a.Name, a.Description, joinScopes(a.Scopes), string(a.Status),
		toMillis(a.CreatedAt), toMillis(a.UpdatedAt),
	)
	return mapErr(err)
}

func (r *agentsRepo) GetAgent(ctx context.Context, developerID, id string) (domain.Agent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = ? AND developer_id = ?`, id, developerID)
	return scanAgent(row)
}

func (r *agentsRepo) ListAgents(ctx context.Context, developerID string) ([]domain.Agent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE developer_id = ? ORDER BY created_at DESC, id DESC`, developerID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []domain.Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, mapErr(rows.Err())
}

func (r *agentsRepo) UpdateAgent(ctx context.Context, a domain.Agent) error {
	return requireOne(r.db.ExecContext(ctx, `
		UPDATE agents
		SET name = ?, description = ?, scopes = ?, status = ?, updated_at = ?
		WHERE id = ? AND developer_id = ?`,
		a.Name, a.Description, joinScopes(a.Scopes), string(a.Status), toMillis(a.UpdatedAt),
		a.ID, a.DeveloperID,
	))
}

func scanAgent(row scanner) (domain.Agent, error) {
	var (
		a                    domain.Agent
		scopes, status       string
		createdAt, updatedAt int64
	)
	err := row.Scan(&a.ID, &a.DID, &a.DeveloperID, &a.Name, &a.Description, &scopes, &status, &createdAt, &updatedAt)
	if err != nil {
		return domain.Agent{}, mapErr(err)
	}
	a.Scopes = splitScopes(scopes)
	a.Status = domain.AgentStatus(status)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return a, nil
}
