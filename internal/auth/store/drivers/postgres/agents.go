package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type agentsRepo struct {
	db dbtx
}

const agentColumns = `id, did, developer_id, name, description, scopes, status, created_at, updated_at`

func (r *agentsRepo) CreateAgent(ctx context.Context, a domain.Agent) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO agents (`+agentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.DID, a.DeveloperID, a.Name, a.Description, nonNil(a.Scopes), string(a.Status), a.CreatedAt, a.UpdatedAt,
	)
	return mapErr(err)
}

func (r *agentsRepo) GetAgent(ctx context.Context, developerID, id string) (domain.Agent, error) {
	return scanAgent(r.db.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = $1 AND developer_id = $2`, id, developerID))
}

func (r *agentsRepo) ListAgents(ctx context.Context, developerID string) ([]domain.Agent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE developer_id = $1 ORDER BY created_at DESC, id DESC`, developerID)
	return collect(rows, err, scanAgent)
}

func (r *agentsRepo) UpdateAgent(ctx context.Context, a domain.Agent) error {
	return requireOne(r.db.Exec(ctx, `
		UPDATE agents
		SET name = $1, description = $2, scopes = $3, status = $4, updated_at = $5
		WHERE id = $6 AND developer_id = $7`,
		a.Name, a.Description, nonNil(a.Scopes), string(a.Status), a.UpdatedAt, a.ID, a.DeveloperID,
	))
}

func scanAgent(row pgx.Row) (domain.Agent, error) {
	var (
		a      domain.Agent
		status string
	)
	err := row.Scan(&a.ID, &a.DID, &a.DeveloperID, &a.Name, &a.Description, &a.Scopes, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Agent{}, mapErr(err)
	}
	a.Scopes = nonNil(a.Scopes)
	a.Status = domain.AgentStatus(status)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}
