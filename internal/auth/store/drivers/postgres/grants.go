package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type grantsRepo struct {
	db dbtx
}

const grantColumns = `id, agent_id, principal_id, developer_id, scopes, status, issued_at, expires_at,
	revoked_at, parent_grant_id, delegation_depth, audience`

func (r *grantsRepo) CreateGrant(ctx context.Context, g domain.Grant) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO grants (`+grantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		g.ID, g.AgentID, g.PrincipalID, g.DeveloperID, nonNil(g.Scopes), string(g.Status),
		g.IssuedAt, g.ExpiresAt, g.RevokedAt, nullIfEmpty(g.ParentGrantID), g.DelegationDepth, g.Audience,
	)
	return mapErr(err)
}

func (r *grantsRepo) GetGrant(ctx context.Context, developerID, id string) (domain.Grant, error) {
	return scanGrant(r.db.QueryRow(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE id = $1 AND developer_id = $2`, id, developerID))
}

func (r *grantsRepo) GetGrantForShare(ctx context.Context, developerID, id string) (domain.Grant, error) {
	return scanGrant(r.db.QueryRow(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE id = $1 AND developer_id = $2 FOR SHARE`, id, developerID))
}

func (r *grantsRepo) ListGrants(ctx context.Context, developerID string, f domain.GrantFilter) ([]domain.Grant, error) {
	where := []string{"developer_id = $1"}
	args := []any{developerID}
	add := func(column, value string) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if f.AgentID != "" {
		add("agent_id", f.AgentID)
	}
	if f.PrincipalID != "" {
		add("principal_id", f.PrincipalID)
	}
	if f.Status != "" {
		add("status", string(f.Status))
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE `+strings.Join(where, " AND ")+` ORDER BY issued_at DESC, id DESC`,
		args...)
	return collect(rows, err, scanGrant)
}

func (r *grantsRepo) ListActiveChildren(ctx context.Context, parentID string) ([]domain.Grant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE parent_grant_id = $1 AND status = 'active' ORDER BY issued_at, id`,
		parentID)
	return collect(rows, err, scanGrant)
}

func (r *grantsRepo) RevokeGrant(ctx context.Context, id string, now time.Time) (bool, error) {
	return changed(r.db.Exec(ctx,
		`UPDATE grants SET status = 'revoked', revoked_at = $1 WHERE id = $2 AND status = 'active'`, now, id))
}

func (r *grantsRepo) ExpireGrants(ctx context.Context, now time.Time) ([]domain.Grant, error) {
	rows, err := r.db.Query(ctx,
		`UPDATE grants SET status = 'expired' WHERE status = 'active' AND expires_at <= $1 RETURNING `+grantColumns, now)
	return collect(rows, err, scanGrant)
}

func scanGrant(row pgx.Row) (domain.Grant, error) {
	var (
		g      domain.Grant
		status string
		parent *string
	)
	err := row.Scan(
		&g.ID, &g.AgentID, &g.PrincipalID, &g.DeveloperID, &g.Scopes, &status,
		&g.IssuedAt, &g.ExpiresAt, &g.RevokedAt, &parent, &g.DelegationDepth, &g.Audience,
	)
	if err != nil {
		return domain.Grant{}, mapErr(err)
	}
	normalizeGrant(&g, status, parent)
	return g, nil
}

func normalizeGrant(g *domain.Grant, status string, parent *string) {
	g.Scopes = nonNil(g.Scopes)
	g.Status = domain.GrantStatus(status)
	g.IssuedAt = g.IssuedAt.UTC()
	g.ExpiresAt = g.ExpiresAt.UTC()
	g.RevokedAt = utcPtr(g.RevokedAt)
	g.ParentGrantID = deref(parent)
}
