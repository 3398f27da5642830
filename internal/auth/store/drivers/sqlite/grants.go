package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type grantsRepo struct {
	db dbtx
}

const grantColumns = `id, agent_id, principal_id, developer_id, scopes, status, issued_at, expires_at,
	revoked_at, parent_grant_id, delegation_depth, audience`

func (r *grantsRepo) CreateGrant(ctx context.Context, g domain.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO grants (`+grantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.AgentID, g.PrincipalID, g.DeveloperID, joinScopes(g.Scopes), string(g.Status),
		toMillis(g.IssuedAt), toMillis(g.ExpiresAt), mapOptionalTime(g.RevokedAt),
		mapStringNull(g.ParentGrantID), g.DelegationDepth, g.Audience,
	)
	return mapErr(err)
}

func (r *grantsRepo) GetGrant(ctx context.Context, developerID, id string) (domain.Grant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE id = ? AND developer_id = ?`, id, developerID)
	return scanGrant(row)
}

// GetGrantForShare needs no lock: the store runs on one connection, so
// transactions never interleave.
func (r *grantsRepo) GetGrantForShare(ctx context.Context, developerID, id string) (domain.Grant, error) {
	return r.GetGrant(ctx, developerID, id)
}

func (r *grantsRepo) ListGrants(ctx context.Context, developerID string, f domain.GrantFilter) ([]domain.Grant, error) {
	where := []string{"developer_id = ?"}
	args := []any{developerID}
	if f.AgentID != "" {
		where = append(where, "agent_id = ?")
		args = append(args, f.AgentID)
	}
	if f.PrincipalID != "" {
		where = append(where, "principal_id = ?")
		args = append(args, f.PrincipalID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	return r.list(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE `+strings.Join(where, " AND ")+` ORDER BY issued_at DESC, id DESC`,
		args...)
}

func (r *grantsRepo) ListActiveChildren(ctx context.Context, parentID string) ([]domain.Grant, error) {
	return r.list(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE parent_grant_id = ? AND status = 'active' ORDER BY issued_at, id`,
		parentID)
}

func (r *grantsRepo) RevokeGrant(ctx context.Context, id string, now time.Time) (bool, error) {
	return changed(r.db.ExecContext(ctx,
		`UPDATE grants SET status = 'revoked', revoked_at = ? WHERE id = ? AND status = 'active'`,
		toMillis(now), id))
}

func (r *grantsRepo) ExpireGrants(ctx context.Context, now time.Time) ([]domain.Grant, error) {
	return r.list(ctx,
		`UPDATE grants SET status = 'expired' WHERE status = 'active' AND expires_at <= ? RETURNING `+grantColumns,
		toMillis(now))
}

func (r *grantsRepo) list(ctx context.Context, query string, args ...any) ([]domain.Grant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []domain.Grant{}
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, mapErr(rows.Err())
}

func scanGrant(row scanner) (domain.Grant, error) {
	var (
		g                   domain.Grant
		scopes, status      string
		issuedAt, expiresAt int64
		revokedAt           sql.NullInt64
		parent              sql.NullString
	)
	err := row.Scan(
		&g.ID, &g.AgentID, &g.PrincipalID, &g.DeveloperID, &scopes, &status,
		&issuedAt, &expiresAt, &revokedAt, &parent, &g.DelegationDepth, &g.Audience,
	)
	if err != nil {
		return domain.Grant{}, mapErr(err)
	}
	g.Scopes = splitScopes(scopes)
	g.Status = domain.GrantStatus(status)
	g.IssuedAt = fromMillis(issuedAt)
	g.ExpiresAt = fromMillis(expiresAt)
	g.RevokedAt = mapNullTimePtr(revokedAt)
	g.ParentGrantID = mapNullString(parent)
	return g, nil
}
