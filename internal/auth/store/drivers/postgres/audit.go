package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type auditRepo struct {
	db dbtx
}

const auditColumns = `id, developer_id, agent_id, agent_did, grant_id, principal_id, action, metadata,
	status, timestamp, hash, prev_hash`

// LockChain takes a transaction-scoped advisory lock keyed by tenant, so
// replicas appending for the same developer queue behind each other.
func (r *auditRepo) LockChain(ctx context.Context, developerID string) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, developerID)
	return mapErr(err)
}

func (r *auditRepo) LastHash(ctx context.Context, developerID string) (*string, error) {
	var hash string
	err := r.db.QueryRow(ctx,
		`SELECT hash FROM audit_log WHERE developer_id = $1 ORDER BY seq DESC LIMIT 1`, developerID,
	).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return &hash, nil
}

func (r *auditRepo) AppendEntry(ctx context.Context, e domain.AuditEntry) error {
	meta := e.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_log (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.DeveloperID, nullIfEmpty(e.AgentID), nullIfEmpty(e.AgentDID), nullIfEmpty(e.GrantID),
		nullIfEmpty(e.PrincipalID), e.Action, meta, string(e.Status), e.Timestamp, e.Hash, e.PreviousHash,
	)
	return mapErr(err)
}

func (r *auditRepo) GetEntry(ctx context.Context, developerID, id string) (domain.AuditEntry, error) {
	return scanAuditEntry(r.db.QueryRow(ctx,
		`SELECT `+auditColumns+` FROM audit_log WHERE id = $1 AND developer_id = $2`, id, developerID))
}

func (r *auditRepo) ListEntries(ctx context.Context, developerID string, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	where := []string{"developer_id = $1"}
	args := []any{developerID}
	add := func(cond string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.AgentID != "" {
		add("agent_id = $%d", f.AgentID)
	}
	if f.GrantID != "" {
		add("grant_id = $%d", f.GrantID)
	}
	if f.PrincipalID != "" {
		add("principal_id = $%d", f.PrincipalID)
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if !f.Since.IsZero() {
		add("timestamp >= $%d", f.Since)
	}
	if !f.Until.IsZero() {
		add("timestamp <= $%d", f.Until)
	}

	query := `SELECT ` + auditColumns + ` FROM audit_log WHERE ` + strings.Join(where, " AND ") + ` ORDER BY seq ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	return collect(rows, err, scanAuditEntry)
}

func scanAuditEntry(row pgx.Row) (domain.AuditEntry, error) {
	var (
		e                                     domain.AuditEntry
		agentID, agentDID, grantID, principal *string
		status                                string
	)
	err := row.Scan(
		&e.ID, &e.DeveloperID, &agentID, &agentDID, &grantID, &principal, &e.Action, &e.Metadata,
		&status, &e.Timestamp, &e.Hash, &e.PreviousHash,
	)
	if err != nil {
		return domain.AuditEntry{}, mapErr(err)
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	e.AgentID = deref(agentID)
	e.AgentDID = deref(agentDID)
	e.GrantID = deref(grantID)
	e.PrincipalID = deref(principal)
	e.Status = domain.AuditStatus(status)
	e.Timestamp = e.Timestamp.UTC()
	return e, nil
}
