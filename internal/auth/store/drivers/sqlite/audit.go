package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

type auditRepo struct {
	db dbtx
}

const auditColumns = `id, developer_id, agent_id, agent_did, grant_id, principal_id, action, metadata,
	status, timestamp, hash, prev_hash`

// LockChain is a no-op: the store holds a single connection, so write
// transactions are already serial.
func (r *auditRepo) LockChain(ctx context.Context, developerID string) error { return nil }

func (r *auditRepo) LastHash(ctx context.Context, developerID string) (*string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT hash FROM audit_log WHERE developer_id = ? ORDER BY seq DESC LIMIT 1`, developerID,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return &hash, nil
}

func (r *auditRepo) AppendEntry(ctx context.Context, e domain.AuditEntry) error {
	meta, err := encodeMetadata(e.Metadata)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_log (`+auditColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.DeveloperID, mapStringNull(e.AgentID), mapStringNull(e.AgentDID), mapStringNull(e.GrantID),
		mapStringNull(e.PrincipalID), e.Action, meta, string(e.Status), toMillis(e.Timestamp),
		e.Hash, mapOptionalString(e.PreviousHash),
	)
	return mapErr(err)
}

func (r *auditRepo) GetEntry(ctx context.Context, developerID, id string) (domain.AuditEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+auditColumns+` FROM audit_log WHERE id = ? AND developer_id = ?`, id, developerID)
	return scanAuditEntry(row)
}

func (r *auditRepo) ListEntries(ctx context.Context, developerID string, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	where := []string{"developer_id = ?"}
	args := []any{developerID}
	if f.AgentID != "" {
		where = append(where, "agent_id = ?")
		args = append(args, f.AgentID)
	}
	if f.GrantID != "" {
		where = append(where, "grant_id = ?")
		args = append(args, f.GrantID)
	}
	if f.PrincipalID != "" {
		where = append(where, "principal_id = ?")
		args = append(args, f.PrincipalID)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}
	if !f.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, toMillis(f.Since))
	}
	if !f.Until.IsZero() {
		where = append(where, "timestamp <= ?")
		args = append(args, toMillis(f.Until))
	}

	query := `SELECT ` + auditColumns + ` FROM audit_log WHERE ` + strings.Join(where, " AND ") + ` ORDER BY seq ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []domain.AuditEntry{}
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, mapErr(rows.Err())
}

func scanAuditEntry(row scanner) (domain.AuditEntry, error) {
	var (
		e                                     domain.AuditEntry
		agentID, agentDID, grantID, principal sql.NullString
		meta, status                          string
		ts                                    int64
		prev                                  sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.DeveloperID, &agentID, &agentDID, &grantID, &principal, &e.Action, &meta,
		&status, &ts, &e.Hash, &prev,
	)
	if err != nil {
		return domain.AuditEntry{}, mapErr(err)
	}
	if e.Metadata, err = decodeMetadata(meta); err != nil {
		return domain.AuditEntry{}, err
	}
	e.AgentID = mapNullString(agentID)
	e.AgentDID = mapNullString(agentDID)
	e.GrantID = mapNullString(grantID)
	e.PrincipalID = mapNullString(principal)
	e.Status = domain.AuditStatus(status)
	e.Timestamp = fromMillis(ts)
	e.PreviousHash = mapNullStringPtr(prev)
	return e, nil
}
