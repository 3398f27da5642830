// Package auditchain computes and checks the hash links of a tenant's audit
// log. It holds no state; the service serializes appends per tenant.
package auditchain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/pkg/cryptox"
)

// TimestampLayout is the RFC 3339 form hashed into each entry. Millisecond
// precision, always UTC with a literal Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// canonical fixes the key order of the hashed document. Do not reorder.
type canonical struct {
	ID          string         `json:"id"`
	AgentID     string         `json:"agentId"`
	AgentDID    string         `json:"agentDid"`
	GrantID     string         `json:"grantId"`
	PrincipalID string         `json:"principalId"`
	DeveloperID string         `json:"developerId"`
	Action      string         `json:"action"`
	Metadata    map[string]any `json:"metadata"`
	Timestamp   string         `json:"timestamp"`
	PrevHash    *string        `json:"prevHash"`
	Status      string         `json:"status"`
}

// Hash computes the digest of e, ignoring e.Hash.
func Hash(e domain.AuditEntry) (string, error) {
	meta := e.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(canonical{
		ID:          e.ID,
		AgentID:     e.AgentID,
		AgentDID:    e.AgentDID,
		GrantID:     e.GrantID,
		PrincipalID: e.PrincipalID,
		DeveloperID: e.DeveloperID,
		Action:      e.Action,
		Metadata:    meta,
		Timestamp:   FormatTimestamp(e.Timestamp),
		PrevHash:    e.PreviousHash,
		Status:      string(e.Status),
	})
	if err != nil {
		return "", fmt.Errorf("auditchain: encode entry %s: %w", e.ID, err)
	}

	// Encoder appends a newline that is not part of the document.
	return cryptox.HexDigest(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// Seal links e to prev and fills in its hash. The timestamp is truncated to
// the precision that is hashed, so a stored and reloaded entry verifies.
func Seal(e *domain.AuditEntry, prev *string) error {
	e.Timestamp = e.Timestamp.UTC().Truncate(time.Millisecond)
	e.PreviousHash = prev

	h, err := Hash(*e)
	if err != nil {
		return err
	}
	e.Hash = h
	return nil
}

// Verify walks entries in chain order. Each entry must link to the previous
// entry's hash (the first to none) and must hash to its stored value.
// Checked is the number of entries that passed before the first break.
func Verify(entries []domain.AuditEntry) domain.ChainVerification {
	var prev *string
	for i, e := range entries {
		if !sameHash(e.PreviousHash, prev) || !hashMatches(e) {
			id := e.ID
			return domain.ChainVerification{Valid: false, Checked: i, FirstBrokenAt: &id}
		}
		h := e.Hash
		prev = &h
	}
	return domain.ChainVerification{Valid: true, Checked: len(entries)}
}

// FormatTimestamp renders t the way it is hashed.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func hashMatches(e domain.AuditEntry) bool {
	h, err := Hash(e)
	return err == nil && h == e.Hash
}

func sameHash(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
