package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/auditchain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/metrics"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/pkg/idx"
	"github.com/aussiebroadwan/agentgrant/pkg/slogx"
)

// AuditService appends to and reads back each tenant's hash-chained log.
//
// Appends for one tenant are serialized twice: by an in-process mutex, and
// by the store's chain lock so that several replicas sharing a postgres
// database cannot fork the chain either.
type AuditService struct {
	Runtime

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// LogInput is an entry submitted by a developer's own agent runtime.
type LogInput struct {
	AgentID     string
	AgentDID    string
	GrantID     string
	PrincipalID string
	Action      string
	Metadata    map[string]any
	Status      domain.AuditStatus
}

func (s *AuditService) tenantLock(developerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	l, ok := s.locks[developerID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[developerID] = l
	}
	return l
}

// Append links e onto its tenant's chain and stores it. ID, status and
// timestamp are filled in when empty; the timestamp is taken under the
// chain lock so chain order and time order agree.
func (s *AuditService) Append(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	if e.ID == "" {
		e.ID = idx.NewPrefixed(idx.PrefixAuditEntry)
	}
	if e.Status == "" {
		e.Status = domain.AuditSuccess
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}

	lock := s.tenantLock(e.DeveloperID)
	lock.Lock()
	defer lock.Unlock()

	err := s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Audit().LockChain(ctx, e.DeveloperID); err != nil {
			return err
		}
		prev, err := tx.Audit().LastHash(ctx, e.DeveloperID)
		if err != nil {
			return err
		}
		e.Timestamp = s.now().Truncate(time.Millisecond)
		if err := auditchain.Seal(&e, prev); err != nil {
			return err
		}
		return tx.Audit().AppendEntry(ctx, e)
	})
	if err != nil {
		return domain.AuditEntry{}, err
	}

	metrics.AuditAppended(string(e.Status))
	return e, nil
}

// Record appends e after the state change it describes has committed. A
// failure is logged, not returned: the change itself already happened.
func (s *AuditService) Record(ctx context.Context, e domain.AuditEntry) {
	if s == nil {
		return
	}
	if _, err := s.Append(ctx, e); err != nil {
		slogx.FromContext(ctx).Error("audit append failed",
			"action", e.Action,
			"developer_id", e.DeveloperID,
			"grant_id", e.GrantID,
			"error", err,
		)
	}
}

// Log appends an entry submitted by the tenant, subject to its plan's
// audit ceiling.
func (s *AuditService) Log(ctx context.Context, developerID string, in LogInput) (domain.AuditEntry, error) {
	in.Action = strings.TrimSpace(in.Action)
	if in.AgentID == "" || in.AgentDID == "" || in.GrantID == "" || in.PrincipalID == "" || in.Action == "" {
		return domain.AuditEntry{}, ErrAuditFields
	}
	switch in.Status {
	case "":
		in.Status = domain.AuditSuccess
	case domain.AuditSuccess, domain.AuditFailure, domain.AuditBlocked:
	default:
		return domain.AuditEntry{}, ErrAuditStatus
	}

	if err := s.checkQuota(ctx, developerID); err != nil {
		return domain.AuditEntry{}, err
	}

	return s.Append(ctx, domain.AuditEntry{
		DeveloperID: developerID,
		AgentID:     in.AgentID,
		AgentDID:    in.AgentDID,
		GrantID:     in.GrantID,
		PrincipalID: in.PrincipalID,
		Action:      in.Action,
		Metadata:    in.Metadata,
		Status:      in.Status,
	})
}

func (s *AuditService) checkQuota(ctx context.Context, developerID string) error {
	now := s.now()
	return s.inTx(ctx, func(ctx context.Context, tx store.Tx) error {
		dev, err := tx.Developers().GetDeveloperByID(ctx, developerID)
		if err != nil {
			return err
		}
		usage, err := tx.Developers().GetUsage(ctx, developerID, now)
		if err != nil {
			return err
		}
		return checkLimit(dev.Plan, "audit entries", usage.AuditEntries, LimitsFor(dev.Plan).AuditEntries)
	})
}

// List returns the tenant's entries in chain order.
func (s *AuditService) List(ctx context.Context, developerID string, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	return query(ctx, s.Runtime, func(ctx context.Context, st store.Store) ([]domain.AuditEntry, error) {
		return st.Audit().ListEntries(ctx, developerID, f)
	})
}

func (s *AuditService) Get(ctx context.Context, developerID, id string) (domain.AuditEntry, error) {
	e, err := query(ctx, s.Runtime, func(ctx context.Context, st store.Store) (domain.AuditEntry, error) {
		return st.Audit().GetEntry(ctx, developerID, id)
	})
	if errors.Is(err, store.ErrNotFound) {
		return domain.AuditEntry{}, ErrAuditNotFound
	}
	return e, err
}

// Verify walks the tenant's whole chain.
func (s *AuditService) Verify(ctx context.Context, developerID string) (domain.ChainVerification, error) {
	entries, err := s.List(ctx, developerID, domain.AuditFilter{})
	if err != nil {
		return domain.ChainVerification{}, err
	}
	return auditchain.Verify(entries), nil
}
