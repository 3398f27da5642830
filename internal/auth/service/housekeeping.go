package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
)

// authRequestRetention keeps expired authorization requests around long
// enough for the consent page to answer 410 instead of 404.
const authRequestRetention = 24 * time.Hour

// HousekeepingService periodically expires overdue grants and removes dead
// authorization requests, refresh tokens and grant token rows.
type HousekeepingService struct {
	Runtime
	Audit    *AuditService
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to 1 hour.
func NewHousekeepingService(rt Runtime, audit *AuditService, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Runtime:  rt,
		Audit:    audit,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// SweepResult counts the rows touched by one sweep.
type SweepResult struct {
	ExpiredGrants        int64
	DeletedAuthRequests  int64
	DeletedRefreshTokens int64
	DeletedGrantTokens   int64
}

// Sweep runs every cleanup step once. Each step is independent; a failure
// is logged and the remaining steps still run.
func (s *HousekeepingService) Sweep(ctx context.Context) SweepResult {
	now := s.now()
	var res SweepResult

	expired, err := query(ctx, s.Runtime, func(ctx context.Context, st store.Store) ([]domain.Grant, error) {
		return st.Grants().ExpireGrants(ctx, now)
	})
	if err != nil {
		s.Logger.Error("housekeeping step failed", "step", "expire grants", "error", err)
	}
	res.ExpiredGrants = int64(len(expired))
	for _, g := range expired {
		s.Audit.Record(ctx, domain.AuditEntry{
			DeveloperID: g.DeveloperID,
			AgentID:     g.AgentID,
			AgentDID:    domain.AgentDID(g.AgentID),
			GrantID:     g.ID,
			PrincipalID: g.PrincipalID,
			Action:      domain.ActionGrantExpired,
			Metadata:    map[string]any{"expiresAt": g.ExpiresAt.Format(time.RFC3339)},
		})
	}

	steps := []struct {
		name string
		out  *int64
		fn   func(ctx context.Context, st store.Store) (int64, error)
	}{
		{"delete auth requests", &res.DeletedAuthRequests, func(ctx context.Context, st store.Store) (int64, error) {
			return st.AuthRequests().DeleteExpiredAuthRequests(ctx, now.Add(-authRequestRetention))
		}},
		{"delete refresh tokens", &res.DeletedRefreshTokens, func(ctx context.Context, st store.Store) (int64, error) {
			return st.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now)
		}},
		{"delete grant tokens", &res.DeletedGrantTokens, func(ctx context.Context, st store.Store) (int64, error) {
			return st.GrantTokens().DeleteExpiredGrantTokens(ctx, now)
		}},
	}

	for _, step := range steps {
		n, err := query(ctx, s.Runtime, step.fn)
		if err != nil {
			s.Logger.Error("housekeeping step failed", "step", step.name, "error", err)
			continue
		}
		*step.out = n
	}

	s.Logger.Info("housekeeping sweep completed",
		"expired_grants", res.ExpiredGrants,
		"auth_requests", res.DeletedAuthRequests,
		"refresh_tokens", res.DeletedRefreshTokens,
		"grant_tokens", res.DeletedGrantTokens,
	)
	return res
}
