package service

import (
	"sync"
	"testing"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestAuditLogChains(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeLive, domain.PlanFree)

	in := LogInput{
		AgentID:     "ag_1",
		AgentDID:    domain.AgentDID("ag_1"),
		GrantID:     "grnt_1",
		PrincipalID: "user_1",
		Action:      "email.sent",
		Metadata:    map[string]any{"to": "bob@example.com"},
	}

	first, err := f.audit.Log(f.ctx, dev.ID, in)
	require.NoError(t, err)
	require.Nil(t, first.PreviousHash)
	require.Equal(t, domain.AuditSuccess, first.Status)

	in.Status = domain.AuditFailure
	second, err := f.audit.Log(f.ctx, dev.ID, in)
	require.NoError(t, err)
	require.NotNil(t, second.PreviousHash)
	require.Equal(t, first.Hash, *second.PreviousHash)

	got, err := f.audit.Get(f.ctx, dev.ID, second.ID)
	require.NoError(t, err)
	require.Equal(t, second.Hash, got.Hash)

	res, err := f.audit.Verify(f.ctx, dev.ID)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, 2, res.Checked)
	require.Nil(t, res.FirstBrokenAt)

	t.Run("validation", func(t *testing.T) {
		_, err := f.audit.Log(f.ctx, dev.ID, LogInput{Action: "x"})
		require.ErrorIs(t, err, ErrAuditFields)

		bad := in
		bad.Status = "weird"
		_, err = f.audit.Log(f.ctx, dev.ID, bad)
		require.ErrorIs(t, err, ErrAuditStatus)
	})

	t.Run("tenants have separate chains", func(t *testing.T) {
		other := f.developer(domain.ModeLive, domain.PlanFree)
		e, err := f.audit.Log(f.ctx, other.ID, in)
		require.NoError(t, err)
		require.Nil(t, e.PreviousHash)

		_, err = f.audit.Get(f.ctx, other.ID, first.ID)
		require.ErrorIs(t, err, ErrAuditNotFound)
	})
}

func TestAuditConcurrentAppendsStayLinear(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeLive, domain.PlanPro)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.audit.Record(f.ctx, domain.AuditEntry{DeveloperID: dev.ID, Action: "tick"})
		}()
	}
	wg.Wait()

	entries, err := f.audit.List(f.ctx, dev.ID, domain.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 20)

	res, err := f.audit.Verify(f.ctx, dev.ID)
	require.NoError(t, err)
	require.True(t, res.Valid)
}

func TestAuditTamperDetection(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dev := f.developer(domain.ModeLive, domain.PlanFree)

	for _, action := range []string{"a", "b", "c"} {
		_, err := f.audit.Append(f.ctx, domain.AuditEntry{DeveloperID: dev.ID, Action: action})
		require.NoError(t, err)
	}

	_, err := f.store.DB().ExecContext(f.ctx,
		`UPDATE audit_log SET action = 'forged' WHERE developer_id = ? AND action = 'b'`, dev.ID)
	require.NoError(t, err)

	res, err := f.audit.Verify(f.ctx, dev.ID)
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.NotNil(t, res.FirstBrokenAt)
	require.Equal(t, 1, res.Checked)
}
