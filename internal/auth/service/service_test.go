package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/denylist"
	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/agentgrant/pkg/cryptox"
	"github.com/aussiebroadwan/agentgrant/pkg/idx"
	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://agentgrant.test"

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "agentgrant-service")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))
	if err := cryptox.LoadPepper(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// fixture wires every service onto one in-memory store, with a clock the
// test can move forward.
type fixture struct {
	t   *testing.T
	ctx context.Context
	now time.Time

	store    *sqlite.Store
	denylist *denylist.Memory

	audit      *AuditService
	developers *DeveloperService
	agents     *AgentService
	policies   *PolicyService
	authorize  *AuthorizeService
	tokens     *TokenService
	grants     *GrantService
	housekeep  *HousekeepingService
	principals *PrincipalService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	keys, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    testIssuer,
		NumKeys:   1,
	})
	require.NoError(t, err)

	dl := denylist.NewMemory(0)
	t.Cleanup(func() { _ = dl.Close() })

	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		now:      time.Now().UTC().Truncate(time.Second),
		store:    st,
		denylist: dl,
	}
	rt := Runtime{Store: st, Clock: func() time.Time { return f.now }}
	minter := Minter{Keys: keys, Issuer: testIssuer}

	f.audit = &AuditService{Runtime: rt}
	f.developers = &DeveloperService{Runtime: rt, BootstrapToken: "bootstrap-secret"}
	f.grants = &GrantService{Runtime: rt, Minter: minter, Denylist: dl, Audit: f.audit, MaxDepth: 3}
	f.agents = &AgentService{Runtime: rt, Grants: f.grants}
	f.policies = &PolicyService{Runtime: rt}
	f.authorize = &AuthorizeService{Runtime: rt, Audit: f.audit, PublicURL: "https://agentgrant.test/"}
	f.tokens = &TokenService{Runtime: rt, Minter: minter, Denylist: dl, Audit: f.audit}
	f.housekeep = NewHousekeepingService(rt, f.audit, discardLogger(), time.Hour)
	f.principals = &PrincipalService{Runtime: rt, Keys: keys, Issuer: testIssuer, Grants: f.grants, Audit: f.audit}
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) developer(mode domain.DeveloperMode, plan domain.Plan) domain.Developer {
	f.t.Helper()

	creds, err := f.developers.Create(f.ctx, CreateDeveloperInput{
		Name:  "Acme",
		Email: strings.ToLower(idx.New().String()) + "@example.com",
		Mode:  mode,
		Plan:  plan,
	})
	require.NoError(f.t, err)
	return creds.Developer
}

func (f *fixture) agent(developerID string, scopes ...string) domain.Agent {
	f.t.Helper()

	a, err := f.agents.Create(f.ctx, developerID, CreateAgentInput{Name: "agent", Scopes: scopes})
	require.NoError(f.t, err)
	return a
}

// rootGrant runs a sandbox authorization through to an exchanged grant.
func (f *fixture) rootGrant(developerID, agentID string, scopes ...string) domain.IssuedGrant {
	f.t.Helper()

	res, err := f.authorize.Authorize(f.ctx, developerID, AuthorizeInput{
		AgentID:     agentID,
		PrincipalID: "user_1",
		Scopes:      scopes,
	})
	require.NoError(f.t, err)
	require.True(f.t, res.AutoApproved())

	issued, err := f.tokens.Exchange(f.ctx, developerID, ExchangeInput{Code: res.Code, AgentID: agentID})
	require.NoError(f.t, err)
	return issued
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()

	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, code, e.Code, e.Message)
}
