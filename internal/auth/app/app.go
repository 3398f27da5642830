package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/denylist"
	httpapi "github.com/aussiebroadwan/agentgrant/internal/auth/http"
	"github.com/aussiebroadwan/agentgrant/internal/auth/service"
	"github.com/aussiebroadwan/agentgrant/internal/auth/store"
	"github.com/aussiebroadwan/agentgrant/pkg/cryptox"
	"github.com/aussiebroadwan/agentgrant/pkg/jwtx"
	"github.com/aussiebroadwan/agentgrant/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         store.Store
	denylist   denylist.Denylist
	keyManager *jwtx.KeyManager

	services     Services
	housekeeping *service.HousekeepingService

	server *http.Server
	router *httpapi.Router

	closers []namedCloser
}

// Services is the wired service graph.
type Services struct {
	Developers *service.DeveloperService
	Agents     *service.AgentService
	Authorize  *service.AuthorizeService
	Tokens     *service.TokenService
	Grants     *service.GrantService
	Policies   *service.PolicyService
	Audit      *service.AuditService
	Principals *service.PrincipalService
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "agentgrant",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// NewServices wires every service over one store, denylist and key manager.
func NewServices(cfg Config, st store.Store, dl denylist.Denylist, km *jwtx.KeyManager) Services {
	rt := service.Runtime{Store: st, StoreTimeout: cfg.StoreTimeout}
	minter := service.Minter{
		Keys:       km,
		Issuer:     cfg.Issuer,
		RefreshTTL: service.DefaultRefreshTTL,
	}

	audit := &service.AuditService{Runtime: rt}
	grants := &service.GrantService{
		Runtime:  rt,
		Minter:   minter,
		Denylist: dl,
		Audit:    audit,
		MaxDepth: cfg.MaxDelegationDepth,
	}

	return Services{
		Developers: &service.DeveloperService{Runtime: rt, BootstrapToken: cfg.BootstrapToken},
		Agents:     &service.AgentService{Runtime: rt, Grants: grants},
		Authorize:  &service.AuthorizeService{Runtime: rt, Audit: audit, PublicURL: cfg.PublicURL},
		Tokens:     &service.TokenService{Runtime: rt, Minter: minter, Denylist: dl, Audit: audit},
		Grants:     grants,
		Policies:   &service.PolicyService{Runtime: rt},
		Audit:      audit,
		Principals: &service.PrincipalService{Runtime: rt, Keys: km, Issuer: cfg.Issuer, Grants: grants, Audit: audit},
	}
}

// New opens the store and denylist, loads the signing keys and wires the
// HTTP server. On error everything opened so far is closed again.
func New(ctx context.Context, cfg Config) (_ *Application, err error) {
	app := &Application{cfg: cfg, logger: NewLogger(cfg)}
	defer func() {
		if err != nil {
			app.closeAll()
		}
	}()

	cryptox.SetPepperPath(cfg.PepperFile)

	if app.db, err = MigrateStore(ctx, cfg, app.logger); err != nil {
		return nil, err
	}
	app.closers = append(app.closers, namedCloser{"database", app.db.Close})

	if app.denylist, err = OpenDenylist(ctx, cfg, app.logger); err != nil {
		return nil, err
	}
	app.closers = append(app.closers, namedCloser{"denylist", app.denylist.Close})

	if app.keyManager, err = InitAuthKeys(cfg, app.logger); err != nil {
		return nil, fmt.Errorf("signing keys: %w", err)
	}

	app.services = NewServices(cfg, app.db, app.denylist, app.keyManager)
	app.housekeeping = service.NewHousekeepingService(
		service.Runtime{Store: app.db, StoreTimeout: cfg.StoreTimeout},
		app.services.Audit,
		app.logger,
		cfg.HousekeepingInterval,
	)
	app.initHTTP()
	return app, nil
}

type namedCloser struct {
	name  string
	close func() error
}

// closeAll releases resources in reverse order of acquisition.
func (app *Application) closeAll() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		c := app.closers[i]
		if err := c.close(); err != nil {
			app.logger.Error("close failed", "resource", c.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

// Handler exposes the HTTP handler, mostly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Close releases the store and denylist without serving. Run calls it on
// shutdown.
func (app *Application) Close() error { return app.closeAll() }

// Run serves until ctx is cancelled or the listener fails, then drains
// in-flight requests for up to ShutdownGracePeriod.
func (app *Application) Run(ctx context.Context) error {
	app.housekeeping.Start()
	defer app.housekeeping.Stop()

	app.logger.Info("agentgrant starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store", app.cfg.StoreDriver,
		"denylist", app.cfg.DenylistDriver,
		"algorithm", app.keyManager.Algorithm(),
	)

	serveErr := make(chan error, 1)
	go func() { serveErr <- app.server.ListenAndServe() }()

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		app.logger.Info("shutdown requested", "cause", context.Cause(ctx))
		runErr = app.drain()
	}

	return errors.Join(runErr, app.closeAll())
}

func (app *Application) drain() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful shutdown timed out, closing connections", "error", err)
		return errors.Join(err, app.server.Close())
	}
	app.logger.Info("agentgrant stopped")
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.keyManager.KeySet, app.denylist, BuildVersion, app.db, app.logger)
	router.Developers = app.services.Developers
	router.Agents = app.services.Agents
	router.Authorize = app.services.Authorize
	router.Tokens = app.services.Tokens
	router.Grants = app.services.Grants
	router.Policies = app.services.Policies
	router.Audit = app.services.Audit
	router.Principals = app.services.Principals
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
