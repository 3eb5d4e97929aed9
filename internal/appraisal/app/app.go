package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/appraisal/internal/appraisal/http"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/identity"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/service"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store/drivers/postgres"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store/drivers/sqlite"
	"github.com/aussiebroadwan/appraisal/pkg/httpx"
	"github.com/aussiebroadwan/appraisal/pkg/jwtx"
	"github.com/aussiebroadwan/appraisal/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X ...app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application is the appraisal service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         store.Store
	keyManager *jwtx.KeyManager
	provider   identity.Provider

	sessionService      *service.SessionService
	userService         *service.UserService
	organizationService *service.OrganizationService
	membershipService   *service.MembershipService
	clientService       *service.ClientService
	orderService        *service.OrderService

	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "appraisal",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application with all dependencies initialized.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	db, err := OpenDatabase(ctx, cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	keyManager, err := InitSessionKeys(cfg, app.logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize session keys: %w", err)
	}
	app.keyManager = keyManager

	app.initProvider()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the routed HTTP handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("appraisal service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"database", app.cfg.DatabaseDriver,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down appraisal service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("appraisal service stopped")
	return nil
}

// OpenDatabase connects the configured driver and applies migrations.
func OpenDatabase(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	var (
		db  store.Store
		err error
	)

	switch cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.NewStore(ctx, cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(cfg.DatabaseFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "driver", cfg.DatabaseDriver)
	return db, nil
}

func (app *Application) initProvider() {
	if app.cfg.WorkOSAPIKey != "" && app.cfg.WorkOSClientID != "" {
		app.provider = identity.NewWorkOS(app.cfg.WorkOSAPIKey, app.cfg.WorkOSClientID, app.cfg.WorkOSRedirectURI)
		app.logger.Info("identity provider configured", "provider", "workos")
		return
	}

	// Only reachable with ENV=dev, see Config.Validate.
	app.provider = &identity.Dev{RedirectURI: app.cfg.WorkOSRedirectURI}
	app.logger.Warn("no identity provider configured, using dev provider")
}

func (app *Application) initServices() {
	app.userService = &service.UserService{Store: app.db}
	app.sessionService = &service.SessionService{
		Users:    app.userService,
		Provider: app.provider,
		Keys:     app.keyManager,
		Issuer:   app.cfg.Issuer,
		TTL:      app.cfg.SessionTTL,
	}
	app.organizationService = &service.OrganizationService{Store: app.db}
	app.membershipService = &service.MembershipService{
		Store:     app.db,
		AppURL:    app.cfg.AppURL,
		InviteTTL: app.cfg.InviteTTL,
	}
	app.clientService = &service.ClientService{Store: app.db}
	app.orderService = &service.OrderService{Store: app.db}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.keyManager, BuildVersion, app.db, app.logger)

	router.DevLogin = app.cfg.DevLogin && app.cfg.IsDev()
	router.SecureCookies = !app.cfg.IsDev()
	if app.cfg.RateLimits != (httpx.RateLimits{}) {
		router.Limits = app.cfg.RateLimits
	}

	router.SessionService = app.sessionService
	router.UserService = app.userService
	router.OrganizationService = app.organizationService
	router.MembershipService = app.membershipService
	router.ClientService = app.clientService
	router.OrderService = app.orderService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
