package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/tuckshop-au/tuckshop/internal/auth/http"
	"github.com/tuckshop-au/tuckshop/internal/auth/kv"
	kvmemory "github.com/tuckshop-au/tuckshop/internal/auth/kv/drivers/memory"
	kvredis "github.com/tuckshop-au/tuckshop/internal/auth/kv/drivers/redis"
	"github.com/tuckshop-au/tuckshop/internal/auth/service"
	"github.com/tuckshop-au/tuckshop/internal/auth/store"
	"github.com/tuckshop-au/tuckshop/internal/auth/store/drivers/sqlite"
	"github.com/tuckshop-au/tuckshop/pkg/jwtx"
	"github.com/tuckshop-au/tuckshop/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db    store.Store
	kv    kv.Store
	codec *jwtx.Codec

	// Services
	lifecycle           *service.LifecycleManager
	lockout             *service.LockoutPolicy
	authenticator       *service.Authenticator
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized. Configuration
// problems surface here, before the server ever binds a port.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	codec, err := jwtx.NewCodec(jwtx.Config{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initKV(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.kv.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the credential store and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initKV selects the session/token state backend. Redis when configured,
// otherwise the in-process store, which only suits a single instance since
// sessions and lockout counters vanish on restart.
func (app *Application) initKV() error {
	if app.cfg.RedisAddr == "" {
		app.logger.Warn("REDIS_ADDR not set, using in-memory session store; sessions will not survive restarts")
		app.kv = kvmemory.New()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	kvStore, err := kvredis.New(ctx, app.cfg.RedisAddr, app.cfg.RedisPassword, app.cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.kv = kvStore

	app.logger.Info("connected to redis session store", "addr", app.cfg.RedisAddr)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.lifecycle = &service.LifecycleManager{
		Codec: app.codec,
		KV:    app.kv,
		Store: app.db,
		TTLs: service.TokenTTLs{
			Access:          app.cfg.AccessTTL,
			Refresh:         app.cfg.RefreshTTL,
			AccessRemember:  app.cfg.AccessRememberTTL,
			RefreshRemember: app.cfg.RefreshRememberTTL,
		},
	}

	app.lockout = &service.LockoutPolicy{
		KV:        app.kv,
		Threshold: app.cfg.LockoutThreshold,
		Window:    app.cfg.LockoutWindow,
	}

	app.authenticator = &service.Authenticator{
		Store:     app.db,
		Lockout:   app.lockout,
		Lifecycle: app.lifecycle,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.lifecycle,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.kv,
		app.logger,
	)

	router.Authenticator = app.authenticator
	router.Lifecycle = app.lifecycle
	router.AllowInsecureLogin = app.cfg.AllowInsecureLogin
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
