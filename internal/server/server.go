// Package server provides the main server initialization and run logic.
package server

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

	"github.com/floatbank/floatbank/internal/api"
	"github.com/floatbank/floatbank/internal/api/handlers"
	"github.com/floatbank/floatbank/internal/audit"
	"github.com/floatbank/floatbank/internal/auth"
	"github.com/floatbank/floatbank/internal/blob"
	"github.com/floatbank/floatbank/internal/config"
	"github.com/floatbank/floatbank/internal/db"
	"github.com/floatbank/floatbank/internal/logger"
	"github.com/floatbank/floatbank/internal/rbac"
	"github.com/floatbank/floatbank/internal/service"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const defaultJWTSecret = "change-me-in-production"

// Config holds the server configuration options.
type Config struct {
	Port    int    // Port to run the server on (0 = use config default)
	Version string // Version string to report
}

// Run starts the server with the given configuration and blocks until the context is canceled.
func Run(ctx context.Context, cfg Config) error {
	// Set version in handlers
	if cfg.Version != "" {
		handlers.Version = cfg.Version
	}

	// Load configuration
	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Override port from CLI flag if provided
	if cfg.Port != 0 {
		appCfg.Server.Port = cfg.Port
	}

	// Initialize logger
	logger.Init(appCfg.Log.Format, appCfg.Log.Level)
	slog.Info("Starting floatbank server", "version", handlers.Version, "mode", appCfg.Server.Mode)

	if appCfg.Auth.JWTSecret == defaultJWTSecret {
		if appCfg.Server.Mode == "production" {
			return fmt.Errorf("auth.jwt_secret must be set in production mode")
		}
		slog.Warn("Using the default JWT secret; set FLOATBANK_AUTH_JWT_SECRET")
	}

	database, err := OpenDatabase(appCfg)
	if err != nil {
		return err
	}

	enforcer, err := rbac.NewEnforcer(database, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to initialize RBAC: %w", err)
	}

	// Create default admin user if configured
	if err := db.CreateDefaultAdmin(database, enforcer, db.AdminSeedFromEnv()); err != nil {
		return fmt.Errorf("failed to create default admin user: %w", err)
	}

	denylist, closeDenylist, err := createDenylist(appCfg, database)
	if err != nil {
		return fmt.Errorf("failed to initialize token denylist: %w", err)
	}
	defer closeDenylist()
	slog.Info("Token denylist initialized", "type", appCfg.Auth.Denylist)

	tokens, err := auth.NewTokenService(
		appCfg.Auth.JWTSecret,
		time.Duration(appCfg.Auth.TokenTTL)*time.Minute,
		time.Duration(appCfg.Auth.RefreshTTL)*time.Minute,
		denylist,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	store, err := blob.NewLocalStore(
		appCfg.Storage.Dir,
		appCfg.Server.BaseURL+appCfg.Storage.URLPrefix,
		int64(appCfg.Storage.MaxUploadMB)<<20,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}

	router := api.NewRouter(appCfg, api.Dependencies{
		DB:            database,
		Authenticator: auth.NewAuthenticator(database, tokens),
		Enforcer:      enforcer,
		Users:         service.NewUserService(database, store, enforcer),
		Recorder:      audit.NewRecorder(database),
		StorageDir:    store.Dir(),
	})

	addr := fmt.Sprintf(":%d", appCfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server stopped")
	return nil
}

// OpenDatabase connects to the configured database and applies migrations
func OpenDatabase(appCfg *config.Config) (*gorm.DB, error) {
	// Propagate app log level to database if not explicitly set
	if appCfg.Database.LogLevel == "" {
		appCfg.Database.LogLevel = appCfg.Log.Level
	}

	database, err := db.New(appCfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Database initialized", "driver", appCfg.Database.Driver)

	if err := db.Migrate(database); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database migrations completed")
	return database, nil
}

// RunWithSignalHandling starts the server and handles OS signals for graceful shutdown.
func RunWithSignalHandling(cfg Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Run server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, cfg)
	}()

	// Wait for signal or error
	select {
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig)
		cancel()
		// Wait for server to finish
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// createDenylist creates the token denylist based on configuration.
func createDenylist(cfg *config.Config, database *gorm.DB) (auth.Denylist, func(), error) {
	switch cfg.Auth.Denylist {
	case "database":
		return auth.NewDBDenylist(database), func() {}, nil
	case "valkey":
		if cfg.Auth.ValkeyAddr == "" {
			return nil, nil, fmt.Errorf("valkey address is required when denylist is valkey")
		}
		vd, err := auth.NewValkeyDenylist(cfg.Auth.ValkeyAddr)
		if err != nil {
			return nil, nil, err
		}
		return vd, vd.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported denylist: %s (supported: database, valkey)", cfg.Auth.Denylist)
	}
}
