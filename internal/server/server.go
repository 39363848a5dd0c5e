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

	"github.com/signald/serverconf/internal/api"
	"github.com/signald/serverconf/internal/api/handlers"
	"github.com/signald/serverconf/internal/auth"
	"github.com/signald/serverconf/internal/cache"
	"github.com/signald/serverconf/internal/config"
	"github.com/signald/serverconf/internal/db"
	"github.com/signald/serverconf/internal/logger"
	"github.com/signald/serverconf/internal/serverfile"
	"github.com/signald/serverconf/internal/service"
	"golang.org/x/sync/errgroup"
)

// Config holds the server configuration options.
type Config struct {
	Port    int    // Port to run the server on (0 = use config default)
	Version string // Version string to report
}

// Run starts the server with the given configuration and blocks until the context is canceled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Version != "" {
		handlers.Version = cfg.Version
	}

	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Override port from CLI flag if provided
	if cfg.Port != 0 {
		appCfg.Server.Port = cfg.Port
	}

	logger.Init(appCfg.Log.Format, appCfg.Log.Level)
	slog.Info("Starting serverconf", "version", cfg.Version, "mode", appCfg.Server.Mode)

	// Propagate app log level to database if not explicitly set
	if appCfg.Database.LogLevel == "" {
		appCfg.Database.LogLevel = appCfg.Log.Level
	}

	database, err := db.New(appCfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Database initialized", "driver", appCfg.Database.Driver)

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database migrations completed")

	instanceID, err := db.GetOrCreateInstanceID(database)
	if err != nil {
		return fmt.Errorf("failed to initialize instance ID: %w", err)
	}
	slog.Info("Instance ID initialized", "instance_id", instanceID)

	serverCache, err := cache.New(appCfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer serverCache.Close()
	slog.Info("Server cache initialized", "type", appCfg.Cache.Type)

	authenticator, err := auth.New(appCfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize authentication: %w", err)
	}

	svc := service.New(database, serverCache, nil)

	if err := seed(ctx, svc, appCfg.Servers.Seed); err != nil {
		return fmt.Errorf("failed to import seed servers: %w", err)
	}

	router := api.NewRouter(appCfg, database, svc, authenticator, slog.Default())

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
		slog.Info("Server stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("serverconf exited")
	return nil
}

// RunWithSignalHandling starts the server and handles OS signals for graceful shutdown.
func RunWithSignalHandling(cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, cfg)
}

// seed imports the server definition files matched by patterns.
func seed(ctx context.Context, svc *service.ServerService, patterns []string) error {
	if len(patterns) == 0 {
		return nil
	}

	paths, err := serverfile.Glob(patterns)
	if err != nil {
		return err
	}
	defs, err := serverfile.LoadAll(ctx, paths)
	if err != nil {
		return err
	}

	result, err := svc.Import(ctx, defs, service.ActorSeed)
	if err != nil {
		return err
	}
	slog.Info("Seed servers imported", "files", len(paths), "created", len(result.Created), "skipped", len(result.Skipped))
	return nil
}
