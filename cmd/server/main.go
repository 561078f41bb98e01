package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cloud4india/cloud-pricing/internal/adapter"
	"github.com/cloud4india/cloud-pricing/internal/api/server"
	"github.com/cloud4india/cloud-pricing/internal/config"
	"github.com/cloud4india/cloud-pricing/internal/logger"
	"github.com/cloud4india/cloud-pricing/internal/scheduler"
	"github.com/cloud4india/cloud-pricing/internal/store"
	"github.com/cloud4india/cloud-pricing/internal/sync"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAppConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "pricing-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting cloud pricing server")

	// Open the cache database
	db, err := store.OpenDB(cfg.Database.Path)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to open database", zap.Error(err), zap.String("path", cfg.Database.Path))
	}
	dataStore := store.NewSQLiteStore(db)
	if err := dataStore.Migrate(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Cache database ready", zap.String("path", cfg.Database.Path))

	// Initialize adapters
	httpClient := adapter.NewHTTPClient(cfg.Upstream.HTTPTimeout)
	clock := adapter.NewClock()

	// Create the syncer and its scheduler
	syncer := sync.New(dataStore, httpClient, clock, cfg.Upstream)
	sched := scheduler.New(syncer, cfg.Upstream.SyncIntervalMinutes)

	// Refresh the cache on startup if stale, off the serving path
	go sched.RunInitialSync(ctx)

	if err := sched.Start(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to start sync scheduler", zap.Error(err))
	}

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		APIKeys:      cfg.Auth.APIKeys,
	}

	// Create and start server
	srv := server.New(serverConfig, dataStore, syncer, httpClient, clock)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down...")

	// Stop the scheduler before the server so no new sync starts mid-shutdown
	sched.Stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Pricing server stopped")
}
