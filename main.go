// chemref-api serves chemical reference data (ATC classification, ChEMBL
// chemical representations, RESID modifications) over HTTP, with cached
// artifacts refreshed on a daily schedule.
package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rcsb/chemref-api/config"
	"github.com/rcsb/chemref-api/fetch"
	"github.com/rcsb/chemref-api/health"
	"github.com/rcsb/chemref-api/logging"
	"github.com/rcsb/chemref-api/registry"
	"github.com/rcsb/chemref-api/scheduler"
	"github.com/rcsb/chemref-api/server"
	"github.com/rcsb/chemref-api/sources"
	"github.com/rcsb/chemref-api/stash"
)

func main() {
	// Load .env file if present; environment variables win either way
	if err := godotenv.Load(); err != nil {
		logging.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	// Initialize slog for structured logging to console and file
	logging.InitLogger("logs")

	store, err := stash.NewStore(cfg.CacheDir)
	if err != nil {
		logging.Error("Failed to initialize cache store", "error", err)
		os.Exit(1)
	}

	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		logging.Error("Failed to load source catalog", "error", err)
		os.Exit(1)
	}

	fetcher := fetch.NewFetcher(time.Duration(cfg.FetchTimeoutSec) * time.Second)

	providers, err := sources.BuildProviders(catalog, store, fetcher, cfg.WorkDir)
	if err != nil {
		logging.Error("Failed to build providers", "error", err)
		os.Exit(1)
	}

	reg := registry.NewRegistry(providers...)
	healthChecker := health.NewHealthChecker(reg)
	sched := scheduler.NewScheduler(reg)

	// Initial load runs in the background so the server comes up immediately;
	// providers answer 503 until their first load completes.
	go func() {
		if err := sched.Start(); err != nil {
			logging.Error("Scheduler failed to start", "error", err)
		}
	}()
	defer sched.Stop()

	srv := server.NewServer(cfg, reg, healthChecker)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
		os.Exit(1)
	}
}
