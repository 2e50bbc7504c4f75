package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"capital-risk/internal/api"
	"capital-risk/internal/api/handlers"
	"capital-risk/internal/config"
	"capital-risk/internal/logger"
	"capital-risk/internal/runs"
	"capital-risk/internal/selection"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config file (defaults and environment only when empty)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("API server stopped", "error", err)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := runs.Open(ctx, runs.Backend(cfg.Storage.Backend), storageTarget(cfg), log)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer store.Close()
	log.Info("Run store ready", "backend", cfg.Storage.Backend)

	selStore, closeSel, err := selection.Open(ctx, cfg.Selection)
	if err != nil {
		return fmt.Errorf("open selection store: %w", err)
	}
	defer closeSel()

	registry, err := selection.NewRegistry(ctx, selStore, selection.LimitsFrom(cfg.Selection), log)
	if err != nil {
		return fmt.Errorf("load selections: %w", err)
	}
	log.Info("Selection registry ready", "backend", cfg.Selection.Backend,
		"max_ild", registry.Limits().ILD, "max_scenario", registry.Limits().Scenario)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Runs:      store,
		Selection: registry,
		Dashboard: handlers.DashboardOptions{
			Plots:       cfg.Generator.Plots,
			Scenarios:   cfg.Generator.Scenarios,
			HistorySize: cfg.Generator.HistorySize,
		},
		Log:              log,
		Production:       cfg.IsProduction(),
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		StaticDir:        cfg.Server.StaticDir,
		StorageBackend:   cfg.Storage.Backend,
		SelectionBackend: cfg.Selection.Backend,
	})

	g, gctx := errgroup.WithContext(ctx)

	// Request contexts derive from gctx so open event streams end on shutdown.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		if err := registry.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Selection watcher stopped; remote changes will not be picked up", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("Starting API server", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// storageTarget is the data directory for the csv backend and the DSN otherwise.
func storageTarget(cfg *config.Config) string {
	if cfg.Storage.Backend == string(runs.BackendCSV) {
		return cfg.Storage.DataDir
	}
	return cfg.Storage.DSN
}
