package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autobazar/listing-editor/internal/api"
	"autobazar/listing-editor/internal/config"
	"autobazar/listing-editor/internal/db"
	"autobazar/listing-editor/internal/jobs"
	"autobazar/listing-editor/internal/logging"
	"autobazar/listing-editor/internal/metrics"
	"autobazar/listing-editor/internal/routes"
	"autobazar/listing-editor/internal/workers"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Listing editor agent starting up",
		"environment", cfg.AppEnv,
		"marketplace", cfg.Marketplace.BaseURL,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	sqlDB, err := db.Open(cfg.Database)
	if err != nil {
		logging.Error("Failed to open audit database", "error", err.Error())
		log.Fatalf("❌ Failed to open audit database: %v", err)
	}
	defer sqlDB.Close()

	orm, err := db.OpenORM(cfg.Database)
	if err != nil {
		logging.Error("Failed to open draft store", "error", err.Error())
		log.Fatalf("❌ Failed to open draft store: %v", err)
	}

	metricsReg := metrics.NewMetricsRegistry(prometheus.DefaultRegisterer)

	deps, err := api.InitDependencies(cfg, orm, sqlDB, metricsReg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize dependencies: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers.InitWorkers(ctx, cfg, deps.Services.Catalog, deps.Services.Editors)
	jobs.InitializeJobs(ctx, cfg.Drafts, deps.Repo.Drafts)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.RegisterRoutes(deps, time.Now()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("Server starting", "port", cfg.Port, "environment", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Graceful shutdown failed", "error", err)
	}
	if _, err := deps.Services.Editors.AutosaveAll(shutdownCtx); err != nil {
		logging.Warn("Final autosave incomplete", "error", err)
	}
	deps.Services.Editors.CloseAll()
	if err := deps.Store.Close(); err != nil {
		logging.Warn("Cache close failed", "error", err)
	}
}
