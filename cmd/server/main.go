package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/vsinha/packplan/pkg/application/services/orchestration"
	"github.com/vsinha/packplan/pkg/application/services/session"
	"github.com/vsinha/packplan/pkg/infrastructure/config"
	"github.com/vsinha/packplan/pkg/infrastructure/events"
	"github.com/vsinha/packplan/pkg/infrastructure/logging"
	"github.com/vsinha/packplan/pkg/infrastructure/metrics"
	"github.com/vsinha/packplan/pkg/infrastructure/storage"
	"github.com/vsinha/packplan/pkg/interfaces/api"
)

func main() {
	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	repo, closeRepo, err := storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer closeRepo()

	store := events.NewInMemoryEventStore(logger)
	var metricsHandler fiber.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector, err := metrics.NewCollector(cfg.Metrics.Namespace, reg)
		if err != nil {
			logger.Fatal("failed to register metrics", zap.Error(err))
		}
		if err := store.Subscribe(events.AllSessionEvents, collector); err != nil {
			logger.Fatal("failed to subscribe metrics", zap.Error(err))
		}
		metricsHandler = api.MetricsHandler(reg)
	}

	orchestrator := orchestration.NewSubmissionOrchestrator(session.Config{
		Unit:           cfg.Engine.Unit(),
		GracePeriod:    cfg.Engine.GracePeriod,
		BatchThreshold: cfg.Engine.BatchThreshold,
		Logger:         logger,
		Publisher:      store,
	}, repo)

	app := api.NewApp(cfg.Server, logger)
	api.SetupRoutes(app, orchestrator, cfg.Metrics.Path, metricsHandler)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("packplan server starting", zap.String("addr", addr), zap.String("store", cfg.Database.Driver))
	if err := app.Listen(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
