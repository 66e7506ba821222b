package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raushankrgupta/catalog-scraper/api"
	"github.com/raushankrgupta/catalog-scraper/config"
	"github.com/raushankrgupta/catalog-scraper/scrapers"
	"github.com/raushankrgupta/catalog-scraper/utils"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	zap.ReplaceGlobals(logger)
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := scrapers.NewMetrics()
	factory := scrapers.NewFactory(cfg)
	publisher, cleanup := factory.NewPublisher(ctx, metrics)
	defer cleanup()

	handler := api.NewHandler(cfg.DataDir, cfg.MaxConcurrentRuns, factory.NewPageReader, metrics, publisher)
	if lister, ok := publisher.Recorder.(api.RunLister); ok {
		handler.Runs = lister
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/scrape/category", handler.CategoryHandler)
	mux.HandleFunc("/scrape/product", handler.ProductHandler)
	mux.HandleFunc("/runs/catalog", handler.CatalogRunsHandler)
	mux.HandleFunc("/runs/product", handler.ProductRunsHandler)
	mux.HandleFunc("/healthz", api.HealthHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           utils.LatencyMiddleware(utils.CORSMiddleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		logger.Info("shutdown signal received, waiting for in-flight runs to finish")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Server starting", zap.String("port", cfg.Port), zap.String("backend", cfg.Backend))
	fmt.Printf("Usage: curl \"http://localhost:%s/scrape/category?url=<category_url>\"\n", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed to start", zap.Error(err))
	}
	<-shutdownDone
}
