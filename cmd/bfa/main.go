package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/vip-insights-bfa-go/internal/config"
	"github.com/boddenberg/vip-insights-bfa-go/internal/handler"
	"github.com/boddenberg/vip-insights-bfa-go/internal/infra/cache"
	"github.com/boddenberg/vip-insights-bfa-go/internal/infra/observability"
	"github.com/boddenberg/vip-insights-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/vip-insights-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/vip-insights-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("classify_workers", cfg.ClassifyWorkers),
		zap.Int("snapshot_lookback_months", cfg.SnapshotLookbackMonths),
	)

	if !cfg.UseSupabase || cfg.SupabaseURL == "" {
		logger.Fatal("Supabase is the only configured backend; set SUPABASE_URL")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "vip-insights-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	directoryCache := cache.New[string](cfg.CacheTTL)
	defer directoryCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Stores ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	supabaseClient := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)
	snapshotStore := supabase.NewSnapshotStore(supabaseClient, cfg.SnapshotLookbackMonths)
	assignmentStore := supabase.NewAssignmentStore(supabaseClient)
	directory := supabase.NewHandlerDirectory(supabaseClient, directoryCache, metrics)

	// --- Services ---
	transitionSvc := service.NewTransitionService(snapshotStore, metrics, logger, cfg.ClassifyWorkers)
	insightSvc := service.NewInsightService(snapshotStore, metrics, logger)
	assignSvc := service.NewAssignmentService(assignmentStore, directory, cfg.MaxConcurrency, metrics, logger)
	tokenSvc := service.NewTokenService(cfg.JWTSecret)

	// --- Router ---
	router := handler.NewRouter(transitionSvc, insightSvc, assignSvc, tokenSvc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
