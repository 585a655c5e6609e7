package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/config"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/handler"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/infra/cache"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/infra/client"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/infra/observability"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/infra/sqlite"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/planning"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/port"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/service"

	"go.uber.org/zap"
)

// staleRetention is how long an expired item snapshot may still be served
// when the planning store is down.
const staleRetention = 15 * time.Minute

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	loc, _ := cfg.Location()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.String("timezone", loc.String()),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Bool("auth_enabled", cfg.JWTSecret != ""),
		zap.String("saved_views_db", cfg.SavedViewsDB),
	)

	// --- Tracing ---
	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "wedding-planner-bfa")
		if err != nil {
			logger.Fatal("failed to init tracer", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Catalog ---
	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.String("path", cfg.CatalogPath), zap.Error(err))
	}

	// --- Cache ---
	itemCache := cache.New[[]domain.PlanningItem](cfg.CacheTTL, cache.WithStaleRetention(staleRetention))
	defer itemCache.Close()
	viewCache := cache.New[any](cfg.CacheTTL)
	defer viewCache.Close()

	// --- Resilience ---
	guard := resilience.NewGuard("planning-store", resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	})

	// --- Planning store ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var store port.PlanningStore
	if cfg.UseSupabase {
		logger.Info("using Supabase as planning store",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		store = supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			guard,
			logger,
		)
	} else {
		logger.Info("using planning REST API as planning store",
			zap.String("planning_api_url", cfg.PlanningAPIURL),
		)
		store = client.NewItemsClient(httpClient, cfg.PlanningAPIURL, guard)
	}

	// --- Saved views ---
	db, err := sqlite.OpenDB(cfg.SavedViewsDB)
	if err != nil {
		logger.Fatal("failed to open saved views database", zap.Error(err))
	}
	defer db.Close()

	// --- Services ---
	planSvc := service.NewPlanningService(
		store,
		itemCache,
		viewCache,
		metrics,
		logger,
		service.WithLocation(loc),
		service.WithTimeframes(planning.NewTimeframeTable(catalog.Timeframes)),
	)
	viewSvc := service.NewSavedViewService(sqlite.NewSavedViewStore(db), planSvc, logger)
	verifier := service.NewTokenVerifier(cfg.JWTSecret)
	if !verifier.Enabled() {
		logger.Warn("JWT_SECRET not set, project routes are unauthenticated")
	}

	// --- Router ---
	router := handler.NewRouter(planSvc, viewSvc, verifier, catalog, cfg.AllowedOrigins, metrics, logger)

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
