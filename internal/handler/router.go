package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/config"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/infra/observability"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/service"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract of the wedding planner frontend.
func NewRouter(
	planSvc *service.PlanningService,
	viewSvc *service.SavedViewService,
	verifier *service.TokenVerifier,
	catalog *config.Catalog,
	allowedOrigins []string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	if catalog == nil {
		catalog = config.DefaultCatalog()
	}

	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.MetricsMiddleware(metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(planSvc))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog", catalogHandler(catalog))
		r.Get("/metrics/engine", engineMetricsHandler(metrics))
		r.Post("/views", statelessViewHandler(planSvc, logger))

		r.Route("/projects/{projectId}", func(r chi.Router) {
			r.Use(JWTAuthMiddleware(verifier, logger))
			r.Use(ProjectAccessMiddleware(planSvc, logger))

			// Items
			r.Get("/items", listItemsHandler(planSvc, logger))
			r.Post("/items", createItemHandler(planSvc, logger))
			r.Patch("/items/{itemId}", updateItemHandler(planSvc, logger))
			r.Delete("/items/{itemId}", deleteItemHandler(planSvc, logger))

			// Views
			r.Get("/timeline", timelineHandler(planSvc, logger))
			r.Get("/timeline/timeframes", timeframesHandler(planSvc, logger))
			r.Get("/budget/summary", summaryHandler(planSvc, domain.KindBudget, logger))
			r.Get("/vendors/summary", summaryHandler(planSvc, domain.KindVendor, logger))
			r.Get("/dashboard", dashboardHandler(planSvc, logger))

			// Saved views
			r.Get("/saved-views", listSavedViewsHandler(viewSvc, logger))
			r.Post("/saved-views", createSavedViewHandler(viewSvc, logger))
			r.Delete("/saved-views/{viewId}", deleteSavedViewHandler(viewSvc, logger))
			r.Get("/saved-views/{viewId}/timeline", savedViewTimelineHandler(viewSvc, planSvc, logger))
		})
	})

	return r
}

// ============================================================
// Probes & metrics
// ============================================================

func healthzHandler(planSvc *service.PlanningService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "planner-bfa", Status: "healthy", LastChecked: now},
		}

		if planSvc != nil {
			start := time.Now()
			supported, err := planSvc.Ping(r.Context())
			if supported {
				status := "healthy"
				if err != nil {
					status = "degraded"
				}
				services = append(services, domain.ServiceHealth{
					Name: "planning-store", Status: status,
					LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
				})
			}
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overallStatus = s.Status
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func engineMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}

func catalogHandler(catalog *config.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, catalog)
	}
}
