package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/boddenberg/vip-insights-bfa-go/internal/domain"
	"github.com/boddenberg/vip-insights-bfa-go/internal/infra/observability"
	"github.com/boddenberg/vip-insights-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract of the VIP insights dashboard.
func NewRouter(transitionSvc *service.TransitionService, insightSvc *service.InsightService, assignSvc *service.AssignmentService, tokenSvc *service.TokenService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(requestMetricsMiddleware(metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(assignSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Tier analytics
		// POST /v1/analytics/tier-transitions
		// POST /v1/analytics/tier-insights
		// GET  /v1/analytics/tiers
		// =============================================
		r.Post("/analytics/tier-transitions", tierTransitionsHandler(transitionSvc, logger))
		r.Post("/analytics/tier-insights", tierInsightsHandler(insightSvc, logger))
		r.Get("/analytics/tiers", tiersHandler(transitionSvc))

		// =============================================
		// Engine metrics
		// GET /v1/metrics/engine
		// =============================================
		r.Get("/metrics/engine", engineMetricsHandler(metrics, logger))

		// =============================================
		// VIP assignments (protected)
		// =============================================
		if tokenSvc == nil {
			r.Handle("/assignments/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "assignments unavailable: auth not configured")
			}))
			return
		}
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(tokenSvc, logger))
			r.Get("/assignments/{customerKey}", getAssignmentHandler(assignSvc, logger))
			r.Put("/assignments/{customerKey}", putAssignmentHandler(assignSvc, logger))
			r.Delete("/assignments/{customerKey}", deleteAssignmentHandler(assignSvc, logger))
			r.Post("/assignments/bulk", bulkAssignmentsHandler(assignSvc, logger))
		})
	})

	return r
}

// requestMetricsMiddleware counts every finished request by outcome.
func requestMetricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := "success"
			if ww.Status() >= 400 {
				status = "error"
			}
			metrics.IncrRequest(status)
		})
	}
}

// ============================================================
// Operational handlers
// ============================================================

func healthzHandler(assignSvc *service.AssignmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "vip-insights-api", Status: "healthy", LatencyMs: 0, UptimePercent: 99.99, LastChecked: now},
		}

		if assignSvc != nil {
			start := time.Now()
			_, err := assignSvc.Get(ctx, "health-check")
			latency := time.Since(start).Milliseconds()

			// An absent assignment still proves the store answered.
			status := "healthy"
			var notFound *domain.ErrNotFound
			if err != nil && !errors.As(err, &notFound) {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency,
				UptimePercent: 99.9, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
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
