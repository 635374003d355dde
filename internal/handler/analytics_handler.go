package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/vip-insights-bfa-go/internal/domain"
	"github.com/boddenberg/vip-insights-bfa-go/internal/infra/observability"
	"github.com/boddenberg/vip-insights-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Tier analytics
// ============================================================

// analysisRequest is the shared body for the transition and insight
// endpoints: one line, two comparison periods.
type analysisRequest struct {
	Line    string           `json:"line"`
	PeriodA domain.DateRange `json:"period_a"`
	PeriodB domain.DateRange `json:"period_b"`
}

// transitionResponse flattens the matrix into slices aligned with
// tier_order so the dashboard can render it directly.
type transitionResponse struct {
	ReportID   string                    `json:"report_id"`
	TierOrder  []domain.TierRef          `json:"tier_order"`
	Rows       []domain.MatrixRow        `json:"rows"`
	ColTotals  []int                     `json:"col_totals"`
	GrandTotal int                       `json:"grand_total"`
	Summary    *domain.TransitionSummary `json:"summary"`
}

func tierTransitionsHandler(svc *service.TransitionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analytics/tier-transitions")
		defer span.End()

		var req analysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		report, err := svc.BuildReport(ctx, req.Line, req.PeriodA, req.PeriodB)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		colTotals := make([]int, 0, len(report.Matrix.TierOrder))
		for _, tier := range report.Matrix.TierOrder {
			colTotals = append(colTotals, report.Matrix.ColTotals[tier.Rank])
		}

		writeJSON(w, http.StatusOK, transitionResponse{
			ReportID:   report.ReportID,
			TierOrder:  report.Matrix.TierOrder,
			Rows:       service.MatrixRows(report.Matrix),
			ColTotals:  colTotals,
			GrandTotal: report.Matrix.GrandTotal,
			Summary:    report.Summary,
		})
	}
}

func tierInsightsHandler(svc *service.InsightService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analytics/tier-insights")
		defer span.End()

		var req analysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		insights, err := svc.BuildInsights(ctx, req.Line, req.PeriodA, req.PeriodB)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"insights": insights})
	}
}

func tiersHandler(svc *service.TransitionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"tiers": svc.Tiers()})
	}
}

func engineMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := metrics.GetEngineSnapshot()
		writeJSON(w, http.StatusOK, snapshot)
	}
}
