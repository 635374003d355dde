package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/vip-insights-bfa-go/internal/domain"
	"github.com/boddenberg/vip-insights-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// VIP assignments
// ============================================================

type saveAssignmentRequest struct {
	Line       string `json:"line"`
	SNRAccount string `json:"snr_account"`
}

func getAssignmentHandler(svc *service.AssignmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/assignments/{customerKey}")
		defer span.End()

		customerKey := chi.URLParam(r, "customerKey")
		span.SetAttributes(attribute.String("customer_key", customerKey))

		rec, err := svc.Get(ctx, customerKey)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func putAssignmentHandler(svc *service.AssignmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/assignments/{customerKey}")
		defer span.End()

		customerKey := chi.URLParam(r, "customerKey")
		span.SetAttributes(attribute.String("customer_key", customerKey))

		var req saveAssignmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rec, err := svc.Save(ctx, domain.AssignmentItem{
			CustomerKey: customerKey,
			Line:        req.Line,
			SNRAccount:  req.SNRAccount,
		}, AnalystFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func deleteAssignmentHandler(svc *service.AssignmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/assignments/{customerKey}")
		defer span.End()

		customerKey := chi.URLParam(r, "customerKey")
		span.SetAttributes(attribute.String("customer_key", customerKey))

		if err := svc.Clear(ctx, customerKey, AnalystFromContext(ctx)); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

type bulkAssignmentRequest struct {
	Items []domain.AssignmentItem `json:"items"`
}

func bulkAssignmentsHandler(svc *service.AssignmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/assignments/bulk")
		defer span.End()

		var req bulkAssignmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.Int("items", len(req.Items)))

		result, err := svc.BulkSave(ctx, req.Items, AnalystFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
