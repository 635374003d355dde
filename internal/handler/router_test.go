package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boddenberg/vip-insights-bfa-go/internal/domain"
	"github.com/boddenberg/vip-insights-bfa-go/internal/handler"
	"github.com/boddenberg/vip-insights-bfa-go/internal/infra/observability"
	"github.com/boddenberg/vip-insights-bfa-go/internal/service"

	"go.uber.org/zap"
)

type stubSnapshotSource struct {
	periods map[string][]domain.SnapshotRow
}

func (s *stubSnapshotSource) LoadPeriod(_ context.Context, _ string, period domain.DateRange) ([]domain.SnapshotRow, error) {
	return s.periods[period.From], nil
}

func newTestRouter(snapshots *stubSnapshotSource) http.Handler {
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	transitionSvc := service.NewTransitionService(snapshots, metrics, logger, 2)
	insightSvc := service.NewInsightService(snapshots, metrics, logger)
	return handler.NewRouter(transitionSvc, insightSvc, nil, service.NewTokenService("test-secret"), metrics, logger)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&stubSnapshotSource{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := newTestRouter(&stubSnapshotSource{})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := newTestRouter(&stubSnapshotSource{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestTierSlicer(t *testing.T) {
	router := newTestRouter(&stubSnapshotSource{})

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/tiers", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Tiers []domain.TierRef `json:"tiers"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Tiers) == 0 {
		t.Fatal("expected at least one tier")
	}
	if body.Tiers[0].Name != "Super VIP" || body.Tiers[0].Rank != 1 {
		t.Errorf("expected Super VIP at rank 1 first, got %+v", body.Tiers[0])
	}
}

func TestTierTransitionsEndpoint(t *testing.T) {
	snapshots := &stubSnapshotSource{periods: map[string][]domain.SnapshotRow{
		"2026-07-01": {{CustomerKey: "c-1", Line: "sportsbook", TierName: "Regular"}},
		"2026-08-01": {{CustomerKey: "c-1", Line: "sportsbook", TierName: "Tier1"}},
	}}
	router := newTestRouter(snapshots)

	body := `{"line":"sportsbook","period_a":{"from":"2026-07-01","to":"2026-08-01"},"period_b":{"from":"2026-08-01","to":"2026-09-01"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/analytics/tier-transitions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ReportID   string `json:"report_id"`
		GrandTotal int    `json:"grand_total"`
		Summary    struct {
			TotalConsidered int `json:"total_considered"`
			Upgrade         struct {
				Count      int     `json:"count"`
				Percentage float64 `json:"percentage"`
			} `json:"upgrade"`
		} `json:"summary"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ReportID == "" {
		t.Error("expected a report id")
	}
	if resp.GrandTotal != 1 || resp.Summary.TotalConsidered != 1 {
		t.Errorf("expected single upgrade counted, got grand %d, considered %d", resp.GrandTotal, resp.Summary.TotalConsidered)
	}
	if resp.Summary.Upgrade.Count != 1 || resp.Summary.Upgrade.Percentage != 100 {
		t.Errorf("expected upgrade card 1 / 100%%, got %+v", resp.Summary.Upgrade)
	}
}

func TestTierTransitions_BadBody(t *testing.T) {
	router := newTestRouter(&stubSnapshotSource{})

	req := httptest.NewRequest(http.MethodPost, "/v1/analytics/tier-transitions", strings.NewReader("{"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAssignmentsRequireAuth(t *testing.T) {
	router := newTestRouter(&stubSnapshotSource{})

	req := httptest.NewRequest(http.MethodPut, "/v1/assignments/cust-1", strings.NewReader(`{"snr_account":"snr-1"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without bearer token, got %d", rec.Code)
	}
}
