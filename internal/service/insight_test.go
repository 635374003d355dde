package service_test

import (
	"context"
	"testing"

	"github.com/boddenberg/vip-insights-bfa-go/internal/domain"
	"github.com/boddenberg/vip-insights-bfa-go/internal/infra/observability"
	"github.com/boddenberg/vip-insights-bfa-go/internal/service"

	"go.uber.org/zap"
)

func TestPctChange(t *testing.T) {
	cases := []struct {
		name   string
		base   float64
		target float64
		want   float64
	}{
		{"both zero", 0, 0, 0},
		{"growth from zero base pins at 100", 0, 5, 100},
		{"growth", 100, 150, 50},
		{"decline", 100, 50, -50},
		{"to zero", 100, 0, -100},
	}
	for _, tc := range cases {
		if got := service.PctChange(tc.base, tc.target); got != tc.want {
			t.Errorf("%s: PctChange(%v, %v) = %v, want %v", tc.name, tc.base, tc.target, got, tc.want)
		}
	}
}

func depositRow(key, tier string, deposit float64) domain.SnapshotRow {
	return domain.SnapshotRow{CustomerKey: key, Line: "sportsbook", TierName: tier, DepositAmount: deposit}
}

func TestBuildInsights_MatchWithinTolerance(t *testing.T) {
	// VIP: customers 5 -> 6 (+20%), deposits 100 -> 115 (+15%). Delta is
	// exactly 5.0, which still counts as a match.
	rowsA := []domain.SnapshotRow{
		depositRow("c-1", "VIP", 20), depositRow("c-2", "VIP", 20),
		depositRow("c-3", "VIP", 20), depositRow("c-4", "VIP", 20),
		depositRow("c-5", "VIP", 20),
	}
	rowsB := []domain.SnapshotRow{
		depositRow("c-1", "VIP", 20), depositRow("c-2", "VIP", 20),
		depositRow("c-3", "VIP", 20), depositRow("c-4", "VIP", 20),
		depositRow("c-5", "VIP", 20), depositRow("c-6", "VIP", 15),
	}
	snapshots := &mockSnapshotSource{periods: map[string][]domain.SnapshotRow{
		periodA.From: rowsA,
		periodB.From: rowsB,
	}}

	svc := service.NewInsightService(snapshots, observability.NewMetrics(), zap.NewNop())
	insights, err := svc.BuildInsights(context.Background(), "sportsbook", periodA, periodB)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(insights) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(insights))
	}

	got := insights[0]
	if got.TierName != "VIP" {
		t.Errorf("expected VIP, got %s", got.TierName)
	}
	if got.CustomerCountChangePct != 20 {
		t.Errorf("expected customer growth 20%%, got %v", got.CustomerCountChangePct)
	}
	if got.DepositAmountChangePct != 15 {
		t.Errorf("expected deposit growth 15%%, got %v", got.DepositAmountChangePct)
	}
	if got.MatchDelta != 5 {
		t.Errorf("expected delta 5, got %v", got.MatchDelta)
	}
	if got.MatchStatus != domain.MatchStatusMatch {
		t.Errorf("expected match at the tolerance boundary, got %s", got.MatchStatus)
	}
}

func TestBuildInsights_ChurnRiskWhenCustomersOutpaceDeposits(t *testing.T) {
	// Potential: customers 5 -> 6 (+20%), deposits 100 -> 112 (+12%).
	// Delta 8 exceeds tolerance and customer growth leads.
	rowsA := []domain.SnapshotRow{
		depositRow("c-1", "Potential", 20), depositRow("c-2", "Potential", 20),
		depositRow("c-3", "Potential", 20), depositRow("c-4", "Potential", 20),
		depositRow("c-5", "Potential", 20),
	}
	rowsB := []domain.SnapshotRow{
		depositRow("c-1", "Potential", 20), depositRow("c-2", "Potential", 20),
		depositRow("c-3", "Potential", 20), depositRow("c-4", "Potential", 20),
		depositRow("c-5", "Potential", 20), depositRow("c-6", "Potential", 12),
	}
	snapshots := &mockSnapshotSource{periods: map[string][]domain.SnapshotRow{
		periodA.From: rowsA,
		periodB.From: rowsB,
	}}

	svc := service.NewInsightService(snapshots, observability.NewMetrics(), zap.NewNop())
	insights, err := svc.BuildInsights(context.Background(), "sportsbook", periodA, periodB)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(insights) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(insights))
	}
	if insights[0].MatchStatus != domain.MatchStatusChurnRisk {
		t.Errorf("expected churn_risk, got %s", insights[0].MatchStatus)
	}
	if insights[0].MatchDelta != 8 {
		t.Errorf("expected delta 8, got %v", insights[0].MatchDelta)
	}
}

func TestBuildInsights_ValueUpWhenDepositsOutpaceCustomers(t *testing.T) {
	// Tier2: customers flat, deposits 100 -> 140 (+40%).
	rowsA := []domain.SnapshotRow{depositRow("c-1", "Tier2", 100)}
	rowsB := []domain.SnapshotRow{depositRow("c-1", "Tier2", 140)}
	snapshots := &mockSnapshotSource{periods: map[string][]domain.SnapshotRow{
		periodA.From: rowsA,
		periodB.From: rowsB,
	}}

	svc := service.NewInsightService(snapshots, observability.NewMetrics(), zap.NewNop())
	insights, err := svc.BuildInsights(context.Background(), "sportsbook", periodA, periodB)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if insights[0].MatchStatus != domain.MatchStatusValueUp {
		t.Errorf("expected value_up, got %s", insights[0].MatchStatus)
	}
}

func TestBuildInsights_OrderedByRankAndSkipsAbsentTiers(t *testing.T) {
	snapshots := &mockSnapshotSource{periods: map[string][]domain.SnapshotRow{
		periodA.From: {depositRow("c-1", "Regular", 10), depositRow("c-2", "Super VIP", 900)},
		periodB.From: {depositRow("c-1", "Regular", 12), depositRow("c-2", "Super VIP", 950)},
	}}

	svc := service.NewInsightService(snapshots, observability.NewMetrics(), zap.NewNop())
	insights, err := svc.BuildInsights(context.Background(), "sportsbook", periodA, periodB)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(insights) != 2 {
		t.Fatalf("expected 2 insights, got %d", len(insights))
	}
	if insights[0].TierName != "Super VIP" || insights[1].TierName != "Regular" {
		t.Errorf("expected rank order [Super VIP, Regular], got [%s, %s]", insights[0].TierName, insights[1].TierName)
	}
}

func TestBuildInsights_UnknownTiersCollapseIntoTrailingRow(t *testing.T) {
	// Tier names outside the rank table still get an insight row, pooled
	// under Unknown and listed after the known tiers.
	snapshots := &mockSnapshotSource{periods: map[string][]domain.SnapshotRow{
		periodA.From: {depositRow("c-1", "VIP", 100), depositRow("c-2", "Mystery Gold", 50)},
		periodB.From: {depositRow("c-1", "VIP", 100), depositRow("c-2", "Mystery Gold", 60), depositRow("c-3", "Mystery Silver", 10)},
	}}

	svc := service.NewInsightService(snapshots, observability.NewMetrics(), zap.NewNop())
	insights, err := svc.BuildInsights(context.Background(), "sportsbook", periodA, periodB)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(insights) != 2 {
		t.Fatalf("expected 2 insights, got %d", len(insights))
	}
	if insights[0].TierName != "VIP" || insights[1].TierName != "Unknown" {
		t.Fatalf("expected [VIP, Unknown], got [%s, %s]", insights[0].TierName, insights[1].TierName)
	}

	// The pooled row: customers 1 -> 2 (+100%), deposits 50 -> 70 (+40%).
	unknown := insights[1]
	if unknown.CustomerCountChangePct != 100 {
		t.Errorf("expected customer growth 100%%, got %v", unknown.CustomerCountChangePct)
	}
	if unknown.DepositAmountChangePct != 40 {
		t.Errorf("expected deposit growth 40%%, got %v", unknown.DepositAmountChangePct)
	}
	if unknown.MatchStatus != domain.MatchStatusChurnRisk {
		t.Errorf("expected churn_risk, got %s", unknown.MatchStatus)
	}
}

func TestBuildInsights_NewTierPinsGrowthAt100(t *testing.T) {
	snapshots := &mockSnapshotSource{periods: map[string][]domain.SnapshotRow{
		periodA.From: {},
		periodB.From: {depositRow("c-1", "Overflow", 50)},
	}}

	svc := service.NewInsightService(snapshots, observability.NewMetrics(), zap.NewNop())
	insights, err := svc.BuildInsights(context.Background(), "sportsbook", periodA, periodB)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(insights) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(insights))
	}
	if insights[0].CustomerCountChangePct != 100 || insights[0].DepositAmountChangePct != 100 {
		t.Errorf("expected both growth figures pinned at 100, got %v / %v",
			insights[0].CustomerCountChangePct, insights[0].DepositAmountChangePct)
	}
	if insights[0].MatchStatus != domain.MatchStatusMatch {
		t.Errorf("expected match, got %s", insights[0].MatchStatus)
	}
}
