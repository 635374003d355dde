package service

import (
	"context"
	"math"
	"time"

	"github.com/boddenberg/vip-insights-bfa-go/internal/domain"
	"github.com/boddenberg/vip-insights-bfa-go/internal/infra/observability"
	"github.com/boddenberg/vip-insights-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var insightTracer = otel.Tracer("service/insight")

// matchTolerance is the max percentage-point gap between customer and
// deposit growth still reported as a match.
const matchTolerance = 5.0

// InsightService computes per-tier growth mismatch insights.
type InsightService struct {
	snapshots port.SnapshotSource
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewInsightService creates an insight service.
func NewInsightService(snapshots port.SnapshotSource, metrics *observability.Metrics, logger *zap.Logger) *InsightService {
	return &InsightService{snapshots: snapshots, metrics: metrics, logger: logger}
}

// BuildInsights aggregates both periods per tier and flags tiers whose
// customer growth and deposit growth diverge. Tiers are returned in rank
// order; a tier absent from both periods is omitted.
func (s *InsightService) BuildInsights(ctx context.Context, line string, periodA, periodB domain.DateRange) ([]domain.TierInsight, error) {
	ctx, span := insightTracer.Start(ctx, "InsightService.BuildInsights")
	defer span.End()
	span.SetAttributes(attribute.String("line", line))

	if err := validatePeriods(line, periodA, periodB); err != nil {
		return nil, err
	}

	start := time.Now()

	var rowsA, rowsB []domain.SnapshotRow
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rowsA, err = s.snapshots.LoadPeriod(gctx, line, periodA)
		return err
	})
	g.Go(func() error {
		var err error
		rowsB, err = s.snapshots.LoadPeriod(gctx, line, periodB)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncrExternalError("supabase")
		return nil, err
	}

	baseline := aggregateByTier(rowsA)
	target := aggregateByTier(rowsB)

	// Known tiers in rank order first; tier names outside the rank table
	// collapse into one trailing Unknown row, same as the matrix.
	names := make([]string, 0, len(domain.KnownTiers())+1)
	for _, tier := range domain.KnownTiers() {
		names = append(names, tier.Name)
	}
	names = append(names, unknownTierName)

	insights := make([]domain.TierInsight, 0, len(names))
	for _, name := range names {
		base, inBase := baseline[name]
		tgt, inTarget := target[name]
		if !inBase && !inTarget {
			continue
		}

		custPct := PctChange(float64(base.CustomerCount), float64(tgt.CustomerCount))
		depPct := PctChange(base.DepositAmount, tgt.DepositAmount)
		delta := math.Abs(custPct - depPct)

		insights = append(insights, domain.TierInsight{
			TierName:               name,
			CustomerCountChangePct: custPct,
			DepositAmountChangePct: depPct,
			MatchDelta:             round2(delta),
			MatchStatus:            matchStatusFor(custPct, depPct),
		})
	}

	s.metrics.RecordRequestDuration("tier_insights", time.Since(start))
	s.logger.Info("tier insights built",
		zap.String("line", line),
		zap.Int("tiers", len(insights)),
	)

	return insights, nil
}

// PctChange computes the percentage change from base to target.
// Both zero yields 0; growth from a zero base is pinned at 100 so a
// division by zero never leaks into the dashboard.
func PctChange(base, target float64) float64 {
	if base == 0 && target == 0 {
		return 0
	}
	if base == 0 {
		return 100
	}
	return round2((target - base) / base * 100)
}

// matchStatusFor labels the growth gap. Within tolerance the tier is a
// match; otherwise the faster-growing side decides the direction.
func matchStatusFor(custPct, depPct float64) domain.MatchStatus {
	if math.Abs(custPct-depPct) <= matchTolerance {
		return domain.MatchStatusMatch
	}
	if custPct > depPct {
		return domain.MatchStatusChurnRisk
	}
	return domain.MatchStatusValueUp
}

func aggregateByTier(rows []domain.SnapshotRow) map[string]domain.TierMetrics {
	agg := make(map[string]domain.TierMetrics)
	for _, row := range rows {
		name := row.TierName
		if domain.RankOf(name) == domain.UnknownTierRank {
			name = unknownTierName
		}
		m := agg[name]
		m.TierName = name
		m.CustomerCount++
		m.DepositAmount += row.DepositAmount
		agg[name] = m
	}
	return agg
}
