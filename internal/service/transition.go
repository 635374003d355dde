// Package service provides the business logic layer (use cases).
// TransitionService classifies tier movements between two comparison
// periods and builds the transition matrix for the dashboard.
package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/boddenberg/vip-insights-bfa-go/internal/domain"
	"github.com/boddenberg/vip-insights-bfa-go/internal/infra/observability"
	"github.com/boddenberg/vip-insights-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var transitionTracer = otel.Tracer("service/transition")

// unknownTierName labels the collapsed bucket for tier names outside the
// rank table, in both the matrix and the insight rows.
const unknownTierName = "Unknown"

// TransitionService builds tier-transition reports from period snapshots.
type TransitionService struct {
	snapshots port.SnapshotSource
	metrics   *observability.Metrics
	logger    *zap.Logger
	workers   int
}

// NewTransitionService creates a transition service. workers bounds the
// classification fan-out.
func NewTransitionService(snapshots port.SnapshotSource, metrics *observability.Metrics, logger *zap.Logger, workers int) *TransitionService {
	if workers < 1 {
		workers = 1
	}
	return &TransitionService{snapshots: snapshots, metrics: metrics, logger: logger, workers: workers}
}

// Tiers returns the configured tier slicer entries, ordered by rank.
func (s *TransitionService) Tiers() []domain.TierRef {
	return domain.KnownTiers()
}

// BuildReport loads both period snapshots, classifies every customer seen
// in either period, and aggregates matrix plus summary cards.
func (s *TransitionService) BuildReport(ctx context.Context, line string, periodA, periodB domain.DateRange) (*domain.TransitionReport, error) {
	ctx, span := transitionTracer.Start(ctx, "TransitionService.BuildReport")
	defer span.End()
	span.SetAttributes(attribute.String("line", line))

	if err := validatePeriods(line, periodA, periodB); err != nil {
		return nil, err
	}

	start := time.Now()

	rowsA, rowsB, err := s.loadPeriods(ctx, line, periodA, periodB)
	if err != nil {
		s.metrics.IncrExternalError("supabase")
		return nil, err
	}

	records := joinPeriods(rowsA, rowsB)
	transitions, err := s.classifyAll(ctx, records)
	if err != nil {
		return nil, err
	}

	report := buildReport(transitions)
	report.ReportID = uuid.NewString()

	s.metrics.AddRecordsClassified(len(transitions))
	s.metrics.RecordRequestDuration("tier_transitions", time.Since(start))
	s.logger.Info("transition report built",
		zap.String("report_id", report.ReportID),
		zap.String("line", line),
		zap.Int("considered", report.Summary.TotalConsidered),
		zap.Int("matrix_total", report.Matrix.GrandTotal),
	)

	return report, nil
}

// loadPeriods fetches both period snapshots concurrently.
func (s *TransitionService) loadPeriods(ctx context.Context, line string, periodA, periodB domain.DateRange) ([]domain.SnapshotRow, []domain.SnapshotRow, error) {
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
		return nil, nil, err
	}
	return rowsA, rowsB, nil
}

// classifyAll classifies records with a bounded worker pool, preserving
// input order in the result slice. Records absent from both periods are
// dropped, they carry no movement.
func (s *TransitionService) classifyAll(ctx context.Context, records []domain.CustomerPeriodRecord) ([]domain.TransitionRecord, error) {
	classified := make([]domain.TransitionRecord, len(records))
	included := make([]bool, len(records))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			classified[i], included[i] = Classify(rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	transitions := make([]domain.TransitionRecord, 0, len(records))
	for i, t := range classified {
		if included[i] {
			transitions = append(transitions, t)
		}
	}
	return transitions, nil
}

// Classify resolves the movement type for one customer. The decision
// order is fixed: membership presence first, then rank comparison.
// Ranks are inverted (lower = higher value), so moving to a LOWER rank
// number is an upgrade. A customer absent from both periods has no
// movement to report; the second return is false and the record is
// excluded.
func Classify(rec domain.CustomerPeriodRecord) (domain.TransitionRecord, bool) {
	out := domain.TransitionRecord{
		CustomerKey: rec.CustomerKey,
		FromTier:    rec.PeriodATier,
		ToTier:      rec.PeriodBTier,
	}

	switch {
	case rec.PeriodATier == nil && rec.PeriodBTier == nil:
		return domain.TransitionRecord{}, false
	case rec.PeriodATier == nil:
		if rec.HadPriorActivity {
			out.Movement = domain.MovementReactivation
		} else {
			out.Movement = domain.MovementNew
		}
	case rec.PeriodBTier == nil:
		out.Movement = domain.MovementChurned
	default:
		fa, fb := rec.PeriodATier.Rank, rec.PeriodBTier.Rank
		switch {
		case fa > fb:
			out.Movement = domain.MovementUpgrade
		case fa < fb:
			out.Movement = domain.MovementDowngrade
		default:
			out.Movement = domain.MovementStable
		}
	}
	return out, true
}

// joinPeriods merges the two snapshot sides into per-customer records.
// A customer present in either period is considered.
func joinPeriods(rowsA, rowsB []domain.SnapshotRow) []domain.CustomerPeriodRecord {
	byKey := make(map[string]*domain.CustomerPeriodRecord, len(rowsA)+len(rowsB))
	order := make([]string, 0, len(rowsA)+len(rowsB))

	get := func(row domain.SnapshotRow) *domain.CustomerPeriodRecord {
		rec, ok := byKey[row.CustomerKey]
		if !ok {
			rec = &domain.CustomerPeriodRecord{
				CustomerKey: row.CustomerKey,
				Line:        row.Line,
			}
			byKey[row.CustomerKey] = rec
			order = append(order, row.CustomerKey)
		}
		if row.HadPriorActivity {
			rec.HadPriorActivity = true
		}
		return rec
	}

	for _, row := range rowsA {
		rec := get(row)
		tier := domain.TierByName(row.TierName)
		rec.PeriodATier = &tier
		rec.PeriodAMetrics = domain.PeriodMetrics{
			DepositAmount:  row.DepositAmount,
			TurnoverAmount: row.TurnoverAmount,
			BetCount:       row.BetCount,
		}
	}
	for _, row := range rowsB {
		rec := get(row)
		tier := domain.TierByName(row.TierName)
		rec.PeriodBTier = &tier
		rec.PeriodBMetrics = domain.PeriodMetrics{
			DepositAmount:  row.DepositAmount,
			TurnoverAmount: row.TurnoverAmount,
			BetCount:       row.BetCount,
		}
	}

	records := make([]domain.CustomerPeriodRecord, 0, len(order))
	for _, key := range order {
		records = append(records, *byKey[key])
	}
	return records
}

// buildReport aggregates classified transitions into the matrix and the
// six summary cards.
func buildReport(transitions []domain.TransitionRecord) *domain.TransitionReport {
	matrix := &domain.TransitionMatrix{
		Cells:     make(map[domain.MatrixCell]int),
		RowTotals: make(map[int]int),
		ColTotals: make(map[int]int),
	}

	// Tiers observed on either side of a matrix-eligible transition,
	// keyed by rank. Unknown tier names all share the sentinel rank and
	// collapse into one bucket.
	observed := make(map[int]domain.TierRef)
	counts := make(map[domain.MovementType]int)

	for _, t := range transitions {
		counts[t.Movement]++

		switch t.Movement {
		case domain.MovementUpgrade, domain.MovementDowngrade, domain.MovementStable:
		default:
			continue
		}

		from, to := *t.FromTier, *t.ToTier
		if from.Rank == domain.UnknownTierRank {
			from.Name = unknownTierName
		}
		if to.Rank == domain.UnknownTierRank {
			to.Name = unknownTierName
		}
		observed[from.Rank] = from
		observed[to.Rank] = to

		matrix.Cells[domain.MatrixCell{FromRank: from.Rank, ToRank: to.Rank}]++
		matrix.RowTotals[from.Rank]++
		matrix.ColTotals[to.Rank]++
		matrix.GrandTotal++
	}

	matrix.TierOrder = make([]domain.TierRef, 0, len(observed))
	for _, tier := range observed {
		matrix.TierOrder = append(matrix.TierOrder, tier)
	}
	sort.Slice(matrix.TierOrder, func(i, j int) bool {
		return matrix.TierOrder[i].Rank < matrix.TierOrder[j].Rank
	})

	total := len(transitions)
	summary := &domain.TransitionSummary{
		TotalConsidered: total,
		Upgrade:         card(counts[domain.MovementUpgrade], total),
		Downgrade:       card(counts[domain.MovementDowngrade], total),
		Stable:          card(counts[domain.MovementStable], total),
		New:             card(counts[domain.MovementNew], total),
		Reactivation:    card(counts[domain.MovementReactivation], total),
		Churned:         card(counts[domain.MovementChurned], total),
	}

	return &domain.TransitionReport{Matrix: matrix, Summary: summary}
}

// MatrixRows flattens the matrix into row slices following TierOrder,
// for JSON serialization.
func MatrixRows(m *domain.TransitionMatrix) []domain.MatrixRow {
	rows := make([]domain.MatrixRow, 0, len(m.TierOrder))
	for _, from := range m.TierOrder {
		row := domain.MatrixRow{
			FromTier: from,
			Counts:   make([]int, 0, len(m.TierOrder)),
			RowTotal: m.RowTotals[from.Rank],
		}
		for _, to := range m.TierOrder {
			row.Counts = append(row.Counts, m.Count(from.Rank, to.Rank))
		}
		rows = append(rows, row)
	}
	return rows
}

func card(count, total int) domain.SummaryCard {
	pct := 0.0
	if total > 0 {
		pct = round2(float64(count) / float64(total) * 100)
	}
	return domain.SummaryCard{Count: count, Percentage: pct}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func validatePeriods(line string, periodA, periodB domain.DateRange) error {
	if line == "" {
		return &domain.ErrValidation{Field: "line", Message: "required"}
	}
	for field, p := range map[string]domain.DateRange{"period_a": periodA, "period_b": periodB} {
		if p.From == "" || p.To == "" {
			return &domain.ErrValidation{Field: field, Message: "from and to are required"}
		}
		if p.From >= p.To {
			return &domain.ErrValidation{Field: field, Message: "from must precede to"}
		}
	}
	return nil
}
