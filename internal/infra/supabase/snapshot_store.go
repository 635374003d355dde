package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boddenberg/vip-insights-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Snapshot source — materialized per-customer period rows
// ============================================================

// SnapshotStore implements port.SnapshotSource on top of the
// load_period_snapshot RPC. The warehouse computes had_prior_activity
// against the configured lookback window, so callers never see raw
// history.
type SnapshotStore struct {
	client         *Client
	lookbackMonths int
}

// NewSnapshotStore creates a snapshot source with the given lookback
// window in months.
func NewSnapshotStore(client *Client, lookbackMonths int) *SnapshotStore {
	return &SnapshotStore{client: client, lookbackMonths: lookbackMonths}
}

// snapshotRow maps the RPC result columns to our domain.
type snapshotRow struct {
	CustomerKey      string  `json:"customer_key"`
	Line             string  `json:"line"`
	TierName         string  `json:"tier_name"`
	DepositAmount    float64 `json:"deposit_amount"`
	TurnoverAmount   float64 `json:"turnover_amount"`
	BetCount         int     `json:"bet_count"`
	HadPriorActivity bool    `json:"had_prior_activity"`
}

// LoadPeriod fetches the snapshot rows for one line and period.
func (s *SnapshotStore) LoadPeriod(ctx context.Context, line string, period domain.DateRange) ([]domain.SnapshotRow, error) {
	ctx, span := tracer.Start(ctx, "Supabase.LoadPeriod")
	defer span.End()
	span.SetAttributes(
		attribute.String("snapshot.line", line),
		attribute.String("snapshot.from", period.From),
		attribute.String("snapshot.to", period.To),
	)

	var result []domain.SnapshotRow

	err := s.client.execute(ctx, func() error {
		body, err := s.client.doPost(ctx, "rpc/load_period_snapshot", map[string]any{
			"p_line":            line,
			"p_from":            period.From,
			"p_to":              period.To,
			"p_lookback_months": s.lookbackMonths,
		}, "")
		if err != nil {
			return err
		}

		if len(body) == 0 || string(body) == "[]" {
			result = []domain.SnapshotRow{}
			return nil
		}

		var rows []snapshotRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode snapshot rows: %w", err)
		}

		result = make([]domain.SnapshotRow, 0, len(rows))
		for _, r := range rows {
			result = append(result, domain.SnapshotRow{
				CustomerKey:      r.CustomerKey,
				Line:             r.Line,
				TierName:         r.TierName,
				DepositAmount:    r.DepositAmount,
				TurnoverAmount:   r.TurnoverAmount,
				BetCount:         r.BetCount,
				HadPriorActivity: r.HadPriorActivity,
			})
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrRepository{Operation: "snapshot.load_period", Err: err}
	}

	return result, nil
}
