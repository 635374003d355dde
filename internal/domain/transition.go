package domain

// Movement types describe how a customer's tier changed between the two
// comparison periods. UPGRADE/DOWNGRADE/STABLE feed the transition matrix;
// NEW/REACTIVATION/CHURNED are reported as summary cards only, because one
// side of their transition is undefined.

// MovementType classifies a customer's tier change between Period A and B.
type MovementType string

const (
	MovementUpgrade      MovementType = "upgrade"
	MovementDowngrade    MovementType = "downgrade"
	MovementStable       MovementType = "stable"
	MovementNew          MovementType = "new"
	MovementReactivation MovementType = "reactivation"
	MovementChurned      MovementType = "churned"
)

// PeriodMetrics carries the per-customer monetary figures for one period.
type PeriodMetrics struct {
	DepositAmount  float64 `json:"deposit_amount"`
	TurnoverAmount float64 `json:"turnover_amount"`
	BetCount       int     `json:"bet_count"`
}

// CustomerPeriodRecord is the joined view of one customer across both
// comparison periods. A nil tier means the customer had no membership in
// that period. HadPriorActivity distinguishes a brand-new customer from a
// churned-and-returned one; it is populated by the snapshot source, which
// owns the lookback window.
type CustomerPeriodRecord struct {
	CustomerKey      string        `json:"customer_key"`
	Line             string        `json:"line"`
	PeriodATier      *TierRef      `json:"period_a_tier,omitempty"`
	PeriodBTier      *TierRef      `json:"period_b_tier,omitempty"`
	PeriodAMetrics   PeriodMetrics `json:"period_a_metrics"`
	PeriodBMetrics   PeriodMetrics `json:"period_b_metrics"`
	HadPriorActivity bool          `json:"had_prior_activity"`
}

// TransitionRecord is the classified outcome for one customer.
// Lifetime is a single analysis run.
type TransitionRecord struct {
	CustomerKey string       `json:"customer_key"`
	FromTier    *TierRef     `json:"from_tier,omitempty"`
	ToTier      *TierRef     `json:"to_tier,omitempty"`
	Movement    MovementType `json:"movement"`
}

// MatrixCell identifies one cell of the transition matrix by rank pair.
type MatrixCell struct {
	FromRank int `json:"from_rank"`
	ToRank   int `json:"to_rank"`
}

// TransitionMatrix is the N×N count matrix over tiers observed on either
// side of a matrix-eligible transition, plus marginal totals.
// Invariant: GrandTotal == Σ RowTotals == Σ ColTotals == count of records
// with movement in {upgrade, downgrade, stable}.
type TransitionMatrix struct {
	TierOrder  []TierRef          `json:"tier_order"`
	Cells      map[MatrixCell]int `json:"-"`
	RowTotals  map[int]int        `json:"row_totals"`
	ColTotals  map[int]int        `json:"col_totals"`
	GrandTotal int                `json:"grand_total"`
}

// Count returns the cell count for a (fromRank, toRank) pair.
func (m *TransitionMatrix) Count(fromRank, toRank int) int {
	return m.Cells[MatrixCell{FromRank: fromRank, ToRank: toRank}]
}

// SummaryCard is one movement-type counter with its share of the full
// considered population.
type SummaryCard struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TransitionSummary holds the six dashboard summary cards. Percentages are
// taken over TotalConsidered, which includes the non-matrix movements,
// not just the matrix-eligible ones.
type TransitionSummary struct {
	TotalConsidered int         `json:"total_considered"`
	Upgrade         SummaryCard `json:"upgrade"`
	Downgrade       SummaryCard `json:"downgrade"`
	Stable          SummaryCard `json:"stable"`
	New             SummaryCard `json:"new"`
	Reactivation    SummaryCard `json:"reactivation"`
	Churned         SummaryCard `json:"churned"`
}

// TransitionReport is the full analysis result returned to the dashboard.
// ReportID correlates exports and log lines for one analysis run.
type TransitionReport struct {
	ReportID string             `json:"report_id"`
	Matrix   *TransitionMatrix  `json:"matrix"`
	Summary  *TransitionSummary `json:"summary"`
}

// MatrixRow is the serialized form of one matrix row, used by the API
// response (maps keyed by struct are not JSON-friendly).
type MatrixRow struct {
	FromTier TierRef `json:"from_tier"`
	Counts   []int   `json:"counts"`
	RowTotal int     `json:"row_total"`
}

// SnapshotRow is one raw per-customer row from a period snapshot, as the
// warehouse materializes it. TierName is resolved to a TierRef by the
// transition engine.
type SnapshotRow struct {
	CustomerKey      string  `json:"customer_key"`
	Line             string  `json:"line"`
	TierName         string  `json:"tier_name"`
	DepositAmount    float64 `json:"deposit_amount"`
	TurnoverAmount   float64 `json:"turnover_amount"`
	BetCount         int     `json:"bet_count"`
	HadPriorActivity bool    `json:"had_prior_activity"`
}

// DateRange bounds a snapshot period (inclusive from, exclusive to).
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}
