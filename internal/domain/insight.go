package domain

// MatchStatus labels the relationship between customer-count growth and
// deposit growth for one tier.
type MatchStatus string

const (
	// MatchStatusMatch: growth rates track each other within tolerance.
	MatchStatusMatch MatchStatus = "match"
	// MatchStatusChurnRisk: customer count grows faster than deposits;
	// value per customer is falling (dilution by lower-value customers).
	MatchStatusChurnRisk MatchStatus = "churn_risk"
	// MatchStatusValueUp: deposits grow faster than customer count;
	// value is concentrating.
	MatchStatusValueUp MatchStatus = "value_up"
)

// TierMetrics is the per-tier aggregate for one comparison period.
type TierMetrics struct {
	TierName      string  `json:"tier_name"`
	CustomerCount int     `json:"customer_count"`
	DepositAmount float64 `json:"deposit_amount"`
}

// TierInsight is the growth-mismatch verdict for one tier.
type TierInsight struct {
	TierName               string      `json:"tier_name"`
	CustomerCountChangePct float64     `json:"customer_count_change_pct"`
	DepositAmountChangePct float64     `json:"deposit_amount_change_pct"`
	MatchDelta             float64     `json:"match_delta"`
	MatchStatus            MatchStatus `json:"match_status"`
}
