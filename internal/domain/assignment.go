package domain

import "time"

// AssignmentRecord links a customer to the SNR staff account responsible for
// their relationship handling. Absence of a record means "unassigned";
// clearing deletes the record, so the two states are indistinguishable on read.
type AssignmentRecord struct {
	CustomerKey string     `json:"customer_key"`
	Line        string     `json:"line"`
	SNRAccount  string     `json:"snr_account,omitempty"`
	Handler     string     `json:"handler,omitempty"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	AssignedBy  string     `json:"assigned_by,omitempty"`
}

// AssignmentItem is one entry of a bulk save request.
type AssignmentItem struct {
	CustomerKey string `json:"customer_key"`
	Line        string `json:"line"`
	SNRAccount  string `json:"snr_account"`
}

// AssignmentResult reports the outcome of one assignment mutation.
// Errors cross the bulk boundary as values, never as returned errors,
// so one bad item cannot halt a batch.
type AssignmentResult struct {
	CustomerKey string `json:"customer_key"`
	Success     bool   `json:"success"`
	Handler     string `json:"handler,omitempty"`
	Error       string `json:"error,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
}

// BulkAssignmentResult aggregates per-item results in input order.
type BulkAssignmentResult struct {
	Results      []AssignmentResult `json:"results"`
	SuccessCount int                `json:"success_count"`
}
