package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/vip-insights-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// VIP assignments — CRUD via PostgREST
// ============================================================

// AssignmentStore implements port.AssignmentStore against the
// vip_assignments table. Save is an upsert keyed on customer_key so
// retried writes stay idempotent.
type AssignmentStore struct {
	client *Client
}

// NewAssignmentStore creates an assignment store.
func NewAssignmentStore(client *Client) *AssignmentStore {
	return &AssignmentStore{client: client}
}

// assignmentRow maps the vip_assignments table columns.
type assignmentRow struct {
	CustomerKey string  `json:"customer_key"`
	Line        string  `json:"line"`
	SNRAccount  string  `json:"snr_account"`
	Handler     string  `json:"handler"`
	AssignedAt  *string `json:"assigned_at"`
	AssignedBy  string  `json:"assigned_by"`
}

// Get fetches the assignment for a customer key.
// Returns *domain.ErrNotFound when no assignment exists.
func (s *AssignmentStore) Get(ctx context.Context, customerKey string) (*domain.AssignmentRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAssignment")
	defer span.End()
	span.SetAttributes(attribute.String("assignment.customer_key", customerKey))

	var rec *domain.AssignmentRecord

	err := s.client.execute(ctx, func() error {
		path := fmt.Sprintf("vip_assignments?customer_key=eq.%s&limit=1", url.QueryEscape(customerKey))
		body, err := s.client.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}

		if len(body) == 0 || string(body) == "[]" {
			return &domain.ErrNotFound{Resource: "assignment", ID: customerKey}
		}

		var rows []assignmentRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode assignment: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "assignment", ID: customerKey}
		}

		rec = rowToRecord(rows[0])
		return nil
	})
	if err != nil {
		if _, ok := err.(*domain.ErrNotFound); ok {
			return nil, err
		}
		return nil, &domain.ErrRepository{Operation: "assignment.get", Err: err}
	}

	return rec, nil
}

// Save upserts the assignment record.
func (s *AssignmentStore) Save(ctx context.Context, rec *domain.AssignmentRecord) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveAssignment")
	defer span.End()
	span.SetAttributes(attribute.String("assignment.customer_key", rec.CustomerKey))

	var assignedAt *string
	if rec.AssignedAt != nil {
		v := rec.AssignedAt.UTC().Format(time.RFC3339)
		assignedAt = &v
	}

	err := s.client.execute(ctx, func() error {
		_, err := s.client.doPost(ctx, "vip_assignments?on_conflict=customer_key", assignmentRow{
			CustomerKey: rec.CustomerKey,
			Line:        rec.Line,
			SNRAccount:  rec.SNRAccount,
			Handler:     rec.Handler,
			AssignedAt:  assignedAt,
			AssignedBy:  rec.AssignedBy,
		}, "resolution=merge-duplicates,return=minimal")
		return err
	})
	if err != nil {
		return &domain.ErrRepository{Operation: "assignment.save", Err: err}
	}
	return nil
}

// Clear removes the assignment for a customer key. Deleting an absent
// row is a no-op, so Clear stays idempotent.
func (s *AssignmentStore) Clear(ctx context.Context, customerKey string) error {
	ctx, span := tracer.Start(ctx, "Supabase.ClearAssignment")
	defer span.End()
	span.SetAttributes(attribute.String("assignment.customer_key", customerKey))

	err := s.client.execute(ctx, func() error {
		path := fmt.Sprintf("vip_assignments?customer_key=eq.%s", url.QueryEscape(customerKey))
		return s.client.doDelete(ctx, path)
	})
	if err != nil {
		return &domain.ErrRepository{Operation: "assignment.clear", Err: err}
	}
	return nil
}

func rowToRecord(r assignmentRow) *domain.AssignmentRecord {
	rec := &domain.AssignmentRecord{
		CustomerKey: r.CustomerKey,
		Line:        r.Line,
		SNRAccount:  r.SNRAccount,
		Handler:     r.Handler,
		AssignedBy:  r.AssignedBy,
	}
	if r.AssignedAt != nil {
		if t, err := time.Parse(time.RFC3339, *r.AssignedAt); err == nil {
			rec.AssignedAt = &t
		}
	}
	return rec
}
