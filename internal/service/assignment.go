package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/boddenberg/vip-insights-bfa-go/internal/domain"
	"github.com/boddenberg/vip-insights-bfa-go/internal/infra/observability"
	"github.com/boddenberg/vip-insights-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/vip-insights-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var assignmentTracer = otel.Tracer("service/assignment")

// AssignmentService mutates VIP assignments behind a per-customer
// in-flight guard. A second mutation for a key already being written is
// rejected immediately, never queued; the caller re-issues.
type AssignmentService struct {
	store     port.AssignmentStore
	directory port.HandlerDirectory
	bulkhead  *resilience.Bulkhead
	metrics   *observability.Metrics
	logger    *zap.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewAssignmentService creates an assignment service. maxConcurrency
// caps the bulk-save fan-out against the store.
func NewAssignmentService(store port.AssignmentStore, directory port.HandlerDirectory, maxConcurrency int, metrics *observability.Metrics, logger *zap.Logger) *AssignmentService {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &AssignmentService{
		store:     store,
		directory: directory,
		bulkhead:  resilience.NewBulkhead(maxConcurrency),
		metrics:   metrics,
		logger:    logger,
		inflight:  make(map[string]struct{}),
	}
}

// tryAcquire atomically claims the in-flight slot for a customer key.
func (s *AssignmentService) tryAcquire(customerKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[customerKey]; busy {
		return false
	}
	s.inflight[customerKey] = struct{}{}
	return true
}

func (s *AssignmentService) release(customerKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, customerKey)
}

// Get returns the current assignment for a customer key.
func (s *AssignmentService) Get(ctx context.Context, customerKey string) (*domain.AssignmentRecord, error) {
	ctx, span := assignmentTracer.Start(ctx, "AssignmentService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("customer_key", customerKey))

	if customerKey == "" {
		return nil, &domain.ErrValidation{Field: "customer_key", Message: "required"}
	}
	return s.store.Get(ctx, customerKey)
}

// Save resolves the handler for the SNR account and persists the
// assignment. Rejects with *domain.ErrConcurrencyRejected when another
// mutation for the same key is in flight.
func (s *AssignmentService) Save(ctx context.Context, item domain.AssignmentItem, assignedBy string) (*domain.AssignmentRecord, error) {
	ctx, span := assignmentTracer.Start(ctx, "AssignmentService.Save")
	defer span.End()
	span.SetAttributes(attribute.String("customer_key", item.CustomerKey))

	if item.CustomerKey == "" {
		return nil, &domain.ErrValidation{Field: "customer_key", Message: "required"}
	}
	if strings.TrimSpace(item.SNRAccount) == "" {
		return nil, &domain.ErrValidation{Field: "snr_account", Message: "required"}
	}

	if !s.tryAcquire(item.CustomerKey) {
		s.metrics.IncrAssignmentOp("rejected")
		s.logger.Warn("assignment save rejected, mutation in flight",
			zap.String("customer_key", item.CustomerKey),
		)
		return nil, &domain.ErrConcurrencyRejected{CustomerKey: item.CustomerKey}
	}
	defer s.release(item.CustomerKey)

	handler, err := s.directory.Lookup(ctx, item.SNRAccount)
	if err != nil {
		s.metrics.IncrAssignmentOp("failed")
		s.metrics.IncrExternalError("supabase")
		return nil, err
	}

	now := time.Now().UTC()
	rec := &domain.AssignmentRecord{
		CustomerKey: item.CustomerKey,
		Line:        item.Line,
		SNRAccount:  item.SNRAccount,
		Handler:     handler,
		AssignedAt:  &now,
		AssignedBy:  assignedBy,
	}

	if err := s.store.Save(ctx, rec); err != nil {
		s.metrics.IncrAssignmentOp("failed")
		s.metrics.IncrExternalError("supabase")
		return nil, err
	}

	s.metrics.IncrAssignmentOp("saved")
	s.logger.Info("assignment saved",
		zap.String("customer_key", item.CustomerKey),
		zap.String("snr_account", item.SNRAccount),
		zap.String("handler", handler),
		zap.String("assigned_by", assignedBy),
	)
	return rec, nil
}

// Clear removes the assignment for a customer key. Clearing an already
// unassigned customer succeeds.
func (s *AssignmentService) Clear(ctx context.Context, customerKey, clearedBy string) error {
	ctx, span := assignmentTracer.Start(ctx, "AssignmentService.Clear")
	defer span.End()
	span.SetAttributes(attribute.String("customer_key", customerKey))

	if customerKey == "" {
		return &domain.ErrValidation{Field: "customer_key", Message: "required"}
	}

	if !s.tryAcquire(customerKey) {
		s.metrics.IncrAssignmentOp("rejected")
		return &domain.ErrConcurrencyRejected{CustomerKey: customerKey}
	}
	defer s.release(customerKey)

	if err := s.store.Clear(ctx, customerKey); err != nil {
		s.metrics.IncrAssignmentOp("failed")
		s.metrics.IncrExternalError("supabase")
		return err
	}

	s.metrics.IncrAssignmentOp("cleared")
	s.logger.Info("assignment cleared",
		zap.String("customer_key", customerKey),
		zap.String("cleared_by", clearedBy),
	)
	return nil
}

// BulkSave saves many assignments concurrently. Results come back in
// input order; a failed item reports its error in place and never stops
// the batch.
func (s *AssignmentService) BulkSave(ctx context.Context, items []domain.AssignmentItem, assignedBy string) (*domain.BulkAssignmentResult, error) {
	ctx, span := assignmentTracer.Start(ctx, "AssignmentService.BulkSave")
	defer span.End()
	span.SetAttributes(attribute.Int("items", len(items)))

	if len(items) == 0 {
		return nil, &domain.ErrValidation{Field: "items", Message: "at least one item is required"}
	}

	results := make([]domain.AssignmentResult, len(items))

	var g errgroup.Group
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := s.bulkhead.Acquire(ctx); err != nil {
				results[i] = failedResult(item.CustomerKey, err)
				return nil
			}
			defer s.bulkhead.Release()

			rec, err := s.Save(ctx, item, assignedBy)
			if err != nil {
				results[i] = failedResult(item.CustomerKey, err)
				return nil
			}
			results[i] = domain.AssignmentResult{
				CustomerKey: item.CustomerKey,
				Success:     true,
				Handler:     rec.Handler,
			}
			return nil
		})
	}
	_ = g.Wait() // workers report failures through results, never an error

	out := &domain.BulkAssignmentResult{Results: results}
	for _, r := range results {
		if r.Success {
			out.SuccessCount++
		}
	}

	s.logger.Info("bulk assignment finished",
		zap.Int("items", len(items)),
		zap.Int("succeeded", out.SuccessCount),
	)
	return out, nil
}

func failedResult(customerKey string, err error) domain.AssignmentResult {
	return domain.AssignmentResult{
		CustomerKey: customerKey,
		Success:     false,
		Error:       err.Error(),
		ErrorKind:   errorKind(err),
	}
}

// errorKind maps an error to a stable machine-readable discriminator for
// bulk results.
func errorKind(err error) string {
	var (
		rejected   *domain.ErrConcurrencyRejected
		validation *domain.ErrValidation
		notFound   *domain.ErrNotFound
		repository *domain.ErrRepository
		circuit    *domain.ErrCircuitOpen
	)
	switch {
	case errors.As(err, &rejected):
		return "concurrency_rejected"
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &circuit):
		return "circuit_open"
	case errors.As(err, &repository):
		return "repository"
	default:
		return "internal"
	}
}
