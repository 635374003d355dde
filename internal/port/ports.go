// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/vip-insights-bfa-go/internal/domain"
)

// SnapshotSource supplies the materialized per-customer rows for one
// comparison period. The engine never queries the warehouse directly.
type SnapshotSource interface {
	LoadPeriod(ctx context.Context, line string, period domain.DateRange) ([]domain.SnapshotRow, error)
}

// HandlerDirectory resolves an SNR staff account to its handler name.
// Lookup returns "" (never an error) when the account has no configured
// handler; callers must treat the empty handler as a valid state.
type HandlerDirectory interface {
	Lookup(ctx context.Context, snrAccount string) (string, error)
}

// AssignmentStore is the durable storage for assignment records.
// Failures surface as *domain.ErrRepository and are propagated unchanged.
type AssignmentStore interface {
	Get(ctx context.Context, customerKey string) (*domain.AssignmentRecord, error)
	Save(ctx context.Context, rec *domain.AssignmentRecord) error
	Clear(ctx context.Context, customerKey string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
