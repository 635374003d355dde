package domain

import "fmt"

// Error types for consistent error handling across the BFA.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrConcurrencyRejected indicates a mutation was rejected because another
// mutation for the same customer key is still in flight. The caller must
// re-issue; the engine never queues.
type ErrConcurrencyRejected struct {
	CustomerKey string
}

func (e *ErrConcurrencyRejected) Error() string {
	return fmt.Sprintf("mutation already in flight for customer: %s", e.CustomerKey)
}

// ErrRepository indicates an opaque failure bubbled up from the storage
// layer. It is propagated unchanged, never retried or swallowed here.
type ErrRepository struct {
	Operation string
	Err       error
}

func (e *ErrRepository) Error() string {
	return fmt.Sprintf("repository error [%s]: %v", e.Operation, e.Err)
}

func (e *ErrRepository) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
