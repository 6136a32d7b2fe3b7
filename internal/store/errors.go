package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the entity does not exist or the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrPaymentNotFound indicates that no payment has the given reference.
	ErrPaymentNotFound = fmt.Errorf("%w: payment", ErrNotFound)

	// ErrPaymentExists indicates that a payment reference is already in use.
	ErrPaymentExists = fmt.Errorf("%w: payment reference", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "flashcard", "payment")
	Operation string // The operation that failed (e.g., "insert", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// PartialSaveError reports a batch save that stopped at the first failed
// write. Saved pairs remain persisted.
type PartialSaveError struct {
	Saved int
	Total int
	Err   error
}

func (e *PartialSaveError) Error() string {
	return fmt.Sprintf("saved %d of %d flashcards: %v", e.Saved, e.Total, e.Err)
}

func (e *PartialSaveError) Unwrap() error {
	return e.Err
}

// SavedCount returns the number of pairs persisted before err occurred, and
// false if err does not carry a PartialSaveError.
func SavedCount(err error) (int, bool) {
	var pe *PartialSaveError
	if errors.As(err, &pe) {
		return pe.Saved, true
	}
	return 0, false
}
