package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch on it without inspecting
// messages. Every error surfaced by the core carries exactly one Kind.
type Kind string

// Error kinds surfaced by the core and its collaborators.
const (
	KindValidation  Kind = "validation"
	KindAuth        Kind = "auth"
	KindInference   Kind = "inference"
	KindPersistence Kind = "persistence"
	KindPayment     Kind = "payment"
	KindNotFound    Kind = "not_found"
	KindForbidden   Kind = "forbidden"
	KindInternal    Kind = "internal"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyNotes is returned when notes are empty or contain only whitespace.
	ErrEmptyNotes = errors.New("no notes provided")

	// ErrInvalidQuestionCount is returned when a batch size below one is requested.
	ErrInvalidQuestionCount = errors.New("question count must be at least 1")

	// ErrUnauthenticated is returned when no user identity is available.
	ErrUnauthenticated = errors.New("authentication required")
)

// Error is the discriminated failure value returned by core operations.
// Kind selects the failure class, Message is safe to show to a caller, and
// Err holds the underlying cause for errors.Is/errors.As.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// ValidationError creates a validation-kind error.
func ValidationError(message string, err error) *Error {
	return NewError(KindValidation, message, err)
}

// AuthError creates an auth-kind error.
func AuthError(message string, err error) *Error {
	return NewError(KindAuth, message, err)
}

// InferenceError creates an inference-kind error.
func InferenceError(message string, err error) *Error {
	return NewError(KindInference, message, err)
}

// PersistenceError creates a persistence-kind error.
func PersistenceError(message string, err error) *Error {
	return NewError(KindPersistence, message, err)
}

// PaymentError creates a payment-kind error.
func PaymentError(message string, err error) *Error {
	return NewError(KindPayment, message, err)
}

// KindOf reports the Kind of the first *Error in err's chain.
// Errors that carry no Kind are reported as KindInternal; nil yields "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
