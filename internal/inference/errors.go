package inference

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by QuestionAnswerer implementations.
var (
	// ErrEmptyInput is returned when the question or the context is empty.
	// No request is made.
	ErrEmptyInput = errors.New("question and context must be non-empty")

	// ErrTransport matches failures to reach the provider, including
	// timeouts and cancellation.
	ErrTransport = errors.New("inference transport failure")

	// ErrUpstreamStatus matches non-success responses from the provider.
	ErrUpstreamStatus = errors.New("inference provider returned non-success status")

	// ErrMalformedResponse matches response bodies that could not be decoded
	// into an answer.
	ErrMalformedResponse = errors.New("malformed inference response")
)

// Kind distinguishes the ways a provider call can fail.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindStatus
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is a failed provider call.
type Error struct {
	Kind Kind
	// StatusCode is set for KindStatus.
	StatusCode int
	// Provider names the adapter, e.g. "huggingface".
	Provider string
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Err != nil {
			return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match an *Error against the sentinel for its kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrUpstreamStatus:
		return e.Kind == KindStatus
	case ErrMalformedResponse:
		return e.Kind == KindMalformed
	}
	return false
}

// TransportError wraps err as a KindTransport failure.
func TransportError(provider string, err error) *Error {
	return &Error{Kind: KindTransport, Provider: provider, Err: err}
}

// StatusError records a non-success response. detail may be nil.
func StatusError(provider string, code int, detail error) *Error {
	return &Error{Kind: KindStatus, Provider: provider, StatusCode: code, Err: detail}
}

// MalformedError wraps err as a KindMalformed failure.
func MalformedError(provider string, err error) *Error {
	return &Error{Kind: KindMalformed, Provider: provider, Err: err}
}
