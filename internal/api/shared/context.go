package shared

import (
	"context"

	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/rs/xid"
)

// Key type for context values
type ContextKey string

// Context keys for various values
const (
	// IdentityContextKey is the context key for the authenticated caller
	IdentityContextKey ContextKey = "identity"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"
)

// SetTraceID adds a new trace ID to the context.
// This is useful for correlating logs and error responses.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, xid.New().String())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// WithIdentity stores the authenticated caller in the context.
func WithIdentity(ctx context.Context, identity *domain.UserIdentity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// IdentityFromContext returns the authenticated caller, or nil when the
// request is anonymous.
func IdentityFromContext(ctx context.Context) *domain.UserIdentity {
	identity, _ := ctx.Value(IdentityContextKey).(*domain.UserIdentity)
	return identity
}
