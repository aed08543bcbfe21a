// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// CorrelationKey is the context key for the correlation ID.
// Exported so it can be used consistently across packages.
type CorrelationKey struct{}

// WithCorrelationID returns a context with the correlation ID embedded.
// Correlation is threaded explicitly through contexts rather than held in
// ambient goroutine-local state, so call chains stay deterministic.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationKey{}, correlationID)
}

// CorrelationFromContext returns the correlation ID from context, or empty string if not set.
func CorrelationFromContext(ctx context.Context) string {
	if v := ctx.Value(CorrelationKey{}); v != nil {
		return v.(string)
	}
	return ""
}
