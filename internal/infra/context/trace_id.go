package context

import (
	"context"

	"github.com/google/uuid"

	"github.com/mkrupp/homecase-catalog/internal/util/encoding"
)

const contextKeyTraceID = contextKey("traceID")

// TraceIDFromContext extracts the trace ID from the context.
// Returns the trace ID and true if present, or empty string and false if not present.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(contextKeyTraceID).(string)

	return traceID, ok
}

// WithTraceID creates a new context with the given trace ID value.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, traceID)
}

// NewTraceID returns a time-ordered trace ID: a UUIDv7 in lowercase Crockford base32.
// Falls back to a random UUID if the v7 generator fails.
func NewTraceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	return encoding.EncodeCrockfordB32LC(id[:])
}

// WithNewTraceID attaches a fresh trace ID unless the context already carries one.
func WithNewTraceID(ctx context.Context) context.Context {
	if _, ok := TraceIDFromContext(ctx); ok {
		return ctx
	}

	return WithTraceID(ctx, NewTraceID())
}
