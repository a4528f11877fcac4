package retry

import (
	"context"
	"time"
)

// callMetadata is stored as a pointer inside contexts so Execute can report
// how a call went without widening its return values.
type callMetadata struct {
	attempts           int
	successfulDuration time.Duration
}

// callMetadataContextKey keys metadata within call contexts.
type callMetadataContextKey struct{}

// NewContext returns a context.Context preseeded for Execute, so the caller
// can read back attempt counts and timing after the call.
func NewContext() context.Context {
	return WithMetadata(context.Background())
}

// WithMetadata returns a copy of parent preseeded for Execute metadata.
func WithMetadata(parent context.Context) context.Context {
	return context.WithValue(parent, callMetadataContextKey{}, new(callMetadata))
}

// EnsureMetadata returns ctx unchanged when it already carries call metadata,
// otherwise a seeded copy. Callers layering on top of Execute use it so they
// never shadow metadata the original caller wants to read back.
func EnsureMetadata(ctx context.Context) context.Context {
	if _, ok := getCallMetadata(ctx); ok {
		return ctx
	}

	return WithMetadata(ctx)
}

func getCallMetadata(ctx context.Context) (*callMetadata, bool) {
	ptr, ok := ctx.Value(callMetadataContextKey{}).(*callMetadata)

	return ptr, ok
}

// AttemptsFromContext returns the number of attempts the last Execute on this
// context made, including the first try.
func AttemptsFromContext(ctx context.Context) (int, bool) {
	md, ok := getCallMetadata(ctx)
	if !ok {
		return 0, false
	}

	return md.attempts, true
}

// SuccessfulDurationFromContext returns how long the successful attempt took,
// should there have been one.
func SuccessfulDurationFromContext(ctx context.Context) (time.Duration, bool) {
	md, ok := getCallMetadata(ctx)
	if !ok {
		return 0, false
	}

	return md.successfulDuration, true
}
