// Package shared holds the request/response plumbing used by every handler:
// context keys, JSON helpers, and error response writers.
package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
)

// ContextKey is the key type for context values set by middleware.
type ContextKey string

// Context keys for request-scoped values
const (
	// CurrentUserContextKey carries the authenticated *domain.User.
	CurrentUserContextKey ContextKey = "currentUser"

	// AuthTokenContextKey carries the bearer token string the request
	// authenticated with, needed by logout to revoke exactly that session.
	AuthTokenContextKey ContextKey = "authToken"

	// TraceIDKey is the key for the trace ID in the request context.
	TraceIDKey ContextKey = "traceID"
)

// traceIDLength is the number of random bytes in a trace ID (32 hex chars).
const traceIDLength = 16

// SetTraceID adds a freshly generated trace ID to the context,
// used to correlate logs and error responses for one request.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
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

func generateTraceID() string {
	b := make([]byte, traceIDLength)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; for a trace
		// ID an empty value just loses correlation.
		slog.Error("failed to generate trace ID", "error", err)
		return ""
	}
	return hex.EncodeToString(b)
}
