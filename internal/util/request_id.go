package util

import (
	"context"
	"strings"
)

type requestIDContextKey string

const (
	// RequestIDHeader is sent on every outgoing API request.
	RequestIDHeader = "X-Request-Id"

	requestIDCtxKey = requestIDContextKey("request_id")
)

// WithRequestID returns a context carrying a request id and a child logger
// tagged with it. An id already present in ctx is kept.
func WithRequestID(ctx context.Context) (context.Context, string) {
	if ctx == nil {
		ctx = context.Background()
	}
	if id := RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := NewID()
	ctx = context.WithValue(ctx, requestIDCtxKey, id)
	ctx = ContextWithLogger(ctx, LoggerFromContext(ctx).With("request_id", id))
	return ctx, id
}

// RequestIDFromContext returns request id from context.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDCtxKey).(string)
	return strings.TrimSpace(id)
}
