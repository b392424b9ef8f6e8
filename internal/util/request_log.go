package util

import (
	"context"
	"time"
)

// LogRequest emits a structured log line for an outgoing API call.
// Failed calls are logged at warn level.
func LogRequest(ctx context.Context, method, path string, status int, started time.Time, err error) {
	logger := LoggerFromContext(ctx)
	attrs := []any{
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", time.Since(started).Milliseconds(),
	}
	if err != nil {
		logger.Warn("api_request", append(attrs, "err", err)...)
		return
	}
	if status >= 400 {
		logger.Warn("api_request", attrs...)
		return
	}
	logger.Debug("api_request", attrs...)
}
