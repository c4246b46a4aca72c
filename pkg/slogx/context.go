package slogx

import (
	"context"
	"log/slog"
)

// loggerKey is the context key the request-scoped logger rides under.
type loggerKey struct{}

// WithContext attaches logger to ctx. Handlers and services pull it back out
// with FromContext so their log lines inherit the request's attributes.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger carried by ctx, falling back to the process
// default when none was attached (background jobs, tests).
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithRequestID stamps a req_id attribute onto the context logger.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	return WithContext(ctx, FromContext(ctx).With("req_id", reqID))
}
