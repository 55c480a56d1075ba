package logger

import (
	"context"
	"log/slog"
)

// The request pipeline stores a field-enriched logger in the context so
// every log line for a request carries its trace id.

type contextKey struct{}

// With derives a context whose logger carries the extra fields on top of
// whatever logger the context already held.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, contextKey{}, From(ctx).With(fields...))
}

// From returns the request-scoped logger, falling back to the process-wide
// one when the context carries none.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return LoggerWrapper()
}
