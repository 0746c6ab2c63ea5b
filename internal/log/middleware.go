package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// NewContext returns ctx carrying logger. The trace middleware stores a
// request-scoped logger this way so handlers log the request ID.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in ctx, or one around slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return wrap(slog.Default(), "")
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// For returns the request-scoped logger in ctx when there is one, tagged
// with this logger's component.
func (sl *StructuredLogger) For(ctx context.Context) *Logger {
	if scoped, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return scoped.WithComponent(sl.logger.component)
	}
	return sl.logger
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithClientIP(clientIP)

	sl.For(ctx).DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request. 4xx log at warn, 5xx
// at error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)

	sl.For(ctx).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogBalanceComputed logs a dashboard evaluation
func (sl *StructuredLogger) LogBalanceComputed(ctx context.Context, userID, start, end, mode string, balanceCents int64) {
	fields := NewFields().
		WithUser(userID).
		WithRange(start, end).
		WithOperation(OpCompute).
		ToSlice()

	fields = append(fields, FieldMode, mode, FieldAmountCents, balanceCents)

	sl.For(ctx).InfoContext(ctx, "Balance computed", fields...)
}

// LogError logs err under component, whatever component this logger has.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields = fields.
		WithError(err).
		WithOperation(operation)

	sl.For(ctx).WithComponent(component).ErrorContext(ctx, msg, fields.ToSlice()...)
}
