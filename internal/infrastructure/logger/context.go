package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type loggerKey struct{}

type requestKey struct{}

// requestFields identify who is calling and which request is being served.
// They travel together so each With* helper copies instead of mutating.
type requestFields struct {
	requestID   string
	userID      string
	accountType string
}

func fieldsFrom(ctx context.Context) requestFields {
	f, _ := ctx.Value(requestKey{}).(requestFields)
	return f
}

func (f requestFields) zapFields() []zap.Field {
	out := make([]zap.Field, 0, 3)
	if f.requestID != "" {
		out = append(out, zap.String("request_id", f.requestID))
	}
	if f.userID != "" {
		out = append(out, zap.String("user_id", f.userID))
	}
	if f.accountType != "" {
		out = append(out, zap.String("account_type", f.accountType))
	}
	return out
}

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the request logger, or a no-op logger outside a request
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID records the request ID and returns the logger carrying it
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	f := fieldsFrom(ctx)
	f.requestID = requestID
	return enrich(ctx, f, logger.With(zap.String("request_id", requestID)))
}

// WithUserID records the authenticated principal's ID
func WithUserID(ctx context.Context, logger *zap.Logger, userID string) (context.Context, *zap.Logger) {
	f := fieldsFrom(ctx)
	f.userID = userID
	return enrich(ctx, f, logger.With(zap.String("user_id", userID)))
}

// WithAccountType records whether the caller is a user, vendor or admin
func WithAccountType(ctx context.Context, logger *zap.Logger, accountType string) (context.Context, *zap.Logger) {
	f := fieldsFrom(ctx)
	f.accountType = accountType
	return enrich(ctx, f, logger.With(zap.String("account_type", accountType)))
}

func enrich(ctx context.Context, f requestFields, logger *zap.Logger) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestKey{}, f)
	return WithContext(ctx, logger), logger
}

// RequestID returns the request ID recorded in ctx
func RequestID(ctx context.Context) string { return fieldsFrom(ctx).requestID }

// UserID returns the caller ID recorded in ctx
func UserID(ctx context.Context) string { return fieldsFrom(ctx).userID }

// AccountType returns the caller account type recorded in ctx
func AccountType(ctx context.Context) string { return fieldsFrom(ctx).accountType }

// TraceFields returns trace_id and span_id for the span active in ctx, or
// nothing when there is no valid span.
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// ContextLogger logs with the trace of the span active in its context.
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
	// detached loggers did not come from the request context, so the
	// request fields are not baked into them yet
	detached bool
}

// L returns the request logger of ctx. Usage:
//
//	logger.L(ctx).Warn("notification not sent", zap.Error(err))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

// WithLogger logs through logger but still picks up the request and trace
// fields of ctx. Used by adapters that own their logger, such as GORM's.
func WithLogger(ctx context.Context, logger *zap.Logger) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: logger, detached: true}
}

func (cl *ContextLogger) enriched() *zap.Logger {
	l := cl.logger
	if l == nil {
		return zap.NewNop()
	}
	fields := TraceFields(cl.ctx)
	if cl.detached {
		fields = append(fields, fieldsFrom(cl.ctx).zapFields()...)
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// With creates a child ContextLogger with additional fields
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	if cl.logger == nil {
		return cl
	}
	return &ContextLogger{ctx: cl.ctx, logger: cl.logger.With(fields...), detached: cl.detached}
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.enriched().Debug(msg, fields...) }

func (cl *ContextLogger) Info(msg string, fields ...zap.Field) { cl.enriched().Info(msg, fields...) }

func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) { cl.enriched().Warn(msg, fields...) }

func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.enriched().Error(msg, fields...) }

// Sugar returns a sugared logger with the same fields
func (cl *ContextLogger) Sugar() *zap.SugaredLogger {
	return cl.enriched().Sugar()
}
