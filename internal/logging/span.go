package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const spanBaseKey ctxKey = "spanBase"

// Span represents a logical unit of work tied to a request trace.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from the provided context, enriching the logger
// with tracing metadata. It returns the derived context and the span handle.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Span attributes are layered on the logger that existed before the first
	// span so nested spans replace, rather than repeat, span_id and span_name.
	base, ok := ctx.Value(spanBaseKey).(*slog.Logger)
	if !ok || base == nil {
		base = FromContext(ctx)
	}

	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = WithTraceID(ctx, traceID)
		base = base.With(slog.String("trace_id", traceID))
	}
	ctx = context.WithValue(ctx, spanBaseKey, base)

	parentSpanID := SpanIDFromContext(ctx)
	spanID := uuid.NewString()

	logger := base.With(
		slog.String("span_id", spanID),
		slog.String("span_name", name),
	)
	if parentSpanID != "" {
		logger = logger.With(slog.String("parent_span_id", parentSpanID))
	}

	ctx = WithLogger(ctx, logger)
	ctx = WithSpanID(ctx, spanID)

	return ctx, &Span{
		name:   name,
		logger: logger,
		start:  time.Now(),
	}
}

// End finalizes the span and emits a completion log entry.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Info("span completed", slog.Duration("duration", time.Since(s.start)))
}

// EndWithError finalizes the span, logging err at error level when non-nil.
func (s *Span) EndWithError(err error) {
	if s == nil {
		return
	}
	if err == nil {
		s.End()
		return
	}
	s.logger.Error("span failed", slog.Duration("duration", time.Since(s.start)), slog.Any("error", err))
}
