package audit

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// SpanBridge pairs a UnifiedLogger with an OpenTelemetry tracer so
// that every span started through it lands in both places: a real
// OTel span for OTLP/Jaeger export, and SpanStart/SpanEnd events in
// the hash-chained audit log carrying the span's trace and span IDs.
type SpanBridge struct {
	logger *UnifiedLogger
	tracer trace.Tracer
}

// NewSpanBridge wraps logger with the named tracer from the global
// tracer provider (a no-op provider until the process initializes
// tracing, which keeps the bridge safe to use unconditionally).
func NewSpanBridge(logger *UnifiedLogger, tracerName string) *SpanBridge {
	return &SpanBridge{logger: logger, tracer: otel.Tracer(tracerName)}
}

// StartSpan begins a span named name, emits a SpanStart event chained
// into the audit log, and returns the span-carrying context plus an
// end function that closes both the span and its audit record. The
// parent span, if any, is taken from ctx.
func (b *SpanBridge) StartSpan(ctx context.Context, name, jobID string) (context.Context, func()) {
	parent := trace.SpanContextFromContext(ctx)
	ctx, span := b.tracer.Start(ctx, name)
	sc := span.SpanContext()

	e := OrbitEvent{
		Kind:    SpanStart,
		JobID:   jobID,
		Message: name,
	}
	if sc.HasTraceID() {
		e.TraceID = sc.TraceID().String()
		e.SpanID = sc.SpanID().String()
	}
	if parent.HasSpanID() {
		e.ParentSpanID = parent.SpanID().String()
	}
	_, _ = b.logger.Log(e)

	return ctx, func() {
		span.End()
		end := OrbitEvent{
			Kind:    SpanEnd,
			JobID:   jobID,
			Message: name,
		}
		if sc.HasTraceID() {
			end.TraceID = sc.TraceID().String()
			end.SpanID = sc.SpanID().String()
		}
		_, _ = b.logger.Log(end)
	}
}
