// Package tracing lets pipeline code open spans without caring whether a
// tracer was configured. Until SetTracer is called, StartSpan is a no-op
// that reuses whatever span already rides the context.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer

// SetTracer installs the process tracer. Called once at startup.
func SetTracer(t trace.Tracer) {
	tracer = t
}

// StartSpan opens a span named after the calling method.
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return tracer.Start(ctx, spanName)
}

// GetTraceID returns the trace ID riding the context, or "" when there is
// no recorded span.
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}

	return sc.TraceID().String()
}
