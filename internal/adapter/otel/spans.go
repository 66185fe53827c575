package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "touragency"

// StartTourSpan starts a span for a tour service operation. A zero id is omitted.
func StartTourSpan(ctx context.Context, op string, id int64) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithAttributes(attribute.String("tour.op", op))}
	if id != 0 {
		opts = append(opts, trace.WithAttributes(attribute.Int64("tour.id", id)))
	}
	return otel.Tracer(tracerName).Start(ctx, "tour."+op, opts...)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
