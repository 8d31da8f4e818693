package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer for document spans
const TracerName = "factuurdesk/backend"

// Span attribute keys
const (
	AttrInvoiceID     = attribute.Key("invoice.id")
	AttrInvoiceNumber = attribute.Key("invoice.number")
	AttrInvoiceStatus = attribute.Key("invoice.status")
	AttrLineItems     = attribute.Key("invoice.line_items")
	AttrSessionID     = attribute.Key("preview.session_id")
	AttrPreviewState  = attribute.Key("preview.state")
	AttrAttempt       = attribute.Key("preview.attempt")
	AttrScale         = attribute.Key("render.scale")
)

// Tracer returns the document tracer from the global provider, so spans
// are no-ops until NewTracerProvider installs an exporter.
func Tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartSpan starts an internal span. The caller must End it.
//
//	ctx, span := telemetry.StartSpan(ctx, "rendering.render", telemetry.AttrScale.Float64(2))
//	defer span.End()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// InvoiceAttributes describes the invoice a span works on
func InvoiceAttributes(id uuid.UUID, number, status string, lineItems int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrInvoiceID.String(id.String()),
		AttrInvoiceNumber.String(number),
		AttrInvoiceStatus.String(status),
		AttrLineItems.Int(lineItems),
	}
}

// RecordError records err on the span and marks the span failed
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddEvent adds a time-stamped event to the span
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
