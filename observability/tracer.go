package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/kbukum/seqkit"

// Span names.
const (
	SpanEnumeration = "seq.enumerate"
	SpanHTTPRequest = "http.request"
	SpanStoreLoad   = "store.load"
)

// Attribute keys.
const (
	AttrService      = "service.name"
	AttrRoute        = "http.route"
	AttrRequestID    = "request.id"
	AttrSequence     = "seq.name"
	AttrElements     = "seq.elements"
	AttrDurationMs   = "duration_ms"
	AttrStatus       = "status"
	AttrErrorMessage = "error.message"
)

// Tracer returns the seqkit tracer of the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartSpan starts a span with the seqkit tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}
