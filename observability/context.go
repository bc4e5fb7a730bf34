package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OperationContext measures one request at the HTTP edge: its span and its
// request metrics.
type OperationContext struct {
	Service   string
	Route     string
	RequestID string
	Started   time.Time
	metrics   *Metrics
}

// NewOperationContext starts measuring a request. A nil metrics skips the
// request metrics.
func NewOperationContext(service, route, requestID string, metrics *Metrics) *OperationContext {
	return &OperationContext{
		Service:   service,
		Route:     route,
		RequestID: requestID,
		Started:   time.Now(),
		metrics:   metrics,
	}
}

// StartSpan starts the request span. Enumerations started with the returned
// context become its children.
func (oc *OperationContext) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithSpanKind(trace.SpanKindServer), trace.WithAttributes(
		attribute.String(AttrService, oc.Service),
		attribute.String(AttrRoute, oc.Route),
		attribute.String(AttrRequestID, oc.RequestID),
	))
}

// End closes span with status ("ok", "canceled" or "error") and records the
// request. A canceled request is not a span error.
func (oc *OperationContext) End(ctx context.Context, span trace.Span, status string, err error) {
	elapsed := time.Since(oc.Started)
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, elapsed.Milliseconds()),
	)
	if err != nil && status == "error" {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	if oc.metrics != nil {
		oc.metrics.RecordRequest(ctx, oc.Service, oc.Route, status, elapsed)
	}
}
