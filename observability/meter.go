package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the OpenTelemetry instruments for sequence enumerations and
// the HTTP edge that serves them.
type Metrics struct {
	enumerationTotal    metric.Int64Counter
	enumerationDuration metric.Float64Histogram
	enumerationActive   metric.Int64UpDownCounter
	elementTotal        metric.Int64Counter
	requestTotal        metric.Int64Counter
	requestDuration     metric.Float64Histogram
	operationTotal      metric.Int64Counter
	operationDuration   metric.Float64Histogram
	errorTotal          metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.enumerationTotal, "seq.enumeration.total", "Completed sequence enumerations by status"},
		{&m.elementTotal, "seq.element.total", "Elements yielded by observed sequences"},
		{&m.requestTotal, "request.total", "Total number of requests"},
		{&m.operationTotal, "operation.total", "Total number of operations"},
		{&m.errorTotal, "error.total", "Total errors by type and component"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&m.enumerationDuration, "seq.enumeration.duration", "Time from first pull to disposal in seconds"},
		{&m.requestDuration, "request.duration", "Duration of requests in seconds"},
		{&m.operationDuration, "operation.duration", "Duration of operations in seconds"},
	}
	for _, h := range histograms {
		if *h.dst, err = meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s")); err != nil {
			return nil, fmt.Errorf("creating %s histogram: %w", h.name, err)
		}
	}

	m.enumerationActive, err = meter.Int64UpDownCounter("seq.enumeration.active",
		metric.WithDescription("Number of enumerations in progress"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating seq.enumeration.active gauge: %w", err)
	}

	return &m, nil
}

// RecordEnumerationStart increments the active enumeration count.
func (m *Metrics) RecordEnumerationStart(ctx context.Context, sequence string) {
	m.enumerationActive.Add(ctx, 1, metric.WithAttributes(attribute.String("sequence", sequence)))
}

// RecordEnumerationEnd records a finished enumeration: how it ended, how
// many elements it yielded and how long it ran.
func (m *Metrics) RecordEnumerationEnd(ctx context.Context, sequence, status string, elements int64, duration time.Duration) {
	seqAttr := attribute.String("sequence", sequence)
	m.enumerationActive.Add(ctx, -1, metric.WithAttributes(seqAttr))
	m.enumerationTotal.Add(ctx, 1, metric.WithAttributes(seqAttr, attribute.String("status", status)))
	m.elementTotal.Add(ctx, elements, metric.WithAttributes(seqAttr))
	m.enumerationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(seqAttr))
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, service, route, status string, duration time.Duration) {
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("route", route),
		attribute.String("status", status),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("route", route),
	))
}

// RecordOperation records an operation execution.
func (m *Metrics) RecordOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	m.operationTotal.Add(ctx, 1, attrs)
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
	))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
