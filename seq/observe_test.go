package seq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/observability"
)

func useTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func spanAttr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTraced_OneSpanPerEnumeration(t *testing.T) {
	exporter := useTracer(t)

	var upstreamSpan trace.SpanContext
	src := FromFunc(func(ctx context.Context) Iterator[int] {
		upstreamSpan = trace.SpanContextFromContext(ctx)
		return Range(1, 3).Iter(ctx)
	})
	s := Traced(src, "numbers")

	assertSlice(t, collect(t, s), []int{1, 2, 3})
	assertSlice(t, collect(t, s), []int{1, 2, 3})

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != observability.SpanEnumeration {
		t.Errorf("unexpected span name %q", span.Name)
	}
	if v, ok := spanAttr(span.Attributes, observability.AttrElements); !ok || v.AsInt64() != 3 {
		t.Errorf("expected 3 elements on the span, got %v", v)
	}
	if v, _ := spanAttr(span.Attributes, observability.AttrSequence); v.AsString() != "numbers" {
		t.Errorf("expected sequence name, got %v", v)
	}
	if !upstreamSpan.IsValid() {
		t.Error("upstream should see the enumeration span in its context")
	}
}

func TestTraced_RecordsFault(t *testing.T) {
	exporter := useTracer(t)

	s := Traced(Concat(Just(1), Throw[int](errBoom)), "broken")
	if _, err := ToSlice(context.Background(), s); !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status)
	}
	if v, _ := spanAttr(spans[0].Attributes, observability.AttrElements); v.AsInt64() != 1 {
		t.Errorf("expected 1 element before the fault, got %v", v)
	}
}

func TestTraced_UnstartedCloseEndsNoSpan(t *testing.T) {
	exporter := useTracer(t)
	it := Traced(Range(0, 1), "idle").Iter(context.Background())
	if err := it.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := len(exporter.GetSpans()); n != 0 {
		t.Errorf("expected no spans, got %d", n)
	}
}

func TestMetered(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observability.NewMetrics(mp.Meter("seq-test"))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	s := Metered(Range(0, 4), metrics, "range")
	if _, err := ToSlice(ctx, s); err != nil {
		t.Fatal(err)
	}
	if _, err := First(ctx, s); err != nil {
		t.Fatal(err)
	}
	_, _ = ToSlice(ctx, Metered(Throw[int](errBoom), metrics, "broken"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	if sums["seq.element.total"] != 5 {
		t.Errorf("expected 5 elements (4 + 1), got %d", sums["seq.element.total"])
	}
	if sums["seq.enumeration.total"] != 3 {
		t.Errorf("expected 3 enumerations, got %d", sums["seq.enumeration.total"])
	}
	if sums["error.total"] != 1 {
		t.Errorf("expected 1 error, got %d", sums["error.total"])
	}
}

func TestLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "seq-test", &buf)

	s := Logged(Range(0, 2), log, "pairs")
	if _, err := ToSlice(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	_, _ = ToSlice(context.Background(), Logged(Throw[int](errBoom), log, "broken"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 log lines, got %d:\n%s", len(lines), buf.String())
	}
	var started, finished, failed map[string]any
	for _, raw := range []struct {
		line string
		dst  *map[string]any
	}{{lines[0], &started}, {lines[1], &finished}, {lines[3], &failed}} {
		if err := json.Unmarshal([]byte(raw.line), raw.dst); err != nil {
			t.Fatalf("invalid JSON %q: %v", raw.line, err)
		}
	}
	if started["message"] != "enumeration started" || started[logger.FieldSequence] != "pairs" {
		t.Errorf("unexpected start entry %v", started)
	}
	if finished[logger.FieldEnumeration] != started[logger.FieldEnumeration] {
		t.Error("start and end must share the enumeration id")
	}
	if finished[logger.FieldElements] != float64(2) {
		t.Errorf("expected 2 elements, got %v", finished[logger.FieldElements])
	}
	if failed["level"] != "error" || failed[logger.FieldError] != "boom" {
		t.Errorf("unexpected failure entry %v", failed)
	}
}

func TestObserve_NilArguments(t *testing.T) {
	mustPanicMissing(t, func() { Traced[int](nil, "x") })
	mustPanicMissing(t, func() { Traced(Range(0, 1), "") })
	mustPanicMissing(t, func() { Metered(Range(0, 1), nil, "x") })
	mustPanicMissing(t, func() { Logged(Range(0, 1), nil, "x") })
}
