package observability

import (
	"context"
	stderrors "errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/validation"
)

// ExportConfig configures OTLP/HTTP export of spans and metrics.
type ExportConfig struct {
	ServiceName    string `validate:"required"`
	ServiceVersion string
	Environment    string
	// Endpoint is the collector host:port, e.g. "localhost:4318".
	Endpoint string `validate:"required,hostname_port"`
	Insecure bool
	// SampleRate is the fraction of root enumerations traced. Children follow
	// their parent's decision.
	SampleRate float64 `validate:"gte=0,lte=1"`
	// Interval is the metric export interval. 0 keeps the SDK default.
	Interval time.Duration `validate:"gte=0"`
}

// DefaultExportConfig returns a config exporting everything to a local
// collector.
func DefaultExportConfig(serviceName string) ExportConfig {
	return ExportConfig{
		ServiceName: serviceName,
		Environment: "development",
		Endpoint:    "localhost:4318",
		Insecure:    true,
		SampleRate:  1,
		Interval:    15 * time.Second,
	}
}

// Telemetry holds the installed providers.
type Telemetry struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
}

// Init installs global tracer and meter providers exporting to
// cfg.Endpoint, and the W3C trace-context and baggage propagators.
func Init(ctx context.Context, cfg ExportConfig) (*Telemetry, error) {
	if err := validation.Validate(&cfg); err != nil {
		return nil, err
	}
	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, errors.Internal(err)
	}

	traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}
	spanExp, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return nil, errors.Internal(err)
	}
	metricExp, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		_ = spanExp.Shutdown(ctx)
		return nil, errors.Internal(err)
	}

	t := &Telemetry{
		Tracer: newTracerProvider(sdktrace.NewBatchSpanProcessor(spanExp), res, cfg.SampleRate),
		Meter:  newMeterProvider(sdkmetric.NewPeriodicReader(metricExp, readerOptions(cfg.Interval)...), res),
	}
	otel.SetTracerProvider(t.Tracer)
	otel.SetMeterProvider(t.Meter)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("telemetry export started", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
	))
	return t, nil
}

// Shutdown flushes and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return stderrors.Join(t.Tracer.Shutdown(ctx), t.Meter.Shutdown(ctx))
}

func newTracerProvider(sp sdktrace.SpanProcessor, res *resource.Resource, rate float64) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(rate)),
	)
}

func newMeterProvider(r sdkmetric.Reader, res *resource.Resource) *sdkmetric.MeterProvider {
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(r), sdkmetric.WithResource(res))
}

func sampler(rate float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case rate >= 1:
		root = sdktrace.AlwaysSample()
	case rate <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(rate)
	}
	return sdktrace.ParentBased(root)
}

func readerOptions(interval time.Duration) []sdkmetric.PeriodicReaderOption {
	if interval <= 0 {
		return nil
	}
	return []sdkmetric.PeriodicReaderOption{sdkmetric.WithInterval(interval)}
}

func newResource(service, version, environment string) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(service)}
	if version != "" {
		attrs = append(attrs, semconv.ServiceVersion(version))
	}
	if environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(environment))
	}
	return resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
}
