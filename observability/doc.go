// Package observability wires OpenTelemetry for seqkit: OTLP export setup,
// the span and metric instruments used by observed sequences and HTTP
// handlers, and component health checks.
//
//	tel, err := observability.Init(ctx, observability.DefaultExportConfig("seqdemo"))
//	defer tel.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("seqdemo"))
//	users := seq.Metered(source, metrics, "users")
//
// Without Init the global providers are no-ops, so spans and instruments cost
// nothing.
package observability
