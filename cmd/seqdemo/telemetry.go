package main

import (
	"context"

	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/observability"
	"github.com/kbukum/seqkit/version"
)

// setupTelemetry installs the OTLP providers when tracing is enabled and
// returns the instruments plus a shutdown function. With tracing disabled the
// global no-op providers stay in place.
func setupTelemetry(ctx context.Context, cfg *Config) (*observability.Metrics, func(context.Context) error, error) {
	shutdown := func(context.Context) error { return nil }

	if cfg.Tracing.Enabled {
		ec := observability.DefaultExportConfig(cfg.Name)
		ec.ServiceVersion = version.GetVersionInfo().Version
		ec.Environment = cfg.Environment
		ec.Endpoint = cfg.Tracing.Endpoint
		ec.Insecure = cfg.Tracing.Insecure
		ec.SampleRate = cfg.Tracing.SampleRate
		tel, err := observability.Init(ctx, ec)
		if err != nil {
			return nil, shutdown, err
		}
		shutdown = tel.Shutdown
	} else {
		logger.Debug("tracing disabled")
	}

	metrics, err := observability.NewMetrics(observability.Meter(cfg.Name))
	if err != nil {
		return nil, shutdown, err
	}
	return metrics, shutdown, nil
}
