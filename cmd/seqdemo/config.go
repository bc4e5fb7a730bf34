package main

import (
	"time"

	"github.com/kbukum/seqkit/config"
	"github.com/kbukum/seqkit/security"
	"github.com/kbukum/seqkit/server"
	"github.com/kbukum/seqkit/validation"
)

// Config is the seqdemo configuration, loaded from config.yml, .env and the
// environment.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	HTTP    server.Config `yaml:"http" mapstructure:"http"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Limits  LimitsConfig  `yaml:"limits" mapstructure:"limits"`
	Import  ImportConfig  `yaml:"import" mapstructure:"import"`
}

// StoreConfig locates the bolt file and its buckets.
type StoreConfig struct {
	Path            string        `yaml:"path" mapstructure:"path" validate:"required"`
	CustomersBucket string        `yaml:"customers_bucket" mapstructure:"customers_bucket" validate:"required"`
	OrdersBucket    string        `yaml:"orders_bucket" mapstructure:"orders_bucket" validate:"required"`
	OpenTimeout     time.Duration `yaml:"open_timeout" mapstructure:"open_timeout" validate:"gte=0"`
}

// TracingConfig enables OTLP export of spans and metrics.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// LimitsConfig bounds the report endpoints.
type LimitsConfig struct {
	Rate          float64 `yaml:"rate" mapstructure:"rate" validate:"gte=0"`
	Burst         int     `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
	MaxConcurrent int     `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
}

// ImportConfig configures pulling orders from a remote NDJSON feed.
type ImportConfig struct {
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=0"`
	MaxFailures int           `yaml:"max_failures" mapstructure:"max_failures" validate:"gte=0"`
	// TLS configures the client for https feeds.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills every unset section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "seqdemo"
	}
	c.ServiceConfig.ApplyDefaults()

	if c.Store.Path == "" {
		c.Store.Path = "seqdemo.db"
	}
	if c.Store.CustomersBucket == "" {
		c.Store.CustomersBucket = "customers"
	}
	if c.Store.OrdersBucket == "" {
		c.Store.OrdersBucket = "orders"
	}
	if c.Store.OpenTimeout == 0 {
		c.Store.OpenTimeout = time.Second
	}

	c.HTTP.ApplyDefaults()

	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1
	}

	if c.Limits.Rate == 0 {
		c.Limits.Rate = 20
	}
	if c.Limits.Burst == 0 {
		c.Limits.Burst = 40
	}
	if c.Limits.MaxConcurrent == 0 {
		c.Limits.MaxConcurrent = 8
	}

	if c.Import.Timeout == 0 {
		c.Import.Timeout = 30 * time.Second
	}
	if c.Import.MaxAttempts == 0 {
		c.Import.MaxAttempts = 3
	}
	if c.Import.MaxFailures == 0 {
		c.Import.MaxFailures = 5
	}
}

// Validate checks every section's struct tags.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return c.Import.TLS.Validate()
}
