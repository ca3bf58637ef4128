package observability

import (
	"fmt"
	"time"
)

// Config holds observability settings.
type Config struct {
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing" mapstructure:"tracing"`
	Prometheus PrometheusConfig `yaml:"prometheus" mapstructure:"prometheus"`
}

// MetricsConfig configures OTLP metric export.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// PrometheusConfig configures the scrape endpoint.
type PrometheusConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = "localhost:4318"
	}
	if c.Metrics.Interval <= 0 {
		c.Metrics.Interval = 15 * time.Second
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
	if c.Prometheus.Path == "" {
		c.Prometheus.Path = "/metrics"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("observability.tracing.sample_rate must be within [0, 1] (got: %v)", c.Tracing.SampleRate)
	}
	if c.Prometheus.Enabled && c.Prometheus.Path[0] != '/' {
		return fmt.Errorf("observability.prometheus.path must start with / (got: %s)", c.Prometheus.Path)
	}
	return nil
}
