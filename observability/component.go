package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/pushhub/component"
)

// Component owns the meter and tracer providers and the Prometheus
// registry.
type Component struct {
	cfg         Config
	service     string
	version     string
	environment string
	registry    *prometheus.Registry

	mu sync.Mutex
	mp *sdkmetric.MeterProvider
	tp *sdktrace.TracerProvider
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the component. Exporters are set up in Start.
func NewComponent(cfg Config, service, version, environment string) *Component {
	cfg.ApplyDefaults()
	return &Component{
		cfg:         cfg,
		service:     service,
		version:     version,
		environment: environment,
		registry:    NewRegistry(),
	}
}

// Registry returns the Prometheus registry served at the scrape path.
func (c *Component) Registry() *prometheus.Registry { return c.registry }

// Handler returns the scrape handler.
func (c *Component) Handler() http.Handler { return Handler(c.registry) }

func (c *Component) Name() string { return "observability" }

// Start initializes the enabled exporters.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.Metrics.Enabled && c.mp == nil {
		mp, err := InitMeter(ctx, &MeterConfig{
			ServiceName:    c.service,
			ServiceVersion: c.version,
			Environment:    c.environment,
			Endpoint:       c.cfg.Metrics.Endpoint,
			Insecure:       c.cfg.Metrics.Insecure,
			Interval:       c.cfg.Metrics.Interval,
		})
		if err != nil {
			return err
		}
		c.mp = mp
	}
	if c.cfg.Tracing.Enabled && c.tp == nil {
		tp, err := InitTracer(ctx, TracerConfig{
			ServiceName:    c.service,
			ServiceVersion: c.version,
			Environment:    c.environment,
			Endpoint:       c.cfg.Tracing.Endpoint,
			Insecure:       c.cfg.Tracing.Insecure,
			SampleRate:     c.cfg.Tracing.SampleRate,
		})
		if err != nil {
			return err
		}
		c.tp = tp
	}
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.mp != nil {
		if err := c.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
		c.mp = nil
	}
	if c.tp != nil {
		if err := c.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
		c.tp = nil
	}
	return errors.Join(errs...)
}

func (c *Component) Health(_ context.Context) component.Health {
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: c.summary(),
	}
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Observability",
		Type:    "observability",
		Details: c.summary(),
	}
}

func (c *Component) summary() string {
	var parts []string
	if c.cfg.Metrics.Enabled {
		parts = append(parts, "otlp-metrics="+c.cfg.Metrics.Endpoint)
	}
	if c.cfg.Tracing.Enabled {
		parts = append(parts, "otlp-traces="+c.cfg.Tracing.Endpoint)
	}
	if c.cfg.Prometheus.Enabled {
		parts = append(parts, "prometheus="+c.cfg.Prometheus.Path)
	}
	if len(parts) == 0 {
		return "disabled"
	}
	return strings.Join(parts, " ")
}
