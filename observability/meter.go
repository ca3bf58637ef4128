package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/pushhub/logger"
	"github.com/kbukum/pushhub/sse"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	Interval time.Duration
}

// InitMeter initializes the global OpenTelemetry meter provider. The
// returned provider must be shut down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// HubMetrics records hub activity as OpenTelemetry instruments. It
// implements sse.Recorder.
type HubMetrics struct {
	connected    metric.Int64Counter
	disconnected metric.Int64Counter
	active       metric.Int64UpDownCounter
	eventsSent   metric.Int64Counter
	errors       metric.Int64Counter
}

var _ sse.Recorder = (*HubMetrics)(nil)

// NewHubMetrics creates the hub instruments on meter.
func NewHubMetrics(meter metric.Meter) (*HubMetrics, error) {
	connected, err := meter.Int64Counter("sse.connections.opened",
		metric.WithDescription("Clients registered with the hub"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sse.connections.opened counter: %w", err)
	}
	disconnected, err := meter.Int64Counter("sse.connections.closed",
		metric.WithDescription("Clients removed from the hub, by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sse.connections.closed counter: %w", err)
	}
	active, err := meter.Int64UpDownCounter("sse.connections.active",
		metric.WithDescription("Clients currently registered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sse.connections.active gauge: %w", err)
	}
	eventsSent, err := meter.Int64Counter("sse.events.sent",
		metric.WithDescription("Frames accepted by client sinks, by event type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sse.events.sent counter: %w", err)
	}
	errs, err := meter.Int64Counter("sse.errors",
		metric.WithDescription("Handled hub errors, by code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sse.errors counter: %w", err)
	}

	return &HubMetrics{
		connected:    connected,
		disconnected: disconnected,
		active:       active,
		eventsSent:   eventsSent,
		errors:       errs,
	}, nil
}

func (m *HubMetrics) ClientConnected() {
	ctx := context.Background()
	m.connected.Add(ctx, 1)
	m.active.Add(ctx, 1)
}

func (m *HubMetrics) ClientDisconnected(reason string) {
	ctx := context.Background()
	m.disconnected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	m.active.Add(ctx, -1)
}

func (m *HubMetrics) EventSent(eventType string) {
	m.eventsSent.Add(context.Background(), 1, metric.WithAttributes(attribute.String("type", eventType)))
}

func (m *HubMetrics) Error(code string) {
	m.errors.Add(context.Background(), 1, metric.WithAttributes(attribute.String("code", code)))
}

// RequestMetrics holds HTTP request instruments.
type RequestMetrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestActive   metric.Int64UpDownCounter
}

// NewRequestMetrics creates request instruments on meter.
func NewRequestMetrics(meter metric.Meter) (*RequestMetrics, error) {
	requestTotal, err := meter.Int64Counter("http.request.total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.request.total counter: %w", err)
	}
	requestDuration, err := meter.Float64Histogram("http.request.duration",
		metric.WithDescription("Duration of requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.request.duration histogram: %w", err)
	}
	requestActive, err := meter.Int64UpDownCounter("http.request.active",
		metric.WithDescription("Number of in-flight requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.request.active gauge: %w", err)
	}
	return &RequestMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestActive:   requestActive,
	}, nil
}

// RecordRequestStart increments the in-flight request count.
func (m *RequestMetrics) RecordRequestStart(ctx context.Context) {
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd decrements in-flight requests and records the request.
func (m *RequestMetrics) RecordRequestEnd(ctx context.Context, route, method string, status int, duration time.Duration) {
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("method", method),
		attribute.Int("status", status),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("method", method),
	))
}
