package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kbukum/pushhub/sse"
)

// StatsSource is anything that reports hub statistics.
type StatsSource interface {
	GetStats() sse.Stats
}

// HubCollector exposes hub statistics at scrape time. Values are read from
// the hub on every Collect, so nothing has to be kept in sync.
type HubCollector struct {
	source StatsSource

	active      *prometheus.Desc
	connections *prometheus.Desc
	eventsSent  *prometheus.Desc
	errors      *prometheus.Desc
	uptime      *prometheus.Desc
}

var _ prometheus.Collector = (*HubCollector)(nil)

// NewHubCollector creates a collector under namespace_sse_*.
func NewHubCollector(namespace string, source StatsSource) *HubCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "sse", name), help, nil, nil)
	}
	return &HubCollector{
		source:      source,
		active:      desc("active_connections", "Number of clients currently registered."),
		connections: desc("connections_total", "Total number of clients ever registered."),
		eventsSent:  desc("events_sent_total", "Total number of frames accepted by client sinks."),
		errors:      desc("errors_total", "Total number of handled hub errors."),
		uptime:      desc("uptime_seconds", "Seconds since the hub was created."),
	}
}

func (c *HubCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.active
	ch <- c.connections
	ch <- c.eventsSent
	ch <- c.errors
	ch <- c.uptime
}

func (c *HubCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.GetStats()
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(s.ActiveConnections))
	ch <- prometheus.MustNewConstMetric(c.connections, prometheus.CounterValue, float64(s.TotalConnections))
	ch <- prometheus.MustNewConstMetric(c.eventsSent, prometheus.CounterValue, float64(s.TotalEventsSent))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.TotalErrors))
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, s.Uptime.Seconds())
}

// NewRegistry returns a Prometheus registry with the Go runtime and
// process collectors registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
