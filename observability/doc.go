// Package observability sets up OpenTelemetry metrics and tracing and a
// Prometheus scrape registry.
//
// HubMetrics plugs into an sse.Hub as its Recorder and exports connection,
// delivery and error counts over OTLP. HubCollector reads the hub's
// statistics at scrape time for Prometheus.
package observability
