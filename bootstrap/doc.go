// Package bootstrap wires a service's configuration, logger and components
// into a single lifecycle with ordered startup and graceful shutdown.
package bootstrap
