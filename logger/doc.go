// Package logger provides structured logging on top of zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("sse.hub")
//	log.Info("client connected", logger.Fields("client_id", id))
package logger
