// Package config loads service configuration with Viper.
//
// Values come from a YAML file (searched under ./cmd/<service>/config.yml
// and a few parent directories), an optional .env file, and environment
// variables prefixed with the upper-cased service name:
//
//	PUSHHUB_SSE_MAX_CONNECTIONS=5000 ./pushhub
//
// ServiceConfig carries the fields shared by every service and is meant
// to be embedded.
package config
