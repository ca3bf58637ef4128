package sse

import (
	"fmt"
	"time"
)

const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultMaxConnections    = 1000
	DefaultConnectionTimeout = 300 * time.Second
	DefaultSendBuffer        = 256
)

// Config holds hub settings.
type Config struct {
	// HeartbeatInterval is the period between heartbeat sweeps.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`
	// MaxConnections caps the number of concurrently registered clients.
	MaxConnections int `yaml:"max_connections" mapstructure:"max_connections"`
	// ConnectionTimeout is how long a client may go without a successful
	// write before the sweep disconnects it.
	ConnectionTimeout time.Duration `yaml:"connection_timeout" mapstructure:"connection_timeout"`
	// EnableLogging toggles diagnostic logging. Nil means enabled.
	EnableLogging *bool `yaml:"enable_logging" mapstructure:"enable_logging"`
	// SendBuffer is the per-client frame queue length used by Connect.
	SendBuffer int `yaml:"send_buffer" mapstructure:"send_buffer"`
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.ConnectionTimeout <= 0 {
		c.ConnectionTimeout = DefaultConnectionTimeout
	}
	if c.EnableLogging == nil {
		enabled := true
		c.EnableLogging = &enabled
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = DefaultSendBuffer
	}
}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("sse.heartbeat_interval must be positive (got: %s)", c.HeartbeatInterval)
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("sse.max_connections must be positive (got: %d)", c.MaxConnections)
	}
	if c.ConnectionTimeout < c.HeartbeatInterval {
		return fmt.Errorf("sse.connection_timeout (%s) must not be shorter than sse.heartbeat_interval (%s)",
			c.ConnectionTimeout, c.HeartbeatInterval)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("sse.send_buffer must be positive (got: %d)", c.SendBuffer)
	}
	return nil
}

// LoggingEnabled reports whether diagnostic logging is on.
func (c *Config) LoggingEnabled() bool {
	return c.EnableLogging == nil || *c.EnableLogging
}
