package server

import (
	"fmt"

	"github.com/kbukum/pushhub/server/middleware"
)

// Config holds HTTP server configuration.
//
// ReadTimeout and WriteTimeout default to 0 (disabled): event streams stay
// open for the life of the client. ReadHeaderTimeout bounds slow clients.
type Config struct {
	Host              string                     `yaml:"host" mapstructure:"host"`
	Port              int                        `yaml:"port" mapstructure:"port"`
	ReadHeaderTimeout int                        `yaml:"read_header_timeout" mapstructure:"read_header_timeout"` // seconds
	ReadTimeout       int                        `yaml:"read_timeout" mapstructure:"read_timeout"`               // seconds
	WriteTimeout      int                        `yaml:"write_timeout" mapstructure:"write_timeout"`             // seconds
	IdleTimeout       int                        `yaml:"idle_timeout" mapstructure:"idle_timeout"`               // seconds
	ShutdownTimeout   int                        `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`       // seconds
	MaxBodySize       string                     `yaml:"max_body_size" mapstructure:"max_body_size"`             // e.g. "1MB"
	CORS              middleware.CORSConfig      `yaml:"cors" mapstructure:"cors"`
	RateLimit         middleware.RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = 10
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID", "X-API-Key"}
	}
	if len(c.CORS.ExposedHeaders) == 0 {
		c.CORS.ExposedHeaders = []string{"X-Client-ID", middleware.HeaderRequestID}
	}
	c.RateLimit.ApplyDefaults()
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadHeaderTimeout < 0 {
		return fmt.Errorf("server.read_header_timeout must be non-negative (got: %d)", c.ReadHeaderTimeout)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must be non-negative (got: %d)", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be non-negative (got: %d)", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("server.idle_timeout must be non-negative (got: %d)", c.IdleTimeout)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("server.rate_limit requires positive requests_per_second and burst")
	}
	return nil
}
