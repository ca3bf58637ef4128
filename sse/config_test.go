package sse

import (
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %s", cfg.HeartbeatInterval)
	}
	if cfg.MaxConnections != 1000 {
		t.Errorf("MaxConnections = %d", cfg.MaxConnections)
	}
	if cfg.ConnectionTimeout != 300*time.Second {
		t.Errorf("ConnectionTimeout = %s", cfg.ConnectionTimeout)
	}
	if !cfg.LoggingEnabled() {
		t.Error("logging should default to enabled")
	}
	if cfg.SendBuffer != 256 {
		t.Errorf("SendBuffer = %d", cfg.SendBuffer)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() after defaults = %v", err)
	}
}

func TestConfig_KeepsExplicitLoggingOff(t *testing.T) {
	off := false
	cfg := Config{EnableLogging: &off}
	cfg.ApplyDefaults()
	if cfg.LoggingEnabled() {
		t.Error("explicit enable_logging=false was overridden")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		c := Config{}
		c.ApplyDefaults()
		return c
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero heartbeat", func(c *Config) { c.HeartbeatInterval = 0 }},
		{"zero max connections", func(c *Config) { c.MaxConnections = 0 }},
		{"timeout shorter than heartbeat", func(c *Config) { c.ConnectionTimeout = c.HeartbeatInterval / 2 }},
		{"zero send buffer", func(c *Config) { c.SendBuffer = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
