package main

import (
	"fmt"

	"github.com/kbukum/pushhub/auth"
	"github.com/kbukum/pushhub/config"
	"github.com/kbukum/pushhub/kafka"
	"github.com/kbukum/pushhub/observability"
	"github.com/kbukum/pushhub/server"
	"github.com/kbukum/pushhub/sse"
	"github.com/kbukum/pushhub/version"
)

// Config is the pushhub service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	SSE           sse.Config           `yaml:"sse" mapstructure:"sse"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Kafka         kafka.Config         `yaml:"kafka" mapstructure:"kafka"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "pushhub"
	}
	if c.Version == "" {
		c.Version = version.Get().Version
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.SSE.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Kafka.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	for _, s := range []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"server", &c.Server},
		{"sse", &c.SSE},
		{"auth", &c.Auth},
		{"kafka", &c.Kafka},
		{"observability", &c.Observability},
	} {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("config.%s: %w", s.name, err)
		}
	}
	return nil
}
