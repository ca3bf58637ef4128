package auth

import (
	"fmt"

	"github.com/kbukum/pushhub/auth/apikey"
	"github.com/kbukum/pushhub/auth/jwt"
)

// Config holds all authentication configuration. Sub-configs are pointers
// so unused mechanisms stay nil and skip validation.
type Config struct {
	// Enabled controls whether authentication is active.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// AllowQueryToken accepts stream tokens from the access_token query
	// parameter.
	AllowQueryToken bool `yaml:"allow_query_token" mapstructure:"allow_query_token"`

	// JWT authenticates stream subscribers (nil if not used).
	JWT *jwt.Config `yaml:"jwt" mapstructure:"jwt"`

	// APIKeys authenticates admin and publish requests (nil if not used).
	APIKeys *apikey.Config `yaml:"api_keys" mapstructure:"api_keys"`
}

// ApplyDefaults sets defaults for non-nil sub-configurations.
func (c *Config) ApplyDefaults() {
	if c.JWT != nil {
		c.JWT.ApplyDefaults()
	}
	if c.APIKeys != nil {
		c.APIKeys.ApplyDefaults()
	}
}

// Validate checks all non-nil sub-configurations.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.JWT == nil && c.APIKeys == nil {
		return fmt.Errorf("auth: enabled but neither jwt nor api_keys is configured")
	}
	if c.JWT != nil {
		if err := c.JWT.Validate(); err != nil {
			return fmt.Errorf("auth.jwt: %w", err)
		}
	}
	if c.APIKeys != nil {
		if err := c.APIKeys.Validate(); err != nil {
			return fmt.Errorf("auth.api_keys: %w", err)
		}
	}
	return nil
}

// Describe returns a one-liner for the startup summary,
// e.g. "JWT(HS256) api_keys=2".
func (c *Config) Describe() string {
	if !c.Enabled {
		return "disabled"
	}
	var line string
	if c.JWT != nil {
		line = fmt.Sprintf("JWT(%s)", c.JWT.Method)
		if c.AllowQueryToken {
			line += " query_token"
		}
	}
	if c.APIKeys != nil {
		if line != "" {
			line += " "
		}
		line += fmt.Sprintf("api_keys=%d", len(c.APIKeys.Hashes))
	}
	return line
}
