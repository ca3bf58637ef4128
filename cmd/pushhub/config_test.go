package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/pushhub/config"
)

func TestConfig_LoadsShippedFile(t *testing.T) {
	var cfg Config
	require.NoError(t, config.LoadConfig(serviceName, &cfg,
		config.WithConfigFile("config.yml"),
		config.WithEnvFile(filepath.Join(t.TempDir(), "none.env"))))
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "pushhub", cfg.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.SSE.HeartbeatInterval)
	assert.Equal(t, 1000, cfg.SSE.MaxConnections)
	assert.Equal(t, "pushhub.send", cfg.Kafka.Topic)
	assert.True(t, cfg.Observability.Prometheus.Enabled)
	assert.NotEmpty(t, cfg.Version)
}

func TestConfig_EnvOverride(t *testing.T) {
	t.Setenv("PUSHHUB_SSE_MAX_CONNECTIONS", "5")
	t.Setenv("PUSHHUB_KAFKA_ENABLED", "true")

	var cfg Config
	require.NoError(t, config.LoadConfig(serviceName, &cfg,
		config.WithConfigFile("config.yml"),
		config.WithEnvFile(filepath.Join(t.TempDir(), "none.env"))))
	cfg.ApplyDefaults()

	assert.Equal(t, 5, cfg.SSE.MaxConnections)
	assert.True(t, cfg.Kafka.Enabled)
}

func TestConfig_ValidatePrefixesSection(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	cfg.Kafka.Enabled = true
	cfg.Kafka.StartOffset = "middle"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config.kafka:")
}
