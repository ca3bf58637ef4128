package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	SSE           struct {
		HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
		MaxConnections    int           `mapstructure:"max_connections"`
	} `mapstructure:"sse"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfig_ApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "pushhub"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" || !cfg.Debug {
			t.Errorf("got env=%q debug=%v", cfg.Environment, cfg.Debug)
		}
		if cfg.Logging.ServiceName != "pushhub" {
			t.Errorf("logging service name = %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "pushhub", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestServiceConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "pushhub", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "pushhub", Environment: "qa"}, "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadConfig_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: pushhub
environment: staging
sse:
  heartbeat_interval: 15s
  max_connections: 10
`)
	t.Setenv("PUSHHUB_SSE_MAX_CONNECTIONS", "25")

	var cfg testConfig
	if err := LoadConfig("pushhub", &cfg, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "none.env"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "pushhub" || cfg.Environment != "staging" {
		t.Errorf("base = %+v", cfg.ServiceConfig)
	}
	if cfg.SSE.HeartbeatInterval != 15*time.Second {
		t.Errorf("heartbeat_interval = %s", cfg.SSE.HeartbeatInterval)
	}
	if cfg.SSE.MaxConnections != 25 {
		t.Errorf("max_connections = %d, want env override 25", cfg.SSE.MaxConnections)
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "PUSHHUB_TEST_ENVIRONMENT=production\n")
	t.Cleanup(func() { os.Unsetenv("PUSHHUB_TEST_ENVIRONMENT") })

	var cfg testConfig
	err := LoadConfig("pushhub-test", &cfg,
		WithConfigFile(filepath.Join(dir, "missing.yml")),
		WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Environment != "production" {
		t.Errorf("environment = %q, want production from .env", cfg.Environment)
	}
}

func TestLoadConfig_MissingFileIsNotAnError(t *testing.T) {
	var cfg testConfig
	if err := LoadConfig("nonexistent", &cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("expected success with missing file, got %v", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolver(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"../cmd/pushhub/config.yml": true,
		"./.env":                    true,
	}}
	r := &Resolver{FileSystem: fs}
	files := r.ResolveFiles("pushhub", LoaderConfig{})
	if files.ConfigFile != "../cmd/pushhub/config.yml" {
		t.Errorf("config file = %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("env file = %q", files.EnvFile)
	}

	explicit := r.ResolveFiles("pushhub", LoaderConfig{ConfigFile: "/etc/pushhub.yml"})
	if explicit.ConfigFile != "/etc/pushhub.yml" {
		t.Errorf("explicit config file = %q", explicit.ConfigFile)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("SSE_MAX_CONNECTIONS")
	want := []string{"sse_max_connections", "sse.max_connections", "sse.max.connections"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("envKeyVariants() = %v, want %v", got, want)
	}
	if got := envKeyVariants("NAME"); len(got) != 1 || got[0] != "name" {
		t.Errorf("envKeyVariants(NAME) = %v", got)
	}
}
