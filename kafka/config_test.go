package kafka

import (
	"testing"

	kafkago "github.com/segmentio/kafka-go"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if len(cfg.Brokers) != 1 || cfg.Brokers[0] != "localhost:9092" {
		t.Errorf("Brokers = %v", cfg.Brokers)
	}
	if cfg.GroupID != "pushhub" || cfg.Topic != "pushhub.send" {
		t.Errorf("GroupID = %q, Topic = %q", cfg.GroupID, cfg.Topic)
	}
	if cfg.StartOffset != OffsetLast {
		t.Errorf("StartOffset = %q", cfg.StartOffset)
	}
	if cfg.Retries != 3 {
		t.Errorf("Retries = %d", cfg.Retries)
	}
	if cfg.SASLMechanism != "" {
		t.Errorf("SASLMechanism should stay empty without SASL, got %q", cfg.SASLMechanism)
	}

	sasl := Config{EnableSASL: true}
	sasl.ApplyDefaults()
	if sasl.SASLMechanism != "PLAIN" {
		t.Errorf("SASLMechanism = %q, want PLAIN", sasl.SASLMechanism)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"disabled skips checks", func(c *Config) { c.Enabled = false; c.Topic = "" }, false},
		{"no brokers", func(c *Config) { c.Brokers = nil }, true},
		{"no topic", func(c *Config) { c.Topic = "" }, true},
		{"dlq equals topic", func(c *Config) { c.DeadLetterTopic = c.Topic }, true},
		{"bad start offset", func(c *Config) { c.StartOffset = "middle" }, true},
		{"bad duration", func(c *Config) { c.DialTimeout = "soon" }, true},
		{"bad sasl mechanism", func(c *Config) { c.EnableSASL = true; c.SASLMechanism = "GSSAPI"; c.Username = "u" }, true},
		{"sasl without user", func(c *Config) { c.EnableSASL = true; c.SASLMechanism = "PLAIN" }, true},
		{"sasl scram", func(c *Config) { c.EnableSASL = true; c.SASLMechanism = "SCRAM-SHA-512"; c.Username = "u" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Enabled: true}
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_StartOffsetValue(t *testing.T) {
	c := Config{StartOffset: OffsetFirst}
	if c.StartOffsetValue() != kafkago.FirstOffset {
		t.Error("first should map to FirstOffset")
	}
	c.StartOffset = OffsetLast
	if c.StartOffsetValue() != kafkago.LastOffset {
		t.Error("last should map to LastOffset")
	}
}

func TestResolveCompression(t *testing.T) {
	tests := map[string]kafkago.Compression{
		"gzip":    kafkago.Gzip,
		"lz4":     kafkago.Lz4,
		"zstd":    kafkago.Zstd,
		"snappy":  kafkago.Snappy,
		"none":    0,
		"unknown": kafkago.Snappy,
	}
	for name, want := range tests {
		if got := ResolveCompression(name); got != want {
			t.Errorf("ResolveCompression(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestNewDialer(t *testing.T) {
	cfg := Config{Enabled: true, EnableSASL: true, SASLMechanism: "SCRAM-SHA-256", Username: "u", Password: "p"}
	cfg.ApplyDefaults()
	d, err := NewDialer(&cfg)
	if err != nil {
		t.Fatalf("NewDialer: %v", err)
	}
	if d.SASLMechanism == nil {
		t.Error("expected a SASL mechanism")
	}
	if d.TLS != nil {
		t.Error("TLS should be off")
	}

	cfg.EnableTLS = true
	cfg.TLSCAFile = "/nonexistent/ca.pem"
	if _, err := NewDialer(&cfg); err == nil {
		t.Error("expected error for missing CA file")
	}
}

func TestNewTransport(t *testing.T) {
	cfg := Config{EnableTLS: true, TLSSkipVerify: true}
	cfg.ApplyDefaults()
	tr, err := NewTransport(&cfg)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	if tr.TLS == nil || !tr.TLS.InsecureSkipVerify {
		t.Error("expected TLS with skip-verify")
	}
	if tr.SASL != nil {
		t.Error("SASL should be off")
	}
}
