package kafka

import (
	"fmt"
	"time"
)

// Start offsets for a consumer group without a committed offset.
const (
	OffsetFirst = "first"
	OffsetLast  = "last"
)

// Config holds Kafka connection and ingress configuration.
type Config struct {
	// Enabled controls whether the ingress consumer runs.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
	GroupID string   `yaml:"group_id" mapstructure:"group_id"`

	// Topic carries targeted-send requests.
	Topic string `yaml:"topic" mapstructure:"topic"`
	// DeadLetterTopic receives records that could not be decoded or
	// validated. Empty disables dead-lettering.
	DeadLetterTopic string `yaml:"dead_letter_topic" mapstructure:"dead_letter_topic"`
	// StartOffset is used when the group has no committed offset: first or last.
	StartOffset string `yaml:"start_offset" mapstructure:"start_offset"`
	// MaxBytes caps a single fetch.
	MaxBytes int `yaml:"max_bytes" mapstructure:"max_bytes"`

	// TLS
	EnableTLS     bool   `yaml:"enable_tls" mapstructure:"enable_tls"`
	TLSSkipVerify bool   `yaml:"tls_skip_verify" mapstructure:"tls_skip_verify"`
	TLSCAFile     string `yaml:"tls_ca_file" mapstructure:"tls_ca_file"`
	TLSCertFile   string `yaml:"tls_cert_file" mapstructure:"tls_cert_file"`
	TLSKeyFile    string `yaml:"tls_key_file" mapstructure:"tls_key_file"`

	// SASL
	EnableSASL    bool   `yaml:"enable_sasl" mapstructure:"enable_sasl"`
	SASLMechanism string `yaml:"sasl_mechanism" mapstructure:"sasl_mechanism"` // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	Username      string `yaml:"username" mapstructure:"username"`
	Password      string `yaml:"password" mapstructure:"password"`

	// Dead-letter producer
	Compression  string `yaml:"compression" mapstructure:"compression"` // none, gzip, snappy, lz4, zstd
	Retries      int    `yaml:"retries" mapstructure:"retries"`
	WriteTimeout string `yaml:"write_timeout" mapstructure:"write_timeout"`

	// Consumer group
	SessionTimeout    string `yaml:"session_timeout" mapstructure:"session_timeout"`
	HeartbeatInterval string `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`
	RebalanceTimeout  string `yaml:"rebalance_timeout" mapstructure:"rebalance_timeout"`
	CommitInterval    string `yaml:"commit_interval" mapstructure:"commit_interval"`
	// MaxBackoff caps the delay between failed reads.
	MaxBackoff string `yaml:"max_backoff" mapstructure:"max_backoff"`

	// Connection
	DialTimeout string `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	IdleTimeout string `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	MetadataTTL string `yaml:"metadata_ttl" mapstructure:"metadata_ttl"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.GroupID == "" {
		c.GroupID = "pushhub"
	}
	if c.Topic == "" {
		c.Topic = "pushhub.send"
	}
	if c.StartOffset == "" {
		c.StartOffset = OffsetLast
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 1 << 20
	}
	if c.Compression == "" {
		c.Compression = "snappy"
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "10s"
	}
	if c.SessionTimeout == "" {
		c.SessionTimeout = "30s"
	}
	if c.HeartbeatInterval == "" {
		c.HeartbeatInterval = "3s"
	}
	if c.RebalanceTimeout == "" {
		c.RebalanceTimeout = "30s"
	}
	if c.CommitInterval == "" {
		c.CommitInterval = "1s"
	}
	if c.MaxBackoff == "" {
		c.MaxBackoff = "30s"
	}
	if c.DialTimeout == "" {
		c.DialTimeout = "10s"
	}
	if c.IdleTimeout == "" {
		c.IdleTimeout = "30s"
	}
	if c.MetadataTTL == "" {
		c.MetadataTTL = "6s"
	}
	if c.SASLMechanism == "" && c.EnableSASL {
		c.SASLMechanism = "PLAIN"
	}
}

// Validate checks that required fields are present and parseable.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required")
	}
	if c.GroupID == "" {
		return fmt.Errorf("kafka group_id is required")
	}
	if c.Topic == "" {
		return fmt.Errorf("kafka topic is required")
	}
	if c.DeadLetterTopic != "" && c.DeadLetterTopic == c.Topic {
		return fmt.Errorf("kafka dead_letter_topic must differ from topic")
	}
	switch c.StartOffset {
	case OffsetFirst, OffsetLast:
	default:
		return fmt.Errorf("kafka start_offset must be %q or %q, got %q", OffsetFirst, OffsetLast, c.StartOffset)
	}
	for _, d := range []struct {
		name, val string
	}{
		{"write_timeout", c.WriteTimeout},
		{"session_timeout", c.SessionTimeout},
		{"heartbeat_interval", c.HeartbeatInterval},
		{"rebalance_timeout", c.RebalanceTimeout},
		{"commit_interval", c.CommitInterval},
		{"max_backoff", c.MaxBackoff},
		{"dial_timeout", c.DialTimeout},
		{"idle_timeout", c.IdleTimeout},
		{"metadata_ttl", c.MetadataTTL},
	} {
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.val, err)
		}
	}
	if c.EnableSASL {
		switch c.SASLMechanism {
		case "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
		default:
			return fmt.Errorf("unsupported SASL mechanism: %s", c.SASLMechanism)
		}
		if c.Username == "" {
			return fmt.Errorf("SASL username is required")
		}
	}
	if c.Retries <= 0 {
		return fmt.Errorf("retries must be > 0")
	}
	return nil
}

// ParseDuration parses a duration string, returning zero on empty input.
func ParseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
