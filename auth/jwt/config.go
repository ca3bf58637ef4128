package jwt

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod defines supported JWT signing algorithms.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
)

// Config configures the JWT token service. Stream tokens are issued by an
// upstream identity service sharing the HMAC secret.
type Config struct {
	// Secret is the HMAC signing key.
	Secret string `yaml:"secret" mapstructure:"secret"`

	// Method is the signing algorithm (default: HS256).
	Method SigningMethod `yaml:"method" mapstructure:"method"`

	// Issuer is the expected "iss" claim (optional).
	Issuer string `yaml:"issuer" mapstructure:"issuer"`

	// Audience is the expected "aud" claim (optional).
	Audience string `yaml:"audience" mapstructure:"audience"`

	// AccessTokenTTL is the lifetime of tokens minted by GenerateAccess.
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" mapstructure:"access_token_ttl"`

	// Leeway tolerates clock skew when checking exp and nbf.
	Leeway time.Duration `yaml:"leeway" mapstructure:"leeway"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 15 * time.Minute
	}
}

// Validate checks required fields based on the signing method.
func (c *Config) Validate() error {
	switch c.Method {
	case HS256, HS384, HS512:
	default:
		return errors.New("unsupported signing method: " + string(c.Method))
	}
	if c.Secret == "" {
		return errors.New("secret is required for HMAC signing methods")
	}
	if len(c.Secret) < 32 {
		return errors.New("secret must be at least 32 bytes")
	}
	if c.Leeway < 0 {
		return errors.New("leeway must be non-negative")
	}
	return nil
}

func (c *Config) signingMethod() gojwt.SigningMethod {
	switch c.Method {
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	default:
		return gojwt.SigningMethodHS256
	}
}

func (c *Config) key() []byte {
	return []byte(c.Secret)
}
