// Package apikey verifies API keys against bcrypt hashes.
//
// Only hashes live in configuration. A presented key is compared against
// every configured hash; successful matches are remembered by their SHA-256
// digest so repeat callers skip the bcrypt cost.
//
//	hash, _ := apikey.Hash(key, apikey.DefaultCost)
//	v, _ := apikey.NewVerifier(&apikey.Config{Hashes: []string{hash}})
//	err := v.Verify(key)
package apikey

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	// HeaderName carries the key on publish and admin requests.
	HeaderName = "X-API-Key"

	DefaultCost = 12
	minKeyLen   = 16
)

// ErrInvalidKey is returned when a key matches no configured hash.
var ErrInvalidKey = errors.New("apikey: invalid key")

// Config lists the accepted key hashes.
type Config struct {
	Hashes []string `yaml:"hashes" mapstructure:"hashes"`
}

func (c *Config) ApplyDefaults() {}

// Validate checks that at least one hash is configured and each one parses.
func (c *Config) Validate() error {
	if len(c.Hashes) == 0 {
		return errors.New("at least one hash is required")
	}
	for i, h := range c.Hashes {
		if _, err := bcrypt.Cost([]byte(h)); err != nil {
			return fmt.Errorf("hashes[%d]: %w", i, err)
		}
	}
	return nil
}

// Hash returns the bcrypt hash of key for use in configuration.
func Hash(key string, cost int) (string, error) {
	if len(key) < minKeyLen {
		return "", fmt.Errorf("apikey: minimum length is %d characters", minKeyLen)
	}
	if len(key) > 72 {
		return "", errors.New("apikey: maximum length is 72 characters (bcrypt limit)")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("apikey: hash: %w", err)
	}
	return string(hash), nil
}

// Verifier checks presented keys.
type Verifier struct {
	hashes   [][]byte
	verified sync.Map // sha256 hex -> struct{}
}

// NewVerifier validates cfg and builds a Verifier.
func NewVerifier(cfg *Config) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("apikey: %w", err)
	}
	v := &Verifier{hashes: make([][]byte, len(cfg.Hashes))}
	for i, h := range cfg.Hashes {
		v.hashes[i] = []byte(h)
	}
	return v, nil
}

// Verify returns nil when key matches a configured hash.
func (v *Verifier) Verify(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	digest := digestOf(key)
	if _, ok := v.verified.Load(digest); ok {
		return nil
	}
	for _, h := range v.hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(key)) == nil {
			v.verified.Store(digest, struct{}{})
			return nil
		}
	}
	return ErrInvalidKey
}

func digestOf(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
