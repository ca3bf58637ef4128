package apikey

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

const testKey = "publisher-key-0123456789"

func newTestVerifier(t *testing.T, keys ...string) *Verifier {
	t.Helper()
	cfg := &Config{}
	for _, k := range keys {
		h, err := Hash(k, bcrypt.MinCost)
		if err != nil {
			t.Fatalf("Hash: %v", err)
		}
		cfg.Hashes = append(cfg.Hashes, h)
	}
	v, err := NewVerifier(cfg)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func TestHash_Length(t *testing.T) {
	if _, err := Hash("short", bcrypt.MinCost); err == nil {
		t.Error("expected error for short key")
	}
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'k'
	}
	if _, err := Hash(string(long), bcrypt.MinCost); err == nil {
		t.Error("expected error for key over bcrypt limit")
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (&Config{}).Validate(); err == nil {
		t.Error("expected error for empty hash list")
	}
	if err := (&Config{Hashes: []string{"plaintext"}}).Validate(); err == nil {
		t.Error("expected error for non-bcrypt hash")
	}
}

func TestVerifier_Verify(t *testing.T) {
	v := newTestVerifier(t, "other-key-0123456789", testKey)

	if err := v.Verify(testKey); err != nil {
		t.Fatalf("expected key to verify: %v", err)
	}
	// Second call is served from the digest cache.
	if err := v.Verify(testKey); err != nil {
		t.Fatalf("expected cached key to verify: %v", err)
	}
	if _, ok := v.verified.Load(digestOf(testKey)); !ok {
		t.Error("expected digest to be cached")
	}

	if err := v.Verify("wrong-key-0123456789"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
	if err := v.Verify(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey for empty key, got %v", err)
	}
}
