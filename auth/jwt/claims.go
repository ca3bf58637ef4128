package jwt

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// StreamClaims identifies the subscriber of an event stream. UserID falls
// back to the registered subject when the user_id claim is absent.
type StreamClaims struct {
	gojwt.RegisteredClaims
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// User returns the user id carried by the token.
func (c *StreamClaims) User() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// SetDefaults stamps iat/exp and issuer/audience before signing.
func (c *StreamClaims) SetDefaults(now time.Time, ttl time.Duration, issuer, audience string) {
	if c.IssuedAt == nil {
		c.IssuedAt = gojwt.NewNumericDate(now)
	}
	if c.ExpiresAt == nil {
		c.ExpiresAt = gojwt.NewNumericDate(now.Add(ttl))
	}
	if c.Issuer == "" {
		c.Issuer = issuer
	}
	if len(c.Audience) == 0 && audience != "" {
		c.Audience = gojwt.ClaimStrings{audience}
	}
}
