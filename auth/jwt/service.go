// Package jwt provides a generic JWT token service.
//
// The service is parameterized by a claims type T implementing jwt.Claims,
// typically by embedding jwt.RegisteredClaims. StreamClaims is the type the
// event stream authenticates with:
//
//	svc, err := jwt.NewService(cfg, func() *jwt.StreamClaims { return &jwt.StreamClaims{} })
//	claims, err := svc.Parse(tokenString)
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Service generates and parses tokens carrying claims of type T.
type Service[T gojwt.Claims] struct {
	cfg      Config
	newEmpty func() T
	now      func() time.Time
}

// NewService creates a JWT service. newEmpty returns a fresh T for parsing.
func NewService[T gojwt.Claims](cfg *Config, newEmpty func() T) (*Service[T], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	return &Service[T]{cfg: *cfg, newEmpty: newEmpty, now: time.Now}, nil
}

// NewStreamService creates a service for StreamClaims.
func NewStreamService(cfg *Config) (*Service[*StreamClaims], error) {
	return NewService(cfg, func() *StreamClaims { return &StreamClaims{} })
}

// Generate signs claims as-is.
func (s *Service[T]) Generate(claims T) (string, error) {
	token := gojwt.NewWithClaims(s.cfg.signingMethod(), claims)
	signed, err := token.SignedString(s.cfg.key())
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// GenerateAccess stamps standard time claims with AccessTokenTTL and signs.
func (s *Service[T]) GenerateAccess(claims T) (string, error) {
	if setter, ok := any(claims).(interface {
		SetDefaults(time.Time, time.Duration, string, string)
	}); ok {
		setter.SetDefaults(s.now(), s.cfg.AccessTokenTTL, s.cfg.Issuer, s.cfg.Audience)
	}
	return s.Generate(claims)
}

// Parse verifies the signature, expiry and optional issuer/audience.
func (s *Service[T]) Parse(tokenString string) (T, error) {
	var zero T
	claims := s.newEmpty()
	token, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc, s.parserOptions()...)
	if err != nil {
		return zero, fmt.Errorf("jwt: parse token: %w", err)
	}
	if !token.Valid {
		return zero, errors.New("jwt: invalid token")
	}
	parsed, ok := token.Claims.(T)
	if !ok {
		return zero, errors.New("jwt: unexpected claims type")
	}
	return parsed, nil
}

// ValidateToken implements auth.TokenValidator.
func (s *Service[T]) ValidateToken(token string) (any, error) {
	return s.Parse(token)
}

func (s *Service[T]) keyFunc(token *gojwt.Token) (interface{}, error) {
	if token.Method.Alg() != s.cfg.signingMethod().Alg() {
		return nil, fmt.Errorf("jwt: unexpected signing method: %s", token.Method.Alg())
	}
	return s.cfg.key(), nil
}

func (s *Service[T]) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{s.cfg.signingMethod().Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(s.now),
	}
	if s.cfg.Leeway > 0 {
		opts = append(opts, gojwt.WithLeeway(s.cfg.Leeway))
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, gojwt.WithAudience(s.cfg.Audience))
	}
	return opts
}
