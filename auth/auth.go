package auth

import (
	"net/http"
	"strings"
)

// TokenValidator validates a token string and returns the parsed claims.
// Middleware depends on this interface rather than on the JWT service, so
// tests can swap in a TokenValidatorFunc.
type TokenValidator interface {
	ValidateToken(token string) (any, error)
}

// TokenValidatorFunc adapts an ordinary function to TokenValidator.
type TokenValidatorFunc func(token string) (any, error)

// ValidateToken implements TokenValidator.
func (f TokenValidatorFunc) ValidateToken(token string) (any, error) {
	return f(token)
}

// QueryTokenParam is the query parameter EventSource clients use to pass a
// token, since browsers cannot set headers on an EventSource request.
const QueryTokenParam = "access_token"

// BearerToken extracts the token from an "Authorization: Bearer" header.
// When allowQuery is set and the header is absent, the access_token query
// parameter is used instead.
func BearerToken(r *http.Request, allowQuery bool) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if allowQuery {
			if tok := r.URL.Query().Get(QueryTokenParam); tok != "" {
				return tok, true
			}
		}
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
