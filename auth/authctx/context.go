// Package authctx carries authentication claims through a request context.
//
//	ctx = authctx.Set(ctx, claims)
//	claims, ok := authctx.Get[*jwt.StreamClaims](ctx)
package authctx

import (
	"context"
	"errors"
)

type contextKey struct{}

// ErrNoClaims is returned when claims are missing or of another type.
var ErrNoClaims = errors.New("authctx: no claims in context")

// Set stores claims in ctx.
func Set(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// Get retrieves claims of type T from ctx.
func Get[T any](ctx context.Context) (T, bool) {
	claims, ok := ctx.Value(contextKey{}).(T)
	return claims, ok
}

// GetOrError is Get returning ErrNoClaims instead of false.
func GetOrError[T any](ctx context.Context) (T, error) {
	claims, ok := Get[T](ctx)
	if !ok {
		return claims, ErrNoClaims
	}
	return claims, nil
}
