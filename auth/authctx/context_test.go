package authctx

import (
	"context"
	"errors"
	"testing"
)

type claims struct{ user string }

func TestSetGet(t *testing.T) {
	ctx := Set(context.Background(), &claims{user: "u1"})

	got, ok := Get[*claims](ctx)
	if !ok || got.user != "u1" {
		t.Fatalf("Get = %v, %v", got, ok)
	}

	if _, ok := Get[string](ctx); ok {
		t.Error("expected type mismatch to report false")
	}
}

func TestGetOrError(t *testing.T) {
	if _, err := GetOrError[*claims](context.Background()); !errors.Is(err, ErrNoClaims) {
		t.Errorf("expected ErrNoClaims, got %v", err)
	}
}
