package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/kbukum/pushhub/errors"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		err          error
		connection   bool
		retryable    bool
		nonRetryable bool
	}{
		{nil, false, false, false},
		{errors.New("dial tcp 10.0.0.1:9092: connection refused"), true, true, false},
		{errors.New("[7] Request Timed Out"), false, true, false},
		{errors.New("[3] Unknown Topic Or Partition"), false, false, true},
		{errors.New("SASL Authentication Failed"), false, false, true},
		{errors.New("something else"), false, false, false},
	}
	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			if got := IsConnectionError(tt.err); got != tt.connection {
				t.Errorf("IsConnectionError = %v, want %v", got, tt.connection)
			}
			if got := IsRetryableError(tt.err); got != tt.retryable {
				t.Errorf("IsRetryableError = %v, want %v", got, tt.retryable)
			}
			if got := IsNonRetryableError(tt.err); got != tt.nonRetryable {
				t.Errorf("IsNonRetryableError = %v, want %v", got, tt.nonRetryable)
			}
		})
	}
}

func TestToAppError(t *testing.T) {
	if ToAppError(nil) != nil {
		t.Error("nil should map to nil")
	}

	tests := []struct {
		err  error
		want apperrors.ErrorCode
	}{
		{fmt.Errorf("fetch: %w", context.DeadlineExceeded), apperrors.ErrCodeTimeout},
		{errors.New("broker not available"), apperrors.ErrCodeServiceUnavailable},
		{errors.New("corrupt message"), apperrors.ErrCodeInternal},
		{apperrors.RateLimited(), apperrors.ErrCodeRateLimited},
	}
	for _, tt := range tests {
		if got := ToAppError(tt.err); got.Code != tt.want {
			t.Errorf("ToAppError(%v).Code = %s, want %s", tt.err, got.Code, tt.want)
		}
	}
}
