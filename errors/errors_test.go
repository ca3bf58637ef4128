package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeCapacityExceeded, "full", http.StatusServiceUnavailable)
	if !err.Retryable {
		t.Error("CAPACITY_EXCEEDED should be retryable")
	}
}

func TestAppError_CapacityExceeded(t *testing.T) {
	err := CapacityExceeded(1000)
	if err.Code != ErrCodeCapacityExceeded {
		t.Errorf("expected CAPACITY_EXCEEDED, got %s", err.Code)
	}
	if err.Details["max_connections"] != 1000 {
		t.Errorf("expected max_connections=1000, got %v", err.Details["max_connections"])
	}
	if !strings.Contains(err.Message, "1000") {
		t.Errorf("expected limit in message, got %q", err.Message)
	}
}

func TestAppError_SendFailure(t *testing.T) {
	cause := fmt.Errorf("queue full")
	err := SendFailure("c1", cause)
	if err.Details["client_id"] != "c1" {
		t.Errorf("expected client_id=c1, got %v", err.Details["client_id"])
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestAppError_ClientTimeout(t *testing.T) {
	err := ClientTimeout("c1", 301*time.Second)
	if err.Code != ErrCodeClientTimeout {
		t.Errorf("expected CLIENT_TIMEOUT, got %s", err.Code)
	}
	if err.Details["idle_ms"] != int64(301000) {
		t.Errorf("expected idle_ms=301000, got %v", err.Details["idle_ms"])
	}
}

func TestAppError_MissingTargetID(t *testing.T) {
	err := MissingTargetID("user")
	if err.Code != ErrCodeMissingTargetID {
		t.Errorf("expected MISSING_TARGET_ID, got %s", err.Code)
	}
	if !strings.Contains(err.Message, `"user"`) {
		t.Errorf("expected target in message, got %q", err.Message)
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("client", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
}

func TestAppError_Unauthorized_DefaultMessage(t *testing.T) {
	if got := Unauthorized("").Message; got != "Authentication required." {
		t.Errorf("expected default message, got %q", got)
	}
	if got := Unauthorized("bad token").Message; got != "bad token" {
		t.Errorf("expected custom message, got %q", got)
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NotFound("client", "1").WithCause(cause)
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := NotFound("client", "1").WithDetails(map[string]any{"extra": "info"})
	if err.Details["extra"] != "info" {
		t.Errorf("expected extra=info in details")
	}
	if err.Details["resource"] != "client" {
		t.Error("expected original details to be preserved")
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"ServiceUnavailable", ServiceUnavailable("event hub"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{"CapacityExceeded", CapacityExceeded(1), ErrCodeCapacityExceeded, http.StatusServiceUnavailable, true},
		{"SendFailure", SendFailure("c", nil), ErrCodeSendFailure, http.StatusInternalServerError, false},
		{"ClientTimeout", ClientTimeout("c", time.Second), ErrCodeClientTimeout, http.StatusGatewayTimeout, false},
		{"MissingTargetID", MissingTargetID("session"), ErrCodeMissingTargetID, http.StatusBadRequest, false},
		{"Timeout", Timeout("send"), ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{"RateLimited", RateLimited(), ErrCodeRateLimited, http.StatusTooManyRequests, true},
		{"MissingField", MissingField("type"), ErrCodeMissingField, http.StatusBadRequest, false},
		{"InvalidToken", InvalidToken(), ErrCodeInvalidToken, http.StatusUnauthorized, false},
		{"Forbidden", Forbidden(""), ErrCodeForbidden, http.StatusForbidden, false},
		{"Validation", Validation("bad input"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"InvalidInput", InvalidInput("target", "unknown"), ErrCodeInvalidInput, http.StatusBadRequest, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestAppError_ToResponse_Success(t *testing.T) {
	resp := NotFound("client", "42").ToResponse()
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("expected code NOT_FOUND in response, got %s", resp.Error.Code)
	}
	if resp.Error.Details["id"] != "42" {
		t.Error("expected id=42 in response details")
	}
}

func TestAppError_AsAppError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("wrap: %w", CapacityExceeded(3))

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed for wrapped AppError")
	}
	if got.Code != ErrCodeCapacityExceeded {
		t.Errorf("expected CAPACITY_EXCEEDED, got %s", got.Code)
	}
	if IsAppError(fmt.Errorf("plain")) {
		t.Error("expected IsAppError to return false for plain error")
	}
}
