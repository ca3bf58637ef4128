package kafka

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/kbukum/pushhub/errors"
)

var connectionPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"no route to host",
	"network is unreachable",
	"broker not available",
	"leader not available",
	"connection closed",
	"dial tcp",
	"network exception",
}

var retryablePatterns = []string{
	"temporary",
	"request timed out",
	"not enough replicas",
	"offset out of range",
	"rebalance in progress",
}

var nonRetryablePatterns = []string{
	"message too large",
	"invalid topic",
	"invalid partition",
	"unknown topic",
	"authorization failed",
	"sasl authentication failed",
}

// IsConnectionError checks if a Kafka error is a connection-level error.
func IsConnectionError(err error) bool {
	return matches(err, connectionPatterns)
}

// IsRetryableError determines if a Kafka error should trigger a retry.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if IsConnectionError(err) {
		return true
	}
	return matches(err, retryablePatterns)
}

// IsNonRetryableError reports errors that will not go away by reading again,
// such as a missing topic or rejected credentials.
func IsNonRetryableError(err error) bool {
	return matches(err, nonRetryablePatterns)
}

// ToAppError maps a broker error onto the service error model.
func ToAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("kafka").WithCause(err)
	case IsConnectionError(err):
		return apperrors.ServiceUnavailable("kafka").WithCause(err)
	default:
		return apperrors.Internal(err)
	}
}

func matches(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
