package remotestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// fastPolicy keeps the exponential curve but with negligible delays so
// tests run instantly.
var fastPolicy = RetryPolicy{
	MaxAttempts:     3,
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
	Multiplier:      2.0,
}

func TestRetryOperation_SucceedsAfterTwoFailures(t *testing.T) {
	attempts := 0
	err := retryOperation(context.Background(), fastPolicy, func() error {
		attempts++
		if attempts < 3 {
			return status.Error(codes.Unavailable, "connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryOperation_ExhaustedReturnsLastError(t *testing.T) {
	lastErr := status.Error(codes.Unavailable, "still down")
	attempts := 0
	err := retryOperation(context.Background(), fastPolicy, func() error {
		attempts++
		if attempts < 3 {
			return status.Error(codes.Unavailable, "down")
		}
		return lastErr
	})

	assert.Equal(t, 3, attempts)
	// The last underlying error must come back unmodified.
	assert.Equal(t, lastErr, err)
}

func TestRetryOperation_PermanentErrorNotRetried(t *testing.T) {
	attempts := 0
	badRequest := status.Error(codes.InvalidArgument, "bad vector size")
	err := retryOperation(context.Background(), fastPolicy, func() error {
		attempts++
		return badRequest
	})

	assert.Equal(t, 1, attempts)
	assert.Equal(t, badRequest, err)
}

func TestRetryOperation_AuthErrorNotRetried(t *testing.T) {
	attempts := 0
	err := retryOperation(context.Background(), fastPolicy, func() error {
		attempts++
		return status.Error(codes.Unauthenticated, "bad api key")
	})

	assert.Equal(t, 1, attempts)
	assert.Error(t, err)
}

func TestRetryOperation_PlainNetworkErrorRetried(t *testing.T) {
	attempts := 0
	err := retryOperation(context.Background(), fastPolicy, func() error {
		attempts++
		return errors.New("connection reset by peer")
	})

	assert.Equal(t, 3, attempts)
	assert.Error(t, err)
}

func TestRetryOperation_FirstAttemptSuccess(t *testing.T) {
	attempts := 0
	err := retryOperation(context.Background(), fastPolicy, func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"unavailable", status.Error(codes.Unavailable, "x"), true},
		{"deadline", status.Error(codes.DeadlineExceeded, "x"), true},
		{"resource exhausted", status.Error(codes.ResourceExhausted, "x"), true},
		{"internal", status.Error(codes.Internal, "x"), true},
		{"plain error", errors.New("x"), true},
		{"invalid argument", status.Error(codes.InvalidArgument, "x"), false},
		{"unauthenticated", status.Error(codes.Unauthenticated, "x"), false},
		{"permission denied", status.Error(codes.PermissionDenied, "x"), false},
		{"not found", status.Error(codes.NotFound, "x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryable(tt.err))
		})
	}
}
