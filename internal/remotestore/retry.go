package remotestore

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RetryPolicy bounds the retrying upsert: at most MaxAttempts total calls,
// with exponential delays between them.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryPolicy retries 3 times total with delays of roughly
// 1s, 2s, 4s... capped at 10s.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:     3,
	InitialInterval: time.Second,
	MaxInterval:     10 * time.Second,
	Multiplier:      2.0,
}

// retryOperation runs op under the policy, retrying transient failures only.
// Bad-request and auth failures fail immediately; when all attempts are
// exhausted the last underlying error is returned unmodified.
func retryOperation(ctx context.Context, policy RetryPolicy, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval
	b.Multiplier = policy.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0 // attempts are bounded by count, not wall time

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	retries := uint64(0)
	if policy.MaxAttempts > 1 {
		retries = uint64(policy.MaxAttempts - 1)
	}
	return backoff.Retry(wrapped, backoff.WithMaxRetries(backoff.WithContext(b, ctx), retries))
}

// isRetryable classifies an error as a transient network/server failure.
// gRPC client errors such as InvalidArgument or Unauthenticated are fatal;
// everything that looks like the server or the network misbehaving is
// retried. Non-gRPC errors (dial failures, resets) are treated as transient.
func isRetryable(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return true
	}
	switch st.Code() {
	case codes.Unavailable,
		codes.DeadlineExceeded,
		codes.ResourceExhausted,
		codes.Aborted,
		codes.Internal,
		codes.Unknown:
		return true
	default:
		return false
	}
}
