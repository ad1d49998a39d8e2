package crawler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ternarybob/arbor"
)

// RetryPolicy decides which page fetch failures are worth another attempt
type RetryPolicy struct {
	MaxAttempts          int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	RetryableStatusCodes []int
}

// NewRetryPolicy returns the page fetch policy: one retry on throttling,
// gateway errors, timeouts and dropped connections
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:    2,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// statusError marks a response whose status code is retryable
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.code)
}

// Retryable reports whether a response with statusCode (0 when none was
// received) and err may succeed on another attempt
func (p *RetryPolicy) Retryable(statusCode int, err error) bool {
	if statusCode > 0 && slices.Contains(p.RetryableStatusCodes, statusCode) {
		return true
	}
	return isRetryableError(err)
}

func (p *RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialBackoff
	b.MaxInterval = p.MaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0.25
	return b
}

// ExecuteWithRetry runs fn until it returns a final answer or attempts run
// out. fn returns the HTTP status it saw (0 when none) and any transport
// error. A retryable status that never clears is returned with a nil error.
func (p *RetryPolicy) ExecuteWithRetry(ctx context.Context, logger arbor.ILogger, fn func() (int, error)) (int, error) {
	var statusCode int
	var lastErr error
	attempt := 0

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		statusCode, lastErr = fn()

		switch {
		case lastErr == nil && !p.Retryable(statusCode, nil):
			return struct{}{}, nil
		case !p.Retryable(statusCode, lastErr):
			return struct{}{}, backoff.Permanent(lastErr)
		case lastErr == nil:
			return struct{}{}, &statusError{code: statusCode}
		default:
			return struct{}{}, lastErr
		}
	},
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(uint(max(p.MaxAttempts, 1))),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Debug().
				Int("attempt", attempt).
				Int("status_code", statusCode).
				Err(err).
				Dur("backoff", wait).
				Msg("Retrying after backoff")
		}),
	)

	if err != nil && ctx.Err() != nil {
		return statusCode, ctx.Err()
	}
	return statusCode, lastErr
}

// isRetryableError accepts timeouts and connection level failures
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
