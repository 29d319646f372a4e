package worker

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy parameterizes Retry. Backoff is linear: the n-th retry waits
// BaseDelay × n.
type Policy struct {
	// MaxRetries is the number of attempts after the first one
	MaxRetries int

	// BaseDelay is the backoff unit
	BaseDelay time.Duration

	// Timeout bounds each attempt; zero leaves the caller's deadline alone
	Timeout time.Duration

	// IsRetryable decides whether an error is worth another attempt.
	// Nil retries every error except context cancellation.
	IsRetryable func(error) bool

	// OnRetry is called before each backoff sleep
	OnRetry func(attempt int, err error)

	// sleep is replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// RetryError is returned when every attempt failed
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// Retry calls fn until it succeeds, returns a non-retryable error, or the
// retry budget is spent. Each attempt runs under its own timeout.
func Retry[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	attempts := 0
	for {
		attempts++

		v, err := attempt(ctx, p.Timeout, fn)
		if err == nil {
			return v, nil
		}

		if ctx.Err() != nil {
			return zero, &RetryError{Attempts: attempts, Err: err}
		}
		if attempts > p.MaxRetries || !p.retryable(err) {
			return zero, &RetryError{Attempts: attempts, Err: err}
		}

		if p.OnRetry != nil {
			p.OnRetry(attempts, err)
		}
		if serr := sleep(ctx, p.BaseDelay*time.Duration(attempts)); serr != nil {
			return zero, &RetryError{Attempts: attempts, Err: err}
		}
	}
}

func attempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

func (p Policy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if p.IsRetryable == nil {
		return true
	}
	return p.IsRetryable(err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
