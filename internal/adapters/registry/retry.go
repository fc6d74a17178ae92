package registry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryableError marks a transient failure (transport error, 5xx, 429).
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func transient(err error) error {
	return &retryableError{err: err}
}

// policy doubles delay after each failure and allows attempts calls in total.
func policy(ctx context.Context, attempts int, delay time.Duration) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = delay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(max(attempts, 1)-1)), ctx)
}

// retry runs fn until it succeeds, fails permanently, or runs out of attempts.
// Only errors marked transient are retried. The returned error never carries
// the retryable marker, and a canceled wait reports the last failure rather
// than the context error.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var last error
	err := backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		var re *retryableError
		if !errors.As(err, &re) {
			return backoff.Permanent(err)
		}
		last = re.err
		return last
	}, policy(ctx, attempts, delay))

	if err != nil && last != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return last
	}
	return err
}
