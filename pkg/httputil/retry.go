package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a transient failure. After, when positive, is the
// wait the server asked for.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a [RetryableError]. Returns nil for nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// RetryAfter is [Retryable] with a server-requested wait.
func RetryAfter(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err, After: after}
}

// IsRetryable reports whether err is, or wraps, a [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// DefaultMaxDelay caps a single wait when Backoff.MaxDelay is zero.
const DefaultMaxDelay = 30 * time.Second

// Backoff is an exponential retry schedule.
type Backoff struct {
	Attempts int           // total tries, at least one
	Delay    time.Duration // first wait, doubled after each failure
	MaxDelay time.Duration // cap on a single wait
}

// DefaultBackoff tries three times, waiting 1s then 2s.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts run out. It returns the last error, or ctx.Err() when ctx ends
// during a wait.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		t := time.NewTimer(b.wait(i, err))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return err
}

// wait returns the pause after failed attempt i. A server hint replaces
// the exponential delay; both are capped.
func (b Backoff) wait(i int, err error) time.Duration {
	limit := b.MaxDelay
	if limit <= 0 {
		limit = DefaultMaxDelay
	}
	d := b.Delay
	for j := 0; j < i && d > 0 && d < limit; j++ {
		d *= 2
	}
	var rerr *RetryableError
	if errors.As(err, &rerr) && rerr.After > 0 {
		d = rerr.After
	}
	return min(d, limit)
}

// Retry runs fn with Backoff{Attempts: attempts, Delay: delay}.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return Backoff{Attempts: attempts, Delay: delay}.Do(ctx, fn)
}
