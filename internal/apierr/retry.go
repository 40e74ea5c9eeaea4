package apierr

import (
	"context"
	"fmt"
	"time"
)

// Backoff describes how transient API failures are retried: up to
// MaxRetries more attempts, waiting BaseDelay, then doubling up to MaxDelay.
// Out-of-range fields fall back to a single attempt and a 1ms delay.
type Backoff struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// OnRetry, when set, is called before each wait with the attempt that
	// just failed (1-based), the upcoming delay, and its error.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func (b Backoff) normalized() Backoff {
	b.MaxRetries = max(b.MaxRetries, 0)
	if b.BaseDelay <= 0 {
		b.BaseDelay = time.Millisecond
	}
	if b.MaxDelay < b.BaseDelay {
		b.MaxDelay = b.BaseDelay
	}
	return b
}

// delay returns the wait before retry n (1-based).
func (b Backoff) delay(n int) time.Duration {
	d := b.BaseDelay
	for i := 1; i < n && d < b.MaxDelay; i++ {
		d *= 2
	}
	return min(d, b.MaxDelay)
}

// Retry calls fn until it succeeds, fails with an error IsRetryable rejects,
// or the retries run out. A canceled ctx stops the wait and returns ctx.Err().
func Retry[T any](ctx context.Context, b Backoff, fn func() (T, error)) (T, error) {
	b = b.normalized()

	var zero T
	for attempt := 1; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}
		if attempt > b.MaxRetries {
			return zero, fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}

		wait := b.delay(attempt)
		if b.OnRetry != nil {
			b.OnRetry(attempt, wait, err)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
