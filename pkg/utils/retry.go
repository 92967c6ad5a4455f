package utils

import (
	"context"
	"math"
	"time"
)

// Backoff retries an operation with exponentially growing pauses.
type Backoff struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
	Factor   float64

	// Retryable reports whether err is transient. Nil treats every error as transient.
	Retryable func(err error) bool
}

// DefaultBackoff suits short local contention such as a locked SQLite file.
func DefaultBackoff() Backoff {
	return Backoff{
		Attempts: 3,
		Base:     50 * time.Millisecond,
		Cap:      time.Second,
		Factor:   2,
	}
}

// Delay returns the pause after the given zero-based failed attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	d := float64(b.Base) * math.Pow(b.Factor, float64(attempt))
	if b.Cap > 0 && d > float64(b.Cap) {
		return b.Cap
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, returns a permanent error, the attempts run
// out or ctx is done. The last error from fn is returned.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if b.Retryable != nil && !b.Retryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(b.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
