// Package retry re-runs operations that fail for transient reasons,
// waiting an exponentially growing delay between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	sserr "securesock/internal/errors"
)

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError marks an error that another attempt cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable.  Nil stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Retryable reports whether another attempt could succeed.  Errors
// marked [Permanent], configuration errors, rejected SSH credentials or
// host keys and context cancellation are final; everything else,
// typically a refused or timed-out dial, is worth retrying.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var pe *PermanentError
	if errors.As(err, &pe) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ce *sserr.ConfigError
	if sserr.As(err, &ce) {
		return false
	}
	var se *sserr.SSHError
	if sserr.As(err, &se) {
		return se.Op != "auth" && se.Op != "hostkey"
	}
	return true
}

// ── Backoff ──────────────────────────────────────────────────────────

// Backoff retries with exponentially growing delays.  The zero value
// is usable: 1s initial delay, doubling, capped at 30s, 3 attempts.
type Backoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxAttempts  int  // total tries including the first; <0 = unlimited
	Jitter       bool // ±25% on every delay

	// OnRetry, when set, is told about each failed attempt that will
	// be retried and how long the next wait is.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultBackoff is the reconnect policy used for SSH gateways.
func DefaultBackoff() *Backoff {
	return &Backoff{
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  3,
		Jitter:       true,
	}
}

// Do calls fn until it succeeds, fails with a non-[Retryable] error,
// runs out of attempts or ctx is done.  attempt is 1-based.  The last
// error from fn is returned, wrapped when the budget ran out.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	delay := b.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}
	multiplier := b.Multiplier
	if multiplier < 1 {
		multiplier = 2.0
	}
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	maxAttempts := b.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 3
	}

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			var pe *PermanentError
			if errors.As(err, &pe) {
				return pe.Err
			}
			return err
		}
		if maxAttempts > 0 && attempt >= maxAttempts {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		wait := delay
		if b.Jitter {
			wait = addJitter(delay)
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}

		delay = time.Duration(math.Min(float64(delay)*multiplier, float64(maxDelay)))
	}
}

// addJitter spreads d by ±25%, never below a millisecond.
func addJitter(d time.Duration) time.Duration {
	quarter := float64(d) * 0.25
	delta := (rand.Float64() * 2 * quarter) - quarter
	return time.Duration(math.Max(float64(d)+delta, float64(time.Millisecond)))
}
