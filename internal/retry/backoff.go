// Package retry provides the reconnect policies used by the chat
// session: immediate indefinite retry, or exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ── Stop conditions ──────────────────────────────────────────────────

// PermanentError wraps an error to signal that another connect attempt
// will not help.  Return [Permanent](err) from the attempt function to
// stop at once.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable.  Do returns the inner error
// without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ExhaustedError is returned by Do when the attempt budget ran out.  Err
// is the failure of the last attempt.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("max retries (%d) exceeded: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// ── Policy ───────────────────────────────────────────────────────────

// Fallbacks for a zero-valued exponential policy.
const (
	fallbackInitial    = time.Second
	fallbackMax        = 60 * time.Second
	fallbackMultiplier = 2.0
)

// Backoff describes how a session spaces its connect attempts.
type Backoff struct {
	// InitialDelay is the wait after the first failure.
	InitialDelay time.Duration
	// MaxDelay caps the wait between attempts.
	MaxDelay time.Duration
	// Multiplier grows the wait after each failure.
	Multiplier float64
	// MaxAttempts is the total number of tries including the first.
	// Zero means unlimited (until the context is cancelled).
	MaxAttempts int
	// Jitter spreads each wait by ±25%.
	Jitter bool
	// Immediate reconnects without waiting and ignores the delay
	// fields.  The context is still checked between attempts.
	Immediate bool
}

// Immediate returns a policy that retries at once and forever, until
// the context is cancelled.
func Immediate() *Backoff {
	return &Backoff{Immediate: true}
}

// Exponential returns an unlimited exponential backoff between initial
// and max with jitter enabled.
func Exponential(initial, max time.Duration) *Backoff {
	return &Backoff{
		InitialDelay: initial,
		MaxDelay:     max,
		Multiplier:   fallbackMultiplier,
		Jitter:       true,
	}
}

// Delay returns the un-jittered wait after the given failed attempt
// (1-based).
func (b *Backoff) Delay(attempt int) time.Duration {
	if b.Immediate || attempt < 1 {
		return 0
	}
	initial, max, mult := b.InitialDelay, b.MaxDelay, b.Multiplier
	if initial <= 0 {
		initial = fallbackInitial
	}
	if max <= 0 {
		max = fallbackMax
	}
	if mult <= 0 {
		mult = fallbackMultiplier
	}
	d := float64(initial) * math.Pow(mult, float64(attempt-1))
	if d > float64(max) {
		return max
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, returns a permanent error, the attempt
// budget runs out, or ctx is done.  The attempt passed to fn is 1-based.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		switch {
		case err == nil:
			return nil
		case IsPermanent(err):
			return errors.Unwrap(err)
		case b.MaxAttempts > 0 && attempt >= b.MaxAttempts:
			return &ExhaustedError{Attempts: b.MaxAttempts, Err: err}
		}

		wait := b.Delay(attempt)
		if b.Jitter {
			wait = addJitter(wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// sleep waits for d or until ctx is done.  A zero wait only checks ctx.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// addJitter spreads d by ±25%, never going below a millisecond.
func addJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	quarter := float64(d) * 0.25
	delta := (rand.Float64() * 2 * quarter) - quarter
	return time.Duration(math.Max(float64(d)+delta, float64(time.Millisecond)))
}
