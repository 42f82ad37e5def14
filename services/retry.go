package services

import (
	"context"
	"log"
	"time"
)

// RetryPolicy controls how RunWithRetry re-attempts a failing operation.
// Delays grow exponentially without jitter: concurrent callers retrying the
// same failure re-attempt in lockstep.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration

	// ShouldRetry classifies whether a failure is worth another attempt.
	// Nil retries every failure.
	ShouldRetry func(error) bool
}

// DefaultRetryPolicy returns the standard policy: 3 attempts, 1s initial
// delay doubling up to 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 1000 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     30000 * time.Millisecond,
	}
}

// DelayFor returns the delay applied after the failure of attempt n
// (0-indexed): min(initialDelay * multiplier^n, maxDelay).
func (p RetryPolicy) DelayFor(attempt int) time.Duration {
	delay := p.InitialDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// RunWithRetry executes op up to policy.MaxAttempts times, sleeping between
// attempts. The wait is cancellable through ctx. The last failure is returned
// as-is; it is never swallowed or rewrapped.
func RunWithRetry(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) error) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if policy.ShouldRetry != nil && !policy.ShouldRetry(lastErr) {
			return lastErr
		}
		if attempt == policy.MaxAttempts-1 {
			break
		}

		delay := policy.DelayFor(attempt)
		log.Printf("Retrying in %v after attempt %d failed: %v", delay, attempt+1, lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
