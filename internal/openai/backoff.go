package openai

import (
	"context"
	"math/rand"
	"time"
)

const (
	// DefaultMaxAttempts bounds the embedding retry loop.
	DefaultMaxAttempts = 6
	// DefaultBackoffBase is the first-retry wait ceiling.
	DefaultBackoffBase = 1 * time.Second
	// DefaultBackoffMax caps any single wait.
	DefaultBackoffMax = 20 * time.Second
)

// BackoffPolicy maps an attempt number (1-based for the first retry) to
// a wait duration.
type BackoffPolicy func(attempt int) time.Duration

// ExponentialJitter returns a policy that waits a uniformly random
// duration up to min(base<<attempt, max). The jitter spreads retries
// from concurrent ingestions instead of synchronizing them.
func ExponentialJitter(base, max time.Duration) BackoffPolicy {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		ceiling := base
		for i := 1; i < attempt; i++ {
			ceiling *= 2
			if ceiling >= max {
				ceiling = max
				break
			}
		}
		if ceiling <= 0 {
			return 0
		}
		return time.Duration(rand.Int63n(int64(ceiling)))
	}
}

// NoBackoff returns a zero-wait policy, used in tests.
func NoBackoff() BackoffPolicy {
	return func(int) time.Duration { return 0 }
}

// DefaultBackoff is the policy used when none is configured.
func DefaultBackoff() BackoffPolicy {
	return ExponentialJitter(DefaultBackoffBase, DefaultBackoffMax)
}

// sleep waits d or returns early when the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
