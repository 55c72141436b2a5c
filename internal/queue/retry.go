package queue

import (
	"context"
	"time"

	"bolsillo/internal/core"
)

// RetryConfig bounds in-flight retries of a single operation. This is
// distinct from queueing: retries happen within one drain attempt, the
// queue preserves the operation across attempts and restarts.
type RetryConfig struct {
	// Attempts is the total number of tries, first included.
	Attempts int
	// Delay between attempts. With Exponential set the wait grows as
	// delay × 2^attempt.
	Delay       time.Duration
	Exponential bool
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: 3, Delay: 500 * time.Millisecond}
}

// Do runs fn up to cfg.Attempts times. Only failures classified as
// recoverable consume retry budget; validation and referential failures
// abort immediately since retrying cannot change their outcome.
func (cfg RetryConfig) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if waitErr := sleepCtx(ctx, cfg.wait(attempt-1)); waitErr != nil {
				return waitErr
			}
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !core.IsRecoverable(err) {
			return err
		}
	}
	return err
}

func (cfg RetryConfig) wait(attempt int) time.Duration {
	if !cfg.Exponential {
		return cfg.Delay
	}
	return cfg.Delay << attempt
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
