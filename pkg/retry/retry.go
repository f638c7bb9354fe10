package retry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Config describes a bounded retry policy. Backoff receives the number of
// attempts used so far (1 after the first failure) and returns the delay
// before the next attempt. IsRetryable decides whether an error is worth
// another attempt; a nil predicate retries everything.
type Config struct {
	MaxAttempts int
	Backoff     func(attemptsUsed int) time.Duration
	IsRetryable func(err error) bool
	Logger      *zap.Logger
}

// LinearBackoff returns a backoff function where the delay grows linearly:
// base after the first failure, 2*base after the second, and so on.
func LinearBackoff(base time.Duration) func(int) time.Duration {
	return func(attemptsUsed int) time.Duration {
		return base * time.Duration(attemptsUsed)
	}
}

// Do runs operation up to cfg.MaxAttempts times. It returns nil on the first
// success, the last error once attempts are exhausted, or immediately when
// the error is not retryable or the context is done. Sleeps between attempts
// are context-cancellable.
func Do(ctx context.Context, cfg Config, operation func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := operation()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.Info("Operation succeeded after retry",
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}

		lastErr = err

		if cfg.IsRetryable != nil && !cfg.IsRetryable(err) {
			if cfg.Logger != nil {
				cfg.Logger.Debug("Error not retryable",
					zap.Error(err),
					zap.Int("attempt", attempt),
				)
			}
			return err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		var delay time.Duration
		if cfg.Backoff != nil {
			delay = cfg.Backoff(attempt)
		}

		if cfg.Logger != nil {
			cfg.Logger.Warn("Operation failed, retrying",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", cfg.MaxAttempts),
				zap.Duration("delay", delay),
			)
		}

		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return lastErr
}

// DoWithResult is Do for operations that produce a value.
func DoWithResult[T any](ctx context.Context, cfg Config, operation func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		var err error
		result, err = operation()
		return err
	})
	return result, err
}
