package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "bottagger/pkg/errors"
	"bottagger/pkg/logger"
)

// Config controls how often and how patiently an operation is retried.
type Config struct {
	// Attempts caps the number of calls; 0 retries until ctx is done.
	Attempts int
	Backoff  Backoff
	// Retryable picks the errors worth another attempt. Nil uses Transient.
	Retryable func(error) bool
	// OnRetry runs before each pause.
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

// NewConfig returns a page load policy with the given attempt cap.
func NewConfig(attempts int, log logger.Logger) *Config {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Config{
		Attempts:  attempts,
		Backoff:   PageLoadBackoff(),
		Retryable: Transient,
		Logger:    log,
	}
}

// Transient reports whether err may go away on its own. Typed errors
// decide by type; cancellation never does.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	var typed *errs.Error
	if errors.As(err, &typed) {
		if typed.Type == errs.ErrorTypeUnknown && typed.Code > 0 {
			return errs.IsRetryableStatusCode(typed.Code)
		}
		return errs.IsRetryable(typed.Type)
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Do calls op until it succeeds, fails permanently, runs out of attempts
// or ctx is done.
func Do(ctx context.Context, op func(ctx context.Context) error, cfg *Config) error {
	if cfg == nil {
		cfg = NewConfig(3, nil)
	}
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = Transient
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		switch {
		case err == nil:
			if attempt > 1 {
				log.WithField("attempt", attempt).Debug("Succeeded after retry")
			}
			return nil
		case !retryable(err):
			return err
		case cfg.Attempts > 0 && attempt >= cfg.Attempts:
			log.WithError(err).WithField("attempts", attempt).Error("Giving up")
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		delay := cfg.delay(attempt, err)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		log.WithError(err).WithFields(map[string]interface{}{
			"attempt":  attempt,
			"delay_ms": delay.Milliseconds(),
		}).Debug("Retrying")

		if err := Sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// delay is the backoff pause, stretched to a server retry hint if longer.
func (c *Config) delay(attempt int, err error) time.Duration {
	var d time.Duration
	if c.Backoff != nil {
		d = c.Backoff.Delay(attempt)
	}
	var typed *errs.Error
	if errors.As(err, &typed) && typed.HasRetryAfter && typed.RetryAfter > d {
		d = typed.RetryAfter
	}
	return d
}

// DoWithResult is Do for operations that produce a value.
func DoWithResult[T any](ctx context.Context, op func(ctx context.Context) (T, error), cfg *Config) (T, error) {
	var result T
	err := Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	}, cfg)
	return result, err
}
