package quiz

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryGenerator is a decorator that re-runs Generate after service errors
// with exponential backoff and jitter. Every attempt goes through the inner
// generator's admission check, so retries spend rate limit tokens and stop
// as soon as the caller is refused.
type RetryGenerator struct {
	inner  Generator
	config RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps gen with retry logic. A MaxAttempts below 2 returns gen
// unchanged.
func WithRetry(gen Generator, cfg RetryConfig) Generator {
	if cfg.MaxAttempts < 2 {
		return gen
	}
	return &RetryGenerator{inner: gen, config: cfg, sleep: sleepCtx}
}

func (r *RetryGenerator) Generate(ctx context.Context, topic, callerID string) ([]Question, error) {
	var lastErr error

	for attempt := range r.config.MaxAttempts {
		qs, err := r.inner.Generate(ctx, topic, callerID)
		if err == nil {
			return qs, nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return nil, err
		}

		if attempt == r.config.MaxAttempts-1 {
			break
		}

		if serr := r.sleep(ctx, r.backoff(attempt)); serr != nil {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// Unwrap returns the decorated generator.
func (r *RetryGenerator) Unwrap() Generator { return r.inner }

// shouldRetry reports whether err is worth another attempt. Only service
// errors qualify; a bad response is likely to repeat and a refusal from the
// limiter must be respected.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, ErrServiceError)
}

// backoff computes the wait before the attempt after attempt.
func (r *RetryGenerator) backoff(attempt int) time.Duration {
	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
