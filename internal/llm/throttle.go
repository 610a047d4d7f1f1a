package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/abhisek/quizzler/internal/metrics"
)

// ThrottleProvider paces outbound completion calls for the whole process.
// It is independent of any per-user admission limiter: callers that were
// admitted still queue here when the process as a whole is too busy.
type ThrottleProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// WithThrottle wraps p so that at most requestsPerMinute calls start per
// minute, with bursts of up to burst calls. A non-positive rate returns p
// unchanged.
func WithThrottle(p Provider, requestsPerMinute float64, burst int) Provider {
	if requestsPerMinute <= 0 {
		return p
	}
	if burst < 1 {
		burst = 1
	}
	every := time.Duration(float64(time.Minute) / requestsPerMinute)
	return &ThrottleProvider{
		inner:   p,
		limiter: rate.NewLimiter(rate.Every(every), burst),
	}
}

func (t *ThrottleProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, &ErrProviderUnavailable{Err: err}
	}
	metrics.ThrottleWait.Observe(time.Since(start).Seconds())
	return t.inner.Generate(ctx, req)
}

func (t *ThrottleProvider) ModelID() string {
	return t.inner.ModelID()
}

// Unwrap returns the wrapped provider.
func (t *ThrottleProvider) Unwrap() Provider {
	return t.inner
}

// TimeoutProvider bounds each completion call with a deadline.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so each call runs under a context deadline of d.
// A non-positive d returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}

// Unwrap returns the wrapped provider.
func (t *TimeoutProvider) Unwrap() Provider {
	return t.inner
}
