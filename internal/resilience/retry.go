// Package resilience provides bounded retry and failure-breaker helpers for
// calls to external capabilities.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy controls retries with exponential backoff.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero means a single attempt.
	MaxRetries int

	// InitialBackoff is the delay before the first retry. Each later retry
	// waits Multiplier times longer, capped at MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	// JitterFraction adds ±fraction random jitter to each delay.
	JitterFraction float64

	// ShouldRetry overrides the default IsTransient check.
	ShouldRetry func(err error) bool

	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy retries twice, waiting 1s then 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     2,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2,
	}
}

// Delay returns the backoff before retry number attempt (1-based), without
// jitter.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.InitialBackoff <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 2
	}
	d := float64(p.InitialBackoff) * math.Pow(mult, float64(attempt-1))
	if p.MaxBackoff > 0 && d > float64(p.MaxBackoff) {
		d = float64(p.MaxBackoff)
	}
	return time.Duration(d)
}

func (p RetryPolicy) jittered(attempt int) time.Duration {
	d := p.Delay(attempt)
	if p.JitterFraction <= 0 || d == 0 {
		return d
	}
	span := float64(d) * p.JitterFraction
	d += time.Duration((rand.Float64()*2 - 1) * span)
	if d < 0 {
		return 0
	}
	return d
}

// DoVal calls fn until it succeeds, returns a non-retryable error, the
// retries are exhausted, or ctx is done. The last error is returned.
func DoVal[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	shouldRetry := p.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	for attempt := 0; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil || !shouldRetry(err) || attempt >= p.MaxRetries {
			return zero, err
		}

		delay := p.jittered(attempt + 1)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}
		if serr := Sleep(ctx, delay); serr != nil {
			return zero, err
		}
	}
}

// Do is DoVal for functions without a result.
func Do(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Sleep waits for d or until ctx is done, whichever comes first. It is the
// cooperative pause used between rate-limited calls.
func Sleep(ctx context.Context, d time.Duration) error {
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

// SleepBetween waits a uniformly random duration in [lo, hi].
func SleepBetween(ctx context.Context, lo, hi time.Duration) error {
	if hi <= lo {
		return Sleep(ctx, lo)
	}
	return Sleep(ctx, lo+time.Duration(rand.Int64N(int64(hi-lo)+1)))
}

// RetryLogger returns an OnRetry callback that logs each retry.
func RetryLogger(service, operation string) func(int, time.Duration, error) {
	return func(attempt int, delay time.Duration, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
	}
}
