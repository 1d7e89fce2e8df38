package analyzer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/resilience"
)

// Retrying wraps an Analyzer with bounded exponential backoff on transient
// failures and an optional breaker that short-circuits to ErrUnavailable
// while the upstream keeps failing.
type Retrying struct {
	next    Analyzer
	policy  resilience.RetryPolicy
	breaker *resilience.Breaker
}

// WithRetry wraps next. A nil breaker disables short-circuiting.
func WithRetry(next Analyzer, policy resilience.RetryPolicy, breaker *resilience.Breaker) *Retrying {
	policy.ShouldRetry = IsRetryable
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.RetryLogger("analyzer", "analyze")
	}
	return &Retrying{next: next, policy: policy, breaker: breaker}
}

// Analyze implements Analyzer. After retries are exhausted the last error is
// returned; it always matches ErrUnavailable.
func (r *Retrying) Analyze(ctx context.Context, req Request) (*Judgment, error) {
	j, err := resilience.Call(ctx, r.breaker, func(ctx context.Context) (*Judgment, error) {
		return resilience.DoVal(ctx, r.policy, func(ctx context.Context) (*Judgment, error) {
			return r.next.Analyze(ctx, req)
		})
	})
	if err == nil {
		return j, nil
	}
	if errors.Is(err, resilience.ErrBreakerOpen) {
		zap.L().Debug("analyzer: breaker open, skipping call", zap.String("url", req.URL))
		return nil, unavailable(err, false)
	}
	if errors.Is(err, ErrUnavailable) {
		return nil, err
	}
	return nil, unavailable(err, false)
}
