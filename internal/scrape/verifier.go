package scrape

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/verify"
)

// Verifier is the reachability check being wrapped.
type Verifier interface {
	Verify(ctx context.Context, rawURL string) verify.Result
}

// CapturingVerifier fills in page text through the chain when a reachable
// URL came back empty or blocked. Reachability itself is never changed.
type CapturingVerifier struct {
	next  Verifier
	chain *Chain
}

// NewCapturingVerifier wraps next. With an empty chain it behaves exactly
// like next.
func NewCapturingVerifier(next Verifier, chain *Chain) *CapturingVerifier {
	return &CapturingVerifier{next: next, chain: chain}
}

// Verify implements the pipeline verifier contract.
func (v *CapturingVerifier) Verify(ctx context.Context, rawURL string) verify.Result {
	res := v.next.Verify(ctx, rawURL)
	if !res.Verification.Reachable || v.chain == nil || v.chain.Len() == 0 {
		return res
	}
	if !LooksBlocked(res.Page) {
		return res
	}

	capture, err := v.chain.Read(ctx, rawURL)
	if err != nil {
		zap.L().Debug("scrape: capture fallback failed", zap.String("url", rawURL), zap.Error(err))
		return res
	}
	zap.L().Debug("scrape: page captured via fallback",
		zap.String("url", rawURL),
		zap.String("reader", capture.Source),
		zap.Int("words", capture.Page.WordCount),
	)
	res.Page = capture.Page
	return res
}
