package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/extract"
	"github.com/sells-group/citation-intel/internal/resilience"
	"github.com/sells-group/citation-intel/pkg/jina"
)

const minJinaContent = 100

var challengeSignatures = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"cloudflare",
	"attention required",
}

// JinaReader reads pages through Jina Reader. Three consecutive failures
// open its breaker for a minute, so the chain moves straight to the next
// reader.
type JinaReader struct {
	client   jina.Client
	breaker  *resilience.Breaker
	maxChars int
}

// NewJinaReader wraps a Jina client.
func NewJinaReader(client jina.Client, maxChars int) *JinaReader {
	return &JinaReader{
		client:   client,
		breaker:  resilience.NewBreaker(3, 60*time.Second),
		maxChars: maxChars,
	}
}

// Name implements Reader.
func (j *JinaReader) Name() string { return "jina" }

// Read implements Reader.
func (j *JinaReader) Read(ctx context.Context, targetURL string) (*extract.Page, error) {
	resp, err := resilience.Call(ctx, j.breaker, func(ctx context.Context) (*jina.ReadResponse, error) {
		resp, err := j.client.Read(ctx, targetURL)
		if err != nil {
			return nil, err
		}
		if needsFallback(resp) {
			return nil, eris.New("jina: response needs fallback")
		}
		return resp, nil
	})
	if err != nil {
		if eris.Is(err, resilience.ErrBreakerOpen) {
			zap.L().Debug("scrape: jina breaker open", zap.String("url", targetURL))
		}
		return nil, err
	}
	return extract.Markdown(resp.Data.Title, resp.Data.Content, j.maxChars), nil
}

// needsFallback reports whether a Jina response is empty, an error, or a
// short bot-challenge page.
func needsFallback(resp *jina.ReadResponse) bool {
	if resp == nil {
		return true
	}
	if resp.Code != 0 && resp.Code != 200 {
		return true
	}

	content := strings.TrimSpace(resp.Data.Content)
	if len(content) < minJinaContent {
		return true
	}
	if len(content) >= 1000 {
		return false
	}

	lower := strings.ToLower(content)
	for _, sig := range challengeSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
