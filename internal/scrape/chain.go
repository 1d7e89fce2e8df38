package scrape

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/extract"
)

// Capture is a page read by one of the chain's readers.
type Capture struct {
	Page   *extract.Page
	Source string
}

// Chain tries readers in order, returning the first usable page.
type Chain struct {
	readers []Reader
}

// NewChain creates a Chain. Nil readers are skipped.
func NewChain(readers ...Reader) *Chain {
	c := &Chain{}
	for _, r := range readers {
		if r != nil {
			c.readers = append(c.readers, r)
		}
	}
	return c
}

// Len returns the number of configured readers.
func (c *Chain) Len() int { return len(c.readers) }

// Read tries each reader for targetURL. A page that still looks blocked
// counts as a failure.
func (c *Chain) Read(ctx context.Context, targetURL string) (*Capture, error) {
	var lastErr error
	for _, r := range c.readers {
		page, err := r.Read(ctx, targetURL)
		if err == nil {
			if blocked, kind := DetectBlock(page); blocked {
				err = eris.Errorf("%s: page blocked (%s)", r.Name(), kind)
			} else {
				return &Capture{Page: page, Source: r.Name()}, nil
			}
		}
		zap.L().Debug("scrape: reader failed, trying next",
			zap.String("reader", r.Name()),
			zap.String("url", targetURL),
			zap.Error(err),
		)
		lastErr = err
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all readers failed")
	}
	return nil, eris.Errorf("scrape: no readers configured for url: %s", targetURL)
}
