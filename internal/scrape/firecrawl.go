package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/citation-intel/internal/extract"
	"github.com/sells-group/citation-intel/pkg/firecrawl"
)

// FirecrawlReader reads pages through Firecrawl's single-page scrape.
type FirecrawlReader struct {
	client   firecrawl.Client
	maxChars int
}

// NewFirecrawlReader wraps a Firecrawl client.
func NewFirecrawlReader(client firecrawl.Client, maxChars int) *FirecrawlReader {
	return &FirecrawlReader{client: client, maxChars: maxChars}
}

// Name implements Reader.
func (f *FirecrawlReader) Name() string { return "firecrawl" }

// Read implements Reader.
func (f *FirecrawlReader) Read(ctx context.Context, targetURL string) (*extract.Page, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:             targetURL,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, eris.New("firecrawl: scrape not successful")
	}
	if strings.TrimSpace(resp.Data.Markdown) == "" {
		return nil, eris.New("firecrawl: empty markdown")
	}
	return extract.Markdown(resp.Data.Metadata.Title, resp.Data.Markdown, f.maxChars), nil
}
