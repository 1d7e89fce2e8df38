// Package scrape captures readable page text through hosted readers when a
// direct fetch returns nothing usable.
package scrape

import (
	"context"

	"github.com/sells-group/citation-intel/internal/extract"
)

// Reader renders a single URL to a readable page.
type Reader interface {
	Name() string
	Read(ctx context.Context, url string) (*extract.Page, error)
}
