package scrape

import (
	"strings"

	"github.com/sells-group/citation-intel/internal/extract"
)

// BlockType describes the kind of block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
	BlockEmpty      BlockType = "empty"
)

// minWords below this a page is treated as a shell.
const minWords = 40

// DetectBlock inspects extracted page text for anti-bot interstitials and
// JavaScript-only shells.
func DetectBlock(page *extract.Page) (bool, BlockType) {
	if page == nil || strings.TrimSpace(page.Text) == "" {
		return true, BlockEmpty
	}

	lower := strings.ToLower(page.Title + " " + page.Text)

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "just a moment") ||
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "ray id") {
		return true, BlockCloudflare
	}

	if page.WordCount < 200 &&
		(strings.Contains(lower, "captcha") || strings.Contains(lower, "are you a robot")) {
		return true, BlockCaptcha
	}

	if page.WordCount < minWords {
		if strings.Contains(lower, "enable javascript") || strings.Contains(lower, "javascript is required") {
			return true, BlockJSShell
		}
		return true, BlockEmpty
	}

	return false, BlockNone
}

// LooksBlocked reports whether page has no usable content.
func LooksBlocked(page *extract.Page) bool {
	blocked, _ := DetectBlock(page)
	return blocked
}
