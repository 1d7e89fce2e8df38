package classify

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeDomain lower-cases a domain and strips any scheme, "www." prefix,
// path, and trailing slash so "https://www.Reddit.com/" becomes "reddit.com".
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = stripScheme(d)
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimPrefix(d, "www.")
}

// NormalizeURL lower-cases a URL and strips scheme, "www." prefix, and
// trailing slashes. The result is only meant for substring matching.
func NormalizeURL(rawURL string) string {
	u := strings.ToLower(strings.TrimSpace(rawURL))
	u = stripScheme(u)
	u = strings.TrimPrefix(u, "www.")
	return strings.TrimRight(u, "/")
}

func stripScheme(s string) string {
	if i := strings.Index(s, "://"); i >= 0 {
		return s[i+3:]
	}
	return strings.TrimPrefix(s, "//")
}

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// CompactName folds a competitor name into its matchable form: lower-case,
// diacritics removed, and every non-alphanumeric rune dropped
// ("Plenty of Fish" → "plentyoffish", "Héllo-Bank" → "hellobank").
func CompactName(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
