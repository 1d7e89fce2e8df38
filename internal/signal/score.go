// Package signal scores externally discovered content items for their
// influence on the tracked brand and persists them once per client and
// normalized URL.
package signal

import (
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/citation-intel/internal/classify"
)

// Influence weights.
const (
	WeightAuthority = 0.4
	WeightFreshness = 0.3
	WeightRelevance = 0.3
)

// Influence returns 0.4·authority + 0.3·freshness + 0.3·relevance rounded to
// four decimals. Inputs are clamped to [0,1].
func Influence(authority, freshness, relevance float64) float64 {
	v := WeightAuthority*clamp01(authority) +
		WeightFreshness*clamp01(freshness) +
		WeightRelevance*clamp01(relevance)
	return math.Round(v*1e4) / 1e4
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// NormalizeURL canonicalizes rawURL for dedupe: lowercase host without
// "www.", no scheme, no fragment, no utm_* query params, no trailing slash.
// The remaining query params are sorted. It also returns the normalized
// domain.
func NormalizeURL(rawURL string) (normalized, domain string, err error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return "", "", eris.New("signal: empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", eris.Wrapf(err, "signal: parse url %q", rawURL)
	}
	domain = classify.NormalizeDomain(u.Hostname())
	if domain == "" {
		return "", "", eris.Errorf("signal: url %q has no host", rawURL)
	}

	host := domain
	if port := u.Port(); port != "" {
		host += ":" + port
	}

	q := u.Query()
	for key := range q {
		if strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
		}
	}

	path := strings.TrimRight(u.EscapedPath(), "/")
	normalized = host + path
	if len(q) > 0 {
		normalized += "?" + q.Encode()
	}
	return normalized, domain, nil
}

// Hits returns the terms that occur in text (case-insensitive substring),
// deduplicated and sorted.
func Hits(text string, terms []string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool, len(terms))
	hits := []string{}
	for _, t := range terms {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		if strings.Contains(lower, key) {
			hits = append(hits, t)
		}
	}
	sort.Strings(hits)
	return hits
}
