package model

import "time"

// Authority is the domain-authority lookup result.
type Authority struct {
	Score   float64 `json:"score" yaml:"score"`
	Bucket  string  `json:"bucket" yaml:"bucket"`
	Trusted bool    `json:"trusted" yaml:"trusted"`
}

// DefaultAuthority is used for domains absent from every lookup source.
var DefaultAuthority = Authority{Score: 0.5, Bucket: "unknown", Trusted: false}

// Signal is an externally discovered content item scored for relevance to
// the tracked brand. Influence is always derived from Authority, Freshness
// and Relevance.
type Signal struct {
	ID              string     `json:"id"`
	ClientID        string     `json:"client_id"`
	URL             string     `json:"url"`
	NormalizedURL   string     `json:"normalized_url"`
	Domain          string     `json:"domain"`
	Title           string     `json:"title,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	BrandHits       []string   `json:"brand_hits"`
	CompetitorHits  []string   `json:"competitor_hits"`
	Freshness       float64    `json:"freshness"`
	Authority       float64    `json:"authority"`
	AuthorityBucket string     `json:"authority_bucket"`
	Trusted         bool       `json:"trusted"`
	Relevance       float64    `json:"relevance"`
	Influence       float64    `json:"influence"`
	CreatedAt       time.Time  `json:"created_at"`
}
