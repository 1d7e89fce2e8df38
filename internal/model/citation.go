package model

import (
	"net/url"
	"strings"
	"time"
)

// Category is the actionable bucket a citation is classified into.
type Category string

const (
	CategoryBrandOwned     Category = "brand_owned"
	CategoryWikipedia      Category = "wikipedia"
	CategoryAppStore       Category = "app_store"
	CategoryCompetitorBlog Category = "competitor_blog"
	CategoryPressMedia     Category = "press_media"
	CategoryUGC            Category = "ugc"
	CategoryOther          Category = "other"
)

// Categories lists every category in classifier rule order.
var Categories = []Category{
	CategoryBrandOwned,
	CategoryWikipedia,
	CategoryAppStore,
	CategoryCompetitorBlog,
	CategoryPressMedia,
	CategoryUGC,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// OpportunityLevel is a qualitative actionability tag.
type OpportunityLevel string

const (
	OpportunityEasy      OpportunityLevel = "easy"
	OpportunityMedium    OpportunityLevel = "medium"
	OpportunityDifficult OpportunityLevel = "difficult"
)

// Citation is a URL referenced by a generative answer as a source.
// Citations are created once and never mutated.
type Citation struct {
	ID             string `json:"id,omitempty"`
	SourceAnswerID string `json:"source_answer_id"`
	URL            string `json:"url"`
	Domain         string `json:"domain,omitempty"`
	Title          string `json:"title,omitempty"`
	SourceModel    string `json:"source_model,omitempty"`
	Position       int    `json:"position,omitempty"`
}

// ResolvedDomain returns Domain, or the host parsed from URL when Domain is
// empty. The result is lower-cased; "www." is left for the classifier to strip.
func (c Citation) ResolvedDomain() string {
	if c.Domain != "" {
		return strings.ToLower(strings.TrimSpace(c.Domain))
	}
	raw := strings.TrimSpace(c.URL)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// BrandContext describes the tracked brand and its competitive set.
type BrandContext struct {
	Name        string   `json:"brand_name"`
	Domain      string   `json:"brand_domain,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	Competitors []string `json:"competitors,omitempty"`
}

// Terms returns the brand name followed by its aliases, skipping blanks and
// case-insensitive duplicates.
func (b BrandContext) Terms() []string {
	seen := make(map[string]bool, len(b.Aliases)+1)
	var terms []string
	for _, t := range append([]string{b.Name}, b.Aliases...) {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, t)
	}
	return terms
}

// Verification is the outcome of a reachability check.
type Verification struct {
	Reachable     bool   `json:"reachable"`
	StatusCode    *int   `json:"status_code"`
	FailureReason string `json:"failure_reason,omitempty"`
	// Cause is the raw failure detail ("timeout", "network", "status 503")
	// before normalization into FailureReason.
	Cause     string    `json:"cause,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Failure reasons recorded on a Verification.
const (
	FailureFakeDomain  = "fake_domain"
	FailureUnreachable = "unreachable"
)

// Classification is the classifier's verdict for one citation.
type Classification struct {
	Category         Category         `json:"category"`
	Subcategory      *string          `json:"subcategory"`
	OpportunityLevel OpportunityLevel `json:"opportunity_level"`
}

// HallucinationVerdict flags citations that look fabricated.
type HallucinationVerdict struct {
	IsHallucinated bool    `json:"is_hallucinated"`
	Type           *string `json:"hallucination_type"`
}
