// Package recommend turns a classified citation and a deep-content judgment
// into the single live recommendation for that citation.
package recommend

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/citation-intel/internal/analyzer"
	"github.com/sells-group/citation-intel/internal/classify"
	"github.com/sells-group/citation-intel/internal/extract"
	"github.com/sells-group/citation-intel/internal/model"
)

const (
	minActionItems = 5
	maxActionItems = 7
)

// Fallback returns the deterministic judgment used when the analyzer is
// unavailable: easy→high/2h, medium→medium/3 days, difficult→low/3 days.
func Fallback(level model.OpportunityLevel) *analyzer.Judgment {
	j := &analyzer.Judgment{EstimatedEffort: "3 days"}
	switch level {
	case model.OpportunityEasy:
		j.Priority = string(model.PriorityHigh)
		j.EstimatedEffort = "2h"
	case model.OpportunityDifficult:
		j.Priority = string(model.PriorityLow)
	default:
		j.Priority = string(model.PriorityMedium)
	}
	return j
}

// Actionable reports whether a category has a recommendation template.
func Actionable(c model.Category) bool {
	_, ok := templates[c]
	return ok
}

// Synthesize builds the recommendation for intel. A nil judgment means the
// fallback is used. It returns nil for hallucinated citations and for
// categories that do not warrant action (brand_owned, other).
func Synthesize(intel *model.CitationIntelligence, j *analyzer.Judgment, brand model.BrandContext) *model.Recommendation {
	if intel == nil || intel.Hallucination.IsHallucinated {
		return nil
	}
	tpl, ok := templates[intel.Classification.Category]
	if !ok {
		return nil
	}

	fb := Fallback(intel.Classification.OpportunityLevel)
	if j == nil {
		j = fb
	}

	s := subject{
		intel:  intel,
		brand:  brand,
		domain: classify.NormalizeDomain(intel.Domain),
	}
	if s.domain == "" {
		s.domain = classify.NormalizeDomain(intel.URL)
	}
	if intel.Classification.Subcategory != nil {
		s.sub = *intel.Classification.Subcategory
	}
	s.title = strings.TrimSpace(extract.Truncate(strings.TrimSpace(intel.Title), maxTitleChars))
	if s.title == "" {
		s.title = s.domain
	}

	rec := &model.Recommendation{
		ID:              uuid.NewString(),
		IntelligenceID:  intel.ID,
		Type:            tpl.kind,
		Priority:        model.Priority(fb.Priority),
		Title:           tpl.title(s),
		Description:     tpl.description,
		ActionItems:     mergeActions(tpl.actions(s), j.ActionItems),
		EstimatedEffort: fb.EstimatedEffort,
		CreatedAt:       time.Now().UTC(),
	}

	if p := model.Priority(strings.ToLower(strings.TrimSpace(j.Priority))); p.Valid() {
		rec.Priority = p
	}
	if e := strings.TrimSpace(j.EstimatedEffort); e != "" {
		rec.EstimatedEffort = e
	}
	if o := strings.TrimSpace(j.Opportunity); o != "" {
		rec.Description = o
	}
	if g := strings.TrimSpace(j.GeneratedContent); g != "" {
		rec.GeneratedContent = &g
	}
	return rec
}

// mergeActions appends judgment items not already present (case-insensitive)
// to the template items, capped at maxActionItems.
func mergeActions(base, extra []string) []string {
	out := make([]string, 0, maxActionItems)
	seen := make(map[string]bool, maxActionItems)
	add := func(item string) {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] || len(out) >= maxActionItems {
			return
		}
		seen[key] = true
		out = append(out, item)
	}
	for _, a := range base {
		add(a)
	}
	for _, a := range extra {
		add(a)
	}
	return out
}
