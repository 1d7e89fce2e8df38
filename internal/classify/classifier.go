// Package classify assigns citations to actionable categories using an
// ordered rule chain. Classification is pure: no I/O, deterministic, and the
// first matching rule wins.
package classify

import (
	"strings"

	"github.com/sells-group/citation-intel/internal/model"
)

// Input is everything the classifier looks at for one citation.
type Input struct {
	URL         string
	Domain      string
	BrandDomain string
	Competitors []string
}

// Classifier applies Rules to citations.
type Classifier struct {
	rules Rules
}

// New returns a Classifier over the given rules.
func New(rules Rules) *Classifier {
	return &Classifier{rules: rules}
}

// Rules returns the classifier's rule lists.
func (c *Classifier) Rules() Rules {
	return c.rules
}

// Classify runs the rule chain:
//  1. brand domain          → brand_owned/official/easy
//  2. wikipedia.org         → wikipedia/-/difficult
//  3. app store URL pattern → app_store/<store>/medium
//  4. competitor name       → competitor_blog/<competitor>/easy
//  5. press domain          → press_media/<domain>/medium
//  6. UGC domain            → ugc/<platform>/easy
//  7. otherwise             → other/-/medium
func (c *Classifier) Classify(in Input) model.Classification {
	domain := NormalizeDomain(in.Domain)
	if domain == "" {
		domain = NormalizeDomain(in.URL)
	}
	url := NormalizeURL(in.URL)

	if brand := NormalizeDomain(in.BrandDomain); brand != "" && strings.Contains(domain, brand) {
		return result(model.CategoryBrandOwned, "official", model.OpportunityEasy)
	}

	if strings.Contains(domain, "wikipedia.org") {
		return result(model.CategoryWikipedia, "", model.OpportunityDifficult)
	}

	for _, p := range c.rules.AppStores {
		pattern := NormalizeURL(p.Pattern)
		if pattern != "" && strings.Contains(url, pattern) {
			return result(model.CategoryAppStore, p.Store, model.OpportunityMedium)
		}
	}

	for _, name := range in.Competitors {
		compact := CompactName(name)
		if compact == "" {
			continue
		}
		if strings.Contains(domain, compact) || strings.Contains(url, compact) {
			return result(model.CategoryCompetitorBlog, strings.TrimSpace(name), model.OpportunityEasy)
		}
	}

	for _, press := range c.rules.PressDomains {
		press = NormalizeDomain(press)
		if press != "" && strings.Contains(domain, press) {
			return result(model.CategoryPressMedia, press, model.OpportunityMedium)
		}
	}

	for _, u := range c.rules.UGC {
		d := NormalizeDomain(u.Domain)
		if d != "" && strings.Contains(domain, d) {
			return result(model.CategoryUGC, u.Platform, model.OpportunityEasy)
		}
	}

	return result(model.CategoryOther, "", model.OpportunityMedium)
}

func result(cat model.Category, sub string, level model.OpportunityLevel) model.Classification {
	cl := model.Classification{Category: cat, OpportunityLevel: level}
	if sub != "" {
		cl.Subcategory = &sub
	}
	return cl
}
