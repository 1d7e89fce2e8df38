package recommend

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/sells-group/citation-intel/internal/classify"
	"github.com/sells-group/citation-intel/internal/model"
)

// maxTitleChars bounds the citation title embedded in a recommendation title.
const maxTitleChars = 60

// context passed to every template.
type subject struct {
	intel  *model.CitationIntelligence
	brand  model.BrandContext
	sub    string // classification subcategory, "" when absent
	domain string
	title  string // truncated citation title, domain when empty
}

type template struct {
	kind        model.RecommendationType
	description string
	title       func(s subject) string
	actions     func(s subject) []string
}

var templates = map[model.Category]template{
	model.CategoryUGC: {
		kind:        model.RecommendationCommunityResponse,
		description: "AI assistants cite this community discussion. A genuine, helpful reply can shape how the thread is summarized.",
		title: func(s subject) string {
			return fmt.Sprintf("Join the %s discussion: %s", platformName(s.sub, s.domain), s.title)
		},
		actions: func(s subject) []string {
			return []string{
				"Read the full thread, including collapsed and low-voted replies",
				"Identify the top three pain points people raise",
				"Note every claim made about competitors and whether it is accurate",
				fmt.Sprintf("Draft a response that adds one concrete detail about %s (pricing, a feature, or a real result)", s.brand.Name),
				"Post from a credible account with history on the platform, not an official brand account",
				"Follow up within 48 hours to answer replies",
			}
		},
	},
	model.CategoryCompetitorBlog: {
		kind:        model.RecommendationComparisonPage,
		description: "A competitor's own page is being cited. Publish a fair comparison so assistants have a source that represents your brand.",
		title: func(s subject) string {
			return fmt.Sprintf("Counter %s's page: %s", competitorName(s), s.title)
		},
		actions: func(s subject) []string {
			return []string{
				"Read the competitor page end to end",
				"List each claim they make and where your product compares",
				fmt.Sprintf("Build a comparison page at %s", ComparisonPath(s.brand.Name, competitorName(s))),
				"Back every comparison point with a verifiable source or screenshot",
				"Submit the new page for indexing in search consoles",
			}
		},
	},
	model.CategoryPressMedia: {
		kind:        model.RecommendationPressOutreach,
		description: "A press article is shaping AI answers in your category. Get your brand into the next piece from this outlet.",
		title: func(s subject) string {
			return fmt.Sprintf("Pitch %s: %s", s.domain, s.title)
		},
		actions: func(s subject) []string {
			return []string{
				"Identify the journalist who wrote the article and what they cover",
				"Find one original data point that extends their story",
				fmt.Sprintf("Pitch a short note explaining where %s fits, led by that data point", s.brand.Name),
				"Offer a spokesperson for quotes",
				"Send a single follow-up after 5 days, then stop",
			}
		},
	},
	model.CategoryAppStore: {
		kind:        model.RecommendationAppStoreOptimize,
		description: "An app store listing is cited. Listing copy and reviews feed directly into AI answers.",
		title: func(s subject) string {
			return fmt.Sprintf("Optimize the %s listing: %s", storeName(s.sub), s.title)
		},
		actions: func(s subject) []string {
			return []string{
				"Audit listing title, subtitle, and keywords against the prompts where you are missing",
				"Reply to the most recent negative reviews with specific fixes",
				"Refresh the first two screenshots to show the main use case",
				"A/B test screenshots and the short description",
				"Ask satisfied users for reviews after a successful in-app moment",
			}
		},
	},
	model.CategoryWikipedia: {
		kind:        model.RecommendationWikipediaStrategy,
		description: "Wikipedia is cited for your category. Wikipedia content follows independent coverage, so build that first.",
		title: func(s subject) string {
			return fmt.Sprintf("Build notability for Wikipedia: %s", s.title)
		},
		actions: func(s subject) []string {
			return []string{
				"Do not edit the article yourself or through paid editors; conflict-of-interest edits get reverted",
				"Earn third-party press coverage in reliable, independent publications first",
				"Collect the independent sources that mention the brand",
				"Raise factual errors on the article's talk page with citations",
				"Revisit once several independent sources exist",
			}
		},
	},
}

// ComparisonPath returns the conventional comparison page path for a brand
// and a competitor, e.g. /compare/acme-vs-bumble.
func ComparisonPath(brand, competitor string) string {
	return "/compare/" + slug(brand) + "-vs-" + slug(competitor)
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func competitorName(s subject) string {
	if s.sub != "" {
		return s.sub
	}
	return s.domain
}

var platformNames = map[string]string{
	"reddit":        "Reddit",
	"quora":         "Quora",
	"hackernews":    "Hacker News",
	"stackoverflow": "Stack Overflow",
	"stackexchange": "Stack Exchange",
	"youtube":       "YouTube",
	"linkedin":      "LinkedIn",
	"tiktok":        "TikTok",
	"g2":            "G2",
	"producthunt":   "Product Hunt",
	"tripadvisor":   "Tripadvisor",
}

func platformName(platform, domain string) string {
	if name, ok := platformNames[platform]; ok {
		return name
	}
	if platform == "" {
		return domain
	}
	r := []rune(platform)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func storeName(store string) string {
	switch store {
	case classify.StoreGooglePlay:
		return "Google Play"
	case classify.StoreAppStore:
		return "App Store"
	}
	return "app store"
}
