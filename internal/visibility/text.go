// Package visibility scores brand presence in generative-AI answers:
// rank detection, mention counting, share of voice, competitor gap and
// citation aggregation.
package visibility

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/citation-intel/internal/model"
)

// rankLine matches a numbered list entry such as "1. Acme", "2) Acme",
// "**3.** Acme" or "4] Acme". Group 1 is the numeral, group 2 the content.
var rankLine = regexp.MustCompile(`^\s*[*_]*(\d+)[*_]*[.)\]][*_]*\s*(\S.*)$`)

// DetectRank returns the numeral of the first numbered line whose content
// contains any of terms (case-insensitive). It returns nil when no line
// matches; a missing rank is distinct from rank zero.
func DetectRank(text string, terms []string) *int {
	needles := lowerTerms(terms)
	if len(needles) == 0 {
		return nil
	}
	for _, line := range strings.Split(text, "\n") {
		m := rankLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		content := strings.ToLower(m[2])
		for _, n := range needles {
			if strings.Contains(content, n) {
				rank, err := strconv.Atoi(m[1])
				if err != nil {
					break
				}
				return &rank
			}
		}
	}
	return nil
}

// CountMentions sums case-insensitive substring occurrences of every term
// across text. Matches are not word-bounded.
func CountMentions(text string, terms []string) int {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	total := 0
	for _, n := range lowerTerms(terms) {
		total += strings.Count(lower, n)
	}
	return total
}

// Score fills MentionCount and Rank on a from its text. Failed answers are
// left at zero mentions with no rank.
func Score(a *model.AuditAnswer, brand model.BrandContext) {
	if a == nil {
		return
	}
	if !a.Success {
		a.MentionCount = 0
		a.Rank = nil
		return
	}
	terms := brand.Terms()
	a.MentionCount = CountMentions(a.Text, terms)
	a.Rank = DetectRank(a.Text, terms)
}

func lowerTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
