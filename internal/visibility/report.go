package visibility

import (
	"math"
	"sort"
	"strings"

	"github.com/sells-group/citation-intel/internal/model"
)

// GapEntry is one row of the competitor-gap table.
type GapEntry struct {
	Name     string `json:"name"`
	Mentions int    `json:"mentions"`
	Percent  int    `json:"percent"`
	IsBrand  bool   `json:"is_brand"`
}

// CitationStat is a URL cited across answers with its occurrence count and
// the distinct prompts that produced it.
type CitationStat struct {
	URL     string   `json:"url"`
	Count   int      `json:"count"`
	Prompts []string `json:"prompts"`
}

// Report is the full visibility output for one set of answers.
type Report struct {
	Brand         string             `json:"brand"`
	Summary       model.AuditSummary `json:"summary"`
	Citations     []CitationStat     `json:"citations"`
	CompetitorGap []GapEntry         `json:"competitor_gap"`
}

// ShareOfVoice returns round(100 × mentioned / successful). Failed answers
// are excluded from the denominator; zero successful answers yields 0.
func ShareOfVoice(answers []model.AuditAnswer) int {
	successful, mentioned := 0, 0
	for _, a := range answers {
		if !a.Success {
			continue
		}
		successful++
		if a.MentionCount > 0 {
			mentioned++
		}
	}
	if successful == 0 {
		return 0
	}
	return int(math.Round(100 * float64(mentioned) / float64(successful)))
}

// AverageRank is the mean rank over successful answers that have one,
// rounded to two decimals. Nil when no answer ranks the brand.
func AverageRank(answers []model.AuditAnswer) *float64 {
	sum, n := 0, 0
	for _, a := range answers {
		if a.Success && a.Rank != nil {
			sum += *a.Rank
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := math.Round(float64(sum)/float64(n)*100) / 100
	return &avg
}

// CompetitorGap counts competitor mentions across successful answers and
// compares them with the brand's mention total. Percentages are shares of
// the combined count; rows are sorted by raw count, descending, with the
// brand first among ties.
func CompetitorGap(answers []model.AuditAnswer, brand model.BrandContext) []GapEntry {
	brandCount := 0
	for _, a := range answers {
		if a.Success {
			brandCount += a.MentionCount
		}
	}

	rows := []GapEntry{{Name: brand.Name, Mentions: brandCount, IsBrand: true}}
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(brand.Name)): true}
	for _, c := range brand.Competitors {
		name := strings.TrimSpace(c)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		count := 0
		for _, a := range answers {
			if a.Success {
				count += CountMentions(a.Text, []string{name})
			}
		}
		rows = append(rows, GapEntry{Name: name, Mentions: count})
	}

	total := 0
	for _, r := range rows {
		total += r.Mentions
	}
	if total < 1 {
		total = 1
	}
	for i := range rows {
		rows[i].Percent = int(math.Round(100 * float64(rows[i].Mentions) / float64(total)))
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Mentions > rows[j].Mentions })
	return rows
}

// AggregateCitations dedupes cited URLs (exact match) across successful
// answers. Prompts are distinct, in first-seen order; rows are sorted by
// count, descending, keeping first-seen order among ties.
func AggregateCitations(answers []model.AuditAnswer) []CitationStat {
	index := make(map[string]int)
	var stats []CitationStat
	for _, a := range answers {
		if !a.Success {
			continue
		}
		for _, u := range a.Citations {
			if u == "" {
				continue
			}
			i, ok := index[u]
			if !ok {
				i = len(stats)
				index[u] = i
				stats = append(stats, CitationStat{URL: u})
			}
			stats[i].Count++
			if !containsString(stats[i].Prompts, a.Prompt) {
				stats[i].Prompts = append(stats[i].Prompts, a.Prompt)
			}
		}
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
	return stats
}

// Summarize aggregates answers into an AuditSummary.
func Summarize(answers []model.AuditAnswer) model.AuditSummary {
	s := model.AuditSummary{TotalAnswers: len(answers)}
	for _, a := range answers {
		s.CostUSD += a.CostUSD
		if !a.Success {
			continue
		}
		s.SuccessfulAnswers++
		if a.MentionCount > 0 {
			s.MentionedAnswers++
		}
		s.TotalCitations += len(a.Citations)
	}
	s.CostUSD = math.Round(s.CostUSD*1e6) / 1e6
	s.ShareOfVoice = ShareOfVoice(answers)
	s.AverageRank = AverageRank(answers)
	return s
}

// BuildReport scores every answer's text against brand and assembles the
// visibility report. Answers are scored in place.
func BuildReport(answers []model.AuditAnswer, brand model.BrandContext) *Report {
	for i := range answers {
		Score(&answers[i], brand)
	}
	return &Report{
		Brand:         brand.Name,
		Summary:       Summarize(answers),
		Citations:     AggregateCitations(answers),
		CompetitorGap: CompetitorGap(answers, brand),
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
