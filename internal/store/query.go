package store

import (
	"fmt"
	"strings"

	"github.com/sells-group/citation-intel/internal/model"
)

// intelligenceMutable lists the citation_intelligence columns written by
// an upsert, in the order produced by intelligenceValues.
var intelligenceMutable = []string{
	"citation_id", "source_answer_id", "url", "domain", "title", "source_model",
	"reachable", "status_code", "failure_reason", "failure_cause", "checked_at",
	"category", "subcategory", "opportunity_level",
	"is_hallucinated", "hallucination_type",
	"analysis", "used_fallback", "status", "error",
}

var intelligenceColumns = "id, " + strings.Join(intelligenceMutable, ", ") + ", created_at, updated_at"

const recommendationColumns = `id, intelligence_id, type, priority, title, description, action_items,
	estimated_effort, generated_content, actioned, created_at`

const signalColumns = `id, client_id, url, normalized_url, domain, title, published_at,
	brand_hits, competitor_hits, freshness, authority, authority_bucket, trusted,
	relevance, influence, created_at`

func intelligenceValues(ci *model.CitationIntelligence, analysis any) []any {
	var citationID any
	if ci.CitationID != "" {
		citationID = ci.CitationID
	}
	return []any{
		citationID, ci.SourceAnswerID, ci.URL, ci.Domain, ci.Title, ci.SourceModel,
		ci.Verification.Reachable, nullable(ci.Verification.StatusCode), ci.Verification.FailureReason,
		ci.Verification.Cause, ci.Verification.CheckedAt,
		string(ci.Classification.Category), nullable(ci.Classification.Subcategory), string(ci.Classification.OpportunityLevel),
		ci.Hallucination.IsHallucinated, nullable(ci.Hallucination.Type),
		analysis, ci.UsedFallback, string(ci.Status), ci.Error,
	}
}

// nullable turns a nil pointer into a SQL NULL and dereferences otherwise.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// whereBuilder accumulates AND-ed conditions with positional arguments.
// Conditions use "?" which is rewritten to $n for Postgres.
type whereBuilder struct {
	pg      bool
	clauses []string
	args    []any
}

func (w *whereBuilder) placeholder() string {
	if w.pg {
		return fmt.Sprintf("$%d", len(w.args))
	}
	return "?"
}

func (w *whereBuilder) add(expr string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.Replace(expr, "?", w.placeholder(), 1))
}

func (w *whereBuilder) where() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// page appends LIMIT/OFFSET and returns the clause.
func (w *whereBuilder) page(limit, offset int) string {
	w.args = append(w.args, limitOrDefault(limit))
	clause := " LIMIT " + w.placeholder()
	if offset > 0 {
		w.args = append(w.args, offset)
		clause += " OFFSET " + w.placeholder()
	}
	return clause
}

func intelligenceWhere(f IntelligenceFilter, pg bool, prefix string) *whereBuilder {
	w := &whereBuilder{pg: pg}
	if f.Category != "" {
		w.add(prefix+"category = ?", string(f.Category))
	}
	if f.Status != "" {
		w.add(prefix+"status = ?", string(f.Status))
	}
	if f.SourceAnswerID != "" {
		w.add(prefix+"source_answer_id = ?", f.SourceAnswerID)
	}
	return w
}

func recommendationWhere(f RecommendationFilter, pg bool) *whereBuilder {
	w := &whereBuilder{pg: pg}
	if f.Type != "" {
		w.add("type = ?", string(f.Type))
	}
	if f.Priority != "" {
		w.add("priority = ?", string(f.Priority))
	}
	if f.Actioned != nil {
		w.add("actioned = ?", *f.Actioned)
	}
	return w
}

// placeholders returns n positional parameters starting at start (1-based
// for Postgres).
func placeholders(n, start int, pg bool) string {
	ps := make([]string, n)
	for i := range ps {
		if pg {
			ps[i] = fmt.Sprintf("$%d", start+i)
		} else {
			ps[i] = "?"
		}
	}
	return strings.Join(ps, ", ")
}

// setList returns "col = ?, ..." for the given columns.
func setList(cols []string, start int, pg bool) string {
	sets := make([]string, len(cols))
	for i, c := range cols {
		if pg {
			sets[i] = fmt.Sprintf("%s = $%d", c, start+i)
		} else {
			sets[i] = c + " = ?"
		}
	}
	return strings.Join(sets, ", ")
}

// summaryRow is one GROUP BY bucket of the intelligence summary query.
type summaryRow struct {
	category     string
	status       string
	hallucinated bool
	reachable    bool
	count        int
}

func (r summaryRow) apply(s *model.IntelligenceSummary) {
	s.Total += r.count
	s.ByCategory[model.Category(r.category)] += r.count
	s.ByStatus[r.status] += r.count
	if r.hallucinated {
		s.Hallucinated += r.count
	}
	if r.reachable {
		s.Verified += r.count
	}
}
