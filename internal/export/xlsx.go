package export

import (
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

var intelligenceHeader = []string{
	"ID", "URL", "Domain", "Title", "Source Model", "Source Answer",
	"Reachable", "HTTP Status", "Failure Reason",
	"Category", "Subcategory", "Opportunity",
	"Hallucinated", "Hallucination Type",
	"Status", "Used Fallback", "Updated",
}

var recommendationHeader = []string{
	"ID", "Intelligence ID", "URL", "Type", "Priority", "Title",
	"Description", "Action Items", "Effort", "Actioned", "Created",
}

// WriteWorkbook writes rows as an XLSX workbook with an "Intelligence"
// sheet and a "Recommendations" sheet.
func WriteWorkbook(w io.Writer, rows []Row) error {
	f := xlsx.NewFile()

	intel, err := f.AddSheet("Intelligence")
	if err != nil {
		return eris.Wrap(err, "export: add intelligence sheet")
	}
	recs, err := f.AddSheet("Recommendations")
	if err != nil {
		return eris.Wrap(err, "export: add recommendations sheet")
	}

	addStrings(intel.AddRow(), intelligenceHeader...)
	addStrings(recs.AddRow(), recommendationHeader...)

	for _, r := range rows {
		ci := r.Intelligence
		row := intel.AddRow()
		addStrings(row, ci.ID, ci.URL, ci.Domain, ci.Title, ci.SourceModel, ci.SourceAnswerID)
		row.AddCell().SetBool(ci.Verification.Reachable)
		if ci.Verification.StatusCode != nil {
			row.AddCell().SetInt(*ci.Verification.StatusCode)
		} else {
			row.AddCell()
		}
		addStrings(row,
			ci.Verification.FailureReason,
			string(ci.Classification.Category),
			deref(ci.Classification.Subcategory),
			string(ci.Classification.OpportunityLevel),
		)
		row.AddCell().SetBool(ci.Hallucination.IsHallucinated)
		addStrings(row, deref(ci.Hallucination.Type), string(ci.Status))
		row.AddCell().SetBool(ci.UsedFallback)
		addStrings(row, formatTime(ci.UpdatedAt))

		if rec := r.Recommendation; rec != nil {
			rr := recs.AddRow()
			addStrings(rr, rec.ID, rec.IntelligenceID, ci.URL, string(rec.Type), string(rec.Priority),
				rec.Title, rec.Description, strings.Join(rec.ActionItems, "\n"), rec.EstimatedEffort)
			rr.AddCell().SetBool(rec.Actioned)
			addStrings(rr, formatTime(rec.CreatedAt))
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

func addStrings(row *xlsx.Row, values ...string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
