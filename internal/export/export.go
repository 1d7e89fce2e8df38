// Package export writes citation intelligence out of the store: an XLSX
// workbook for offline review and a recommendation mirror in Notion.
package export

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/internal/store"
)

const pageSize = 500

// Row pairs an intelligence record with its live recommendation, if any.
type Row struct {
	Intelligence   model.CitationIntelligence
	Recommendation *model.Recommendation
}

// Reader is the store subset the exporters read from.
type Reader interface {
	ListIntelligence(ctx context.Context, filter store.IntelligenceFilter) ([]model.CitationIntelligence, error)
	GetIntelligence(ctx context.Context, id string) (*model.CitationIntelligence, error)
	GetRecommendation(ctx context.Context, intelligenceID string) (*model.Recommendation, error)
	ListRecommendations(ctx context.Context, filter store.RecommendationFilter) ([]model.Recommendation, error)
}

// Collect pages through every intelligence record matching filter and
// attaches its recommendation. filter.Limit and Offset are ignored.
func Collect(ctx context.Context, st Reader, filter store.IntelligenceFilter) ([]Row, error) {
	var rows []Row
	filter.Limit = pageSize
	for offset := 0; ; offset += pageSize {
		filter.Offset = offset
		batch, err := st.ListIntelligence(ctx, filter)
		if err != nil {
			return nil, eris.Wrap(err, "export: list intelligence")
		}
		for _, ci := range batch {
			rec, err := st.GetRecommendation(ctx, ci.ID)
			if err != nil && !store.IsNotFound(err) {
				return nil, eris.Wrapf(err, "export: recommendation for %s", ci.ID)
			}
			rows = append(rows, Row{Intelligence: ci, Recommendation: rec})
		}
		if len(batch) < pageSize {
			return rows, nil
		}
	}
}

// openRecommendations pages through every recommendation not yet actioned.
func openRecommendations(ctx context.Context, st Reader) ([]model.Recommendation, error) {
	open := false
	var all []model.Recommendation
	for offset := 0; ; offset += pageSize {
		batch, err := st.ListRecommendations(ctx, store.RecommendationFilter{
			Actioned: &open,
			Limit:    pageSize,
			Offset:   offset,
		})
		if err != nil {
			return nil, eris.Wrap(err, "export: list recommendations")
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			return all, nil
		}
	}
}
