package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/citation-intel/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// IntelligenceFilter specifies criteria for listing and summarizing
// citation intelligence.
type IntelligenceFilter struct {
	Category       model.Category           `json:"category,omitempty"`
	Status         model.IntelligenceStatus `json:"status,omitempty"`
	SourceAnswerID string                   `json:"source_answer_id,omitempty"`
	Limit          int                      `json:"limit,omitempty"`
	Offset         int                      `json:"offset,omitempty"`
}

// RecommendationFilter specifies criteria for listing recommendations.
type RecommendationFilter struct {
	Type     model.RecommendationType `json:"type,omitempty"`
	Priority model.Priority           `json:"priority,omitempty"`
	Actioned *bool                    `json:"actioned,omitempty"`
	Limit    int                      `json:"limit,omitempty"`
	Offset   int                      `json:"offset,omitempty"`
}

// Store defines the persistence interface for citation intelligence.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, brand model.BrandContext) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunSummary(ctx context.Context, runID string, summary *model.BatchSummary) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)

	// Citation intelligence. UpsertIntelligence matches on CitationID first,
	// then (SourceAnswerID, URL), updating in place; it sets ci.ID and
	// ci.CreatedAt. A second row matching only the fallback key is removed
	// together with its recommendation.
	UpsertIntelligence(ctx context.Context, ci *model.CitationIntelligence) error
	GetIntelligence(ctx context.Context, id string) (*model.CitationIntelligence, error)
	ListIntelligence(ctx context.Context, filter IntelligenceFilter) ([]model.CitationIntelligence, error)
	SummarizeIntelligence(ctx context.Context, filter IntelligenceFilter) (*model.IntelligenceSummary, error)

	// Recommendations. ReplaceRecommendation deletes any existing
	// recommendation for the intelligence record and inserts rec; a nil rec
	// only deletes.
	ReplaceRecommendation(ctx context.Context, intelligenceID string, rec *model.Recommendation) error
	GetRecommendation(ctx context.Context, intelligenceID string) (*model.Recommendation, error)
	ListRecommendations(ctx context.Context, filter RecommendationFilter) ([]model.Recommendation, error)
	MarkActioned(ctx context.Context, recommendationID string) error

	// Signals. InsertSignal reports false when (ClientID, NormalizedURL)
	// already exists.
	InsertSignal(ctx context.Context, sig *model.Signal) (bool, error)
	ListSignals(ctx context.Context, clientID string, limit int) ([]model.Signal, error)

	// Domain authority
	GetDomainAuthority(ctx context.Context, domain string) (*model.Authority, error)
	LoadDomainAuthorities(ctx context.Context, table map[string]model.Authority) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func notFound(entity, id string) error {
	return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}

func newSummary() *model.IntelligenceSummary {
	return &model.IntelligenceSummary{
		ByCategory: make(map[model.Category]int),
		ByStatus:   make(map[string]int),
	}
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return 100
	}
	return n
}
