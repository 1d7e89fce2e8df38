package model

import (
	"encoding/json"
	"time"
)

// IntelligenceStatus tracks analysis progress for a citation.
type IntelligenceStatus string

const (
	IntelligencePending   IntelligenceStatus = "pending"
	IntelligenceAnalyzing IntelligenceStatus = "analyzing"
	IntelligenceCompleted IntelligenceStatus = "completed"
	IntelligenceFailed    IntelligenceStatus = "failed"
)

// CitationIntelligence is the analysis record for one citation. It is keyed
// by CitationID and falls back to (SourceAnswerID, URL) when no ID exists.
type CitationIntelligence struct {
	ID             string `json:"id"`
	CitationID     string `json:"citation_id,omitempty"`
	SourceAnswerID string `json:"source_answer_id"`
	URL            string `json:"url"`
	Domain         string `json:"domain"`
	Title          string `json:"title,omitempty"`
	SourceModel    string `json:"source_model,omitempty"`

	Verification   Verification         `json:"verification"`
	Classification Classification       `json:"classification"`
	Hallucination  HallucinationVerdict `json:"hallucination"`

	// Analysis is the raw deep-content judgment, nil when the analyzer was
	// skipped or unavailable.
	Analysis json.RawMessage `json:"analysis,omitempty"`
	// UsedFallback is set when the recommendation came from the
	// deterministic fallback judgment.
	UsedFallback bool `json:"used_fallback"`

	Status    IntelligenceStatus `json:"status"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// OpportunityLevel is a shortcut for the classified opportunity level.
func (ci *CitationIntelligence) OpportunityLevel() OpportunityLevel {
	return ci.Classification.OpportunityLevel
}

// IntelligenceSummary is the read-only aggregation over persisted records.
type IntelligenceSummary struct {
	Total           int              `json:"total"`
	ByCategory      map[Category]int `json:"by_category"`
	ByStatus        map[string]int   `json:"by_status"`
	Hallucinated    int              `json:"hallucinated"`
	Verified        int              `json:"verified"`
	Recommendations int              `json:"recommendations"`
	Actioned        int              `json:"actioned"`
}
