package model

import "time"

// RecommendationType names the play a recommendation proposes.
type RecommendationType string

const (
	RecommendationCommunityResponse RecommendationType = "community_response"
	RecommendationComparisonPage    RecommendationType = "comparison_page"
	RecommendationPressOutreach     RecommendationType = "press_outreach"
	RecommendationAppStoreOptimize  RecommendationType = "app_store_optimization"
	RecommendationWikipediaStrategy RecommendationType = "wikipedia_strategy"
)

// Priority ranks recommendations for the reporting surface.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Recommendation is the single live action proposed for a citation.
type Recommendation struct {
	ID               string             `json:"id"`
	IntelligenceID   string             `json:"intelligence_id"`
	Type             RecommendationType `json:"type"`
	Priority         Priority           `json:"priority"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	ActionItems      []string           `json:"action_items"`
	EstimatedEffort  string             `json:"estimated_effort"`
	GeneratedContent *string            `json:"generated_content,omitempty"`
	Actioned         bool               `json:"actioned"`
	CreatedAt        time.Time          `json:"created_at"`
}
