package model

import "time"

// RunStatus represents the current state of a citation batch run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records one invocation of the citation pipeline.
type Run struct {
	ID        string        `json:"id"`
	Brand     BrandContext  `json:"brand"`
	Status    RunStatus     `json:"status"`
	Summary   *BatchSummary `json:"summary,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// BatchSummary is the per-batch outcome reported by the pipeline.
type BatchSummary struct {
	Total           int              `json:"total"`
	Processed       int              `json:"processed"`
	Skipped         int              `json:"skipped"`
	Failed          int              `json:"failed"`
	ByCategory      map[Category]int `json:"by_category"`
	Hallucinated    int              `json:"hallucinated"`
	Verified        int              `json:"verified"`
	Analyzed        int              `json:"analyzed"`
	Fallbacks       int              `json:"fallbacks"`
	Recommendations int              `json:"recommendations"`
}
