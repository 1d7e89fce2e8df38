package model

// AuditAnswer is one model's response to one prompt.
type AuditAnswer struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Model        string   `json:"model"`
	Text         string   `json:"text"`
	Citations    []string `json:"citations,omitempty"`
	MentionCount int      `json:"mention_count"`
	Rank         *int     `json:"rank,omitempty"`
	Success      bool     `json:"success"`
	Error        string   `json:"error,omitempty"`
	CostUSD      float64  `json:"cost_usd"`
}

// AuditSummary aggregates the answers of one audit run.
type AuditSummary struct {
	TotalAnswers      int      `json:"total_answers"`
	SuccessfulAnswers int      `json:"successful_answers"`
	MentionedAnswers  int      `json:"mentioned_answers"`
	ShareOfVoice      int      `json:"share_of_voice"`
	AverageRank       *float64 `json:"average_rank,omitempty"`
	TotalCitations    int      `json:"total_citations"`
	CostUSD           float64  `json:"cost_usd"`
}
