// Package analyzer defines the deep-content analysis capability: a narrow
// request/response boundary that turns a citation plus its page text into a
// structured judgment. Every failure mode (unconfigured, upstream error,
// malformed output) surfaces as ErrUnavailable so callers can fall back.
package analyzer

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/citation-intel/internal/model"
)

// ErrUnavailable signals that no judgment could be produced.
var ErrUnavailable = eris.New("analyzer: unavailable")

// Request is the input for one analysis.
type Request struct {
	BrandName     string         `json:"brand"`
	URL           string         `json:"url"`
	Domain        string         `json:"domain"`
	Title         string         `json:"title,omitempty"`
	Category      model.Category `json:"category"`
	Competitors   []string       `json:"competitors,omitempty"`
	ExtractedText string         `json:"extracted_text,omitempty"`
}

// Judgment is the structured output of an analysis.
type Judgment struct {
	Summary            string   `json:"summary"`
	Opportunity        string   `json:"opportunity"`
	Priority           string   `json:"priority,omitempty"`
	EstimatedEffort    string   `json:"estimated_effort,omitempty"`
	ActionItems        []string `json:"action_items,omitempty"`
	Sentiment          string   `json:"sentiment,omitempty"`
	CompetitorMentions []string `json:"competitor_mentions,omitempty"`
	GeneratedContent   string   `json:"generated_content,omitempty"`
}

// Analyzer produces a Judgment for a citation.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Judgment, error)
}

// UnavailableError carries the cause of an unavailable result. It matches
// ErrUnavailable under errors.Is / eris.Is.
type UnavailableError struct {
	Cause     error
	Transient bool
}

func (e *UnavailableError) Error() string {
	if e.Cause == nil {
		return ErrUnavailable.Error()
	}
	return ErrUnavailable.Error() + ": " + e.Cause.Error()
}

func (e *UnavailableError) Unwrap() error { return e.Cause }

// Is reports ErrUnavailable as a match.
func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

func unavailable(cause error, transient bool) error {
	return &UnavailableError{Cause: cause, Transient: transient}
}

// IsRetryable reports whether err is a transient unavailable result.
func IsRetryable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue) && ue.Transient
}

// valid reports whether a decoded judgment carries any usable content.
func (j *Judgment) valid() bool {
	return j != nil && (j.Summary != "" || j.Opportunity != "" || len(j.ActionItems) > 0)
}
