// Package audit runs visibility audits: every prompt is asked of every
// configured answer provider, the answers are scored for brand presence,
// and their cited URLs become citation records for the intelligence
// pipeline.
package audit

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/citation-intel/internal/metrics"
	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/internal/visibility"
)

// ErrInvalidInput rejects an audit before any provider is called.
var ErrInvalidInput = eris.New("audit: invalid input")

// Request is one audit invocation.
type Request struct {
	Brand   model.BrandContext `json:"brand"`
	Prompts []string           `json:"prompts"`
}

// Result holds the scored answers and the visibility report built from them.
type Result struct {
	Answers []model.AuditAnswer `json:"answers"`
	Report  *visibility.Report  `json:"report"`
}

// Runner fans prompts out across providers.
type Runner struct {
	providers   []Provider
	concurrency int
}

// NewRunner creates a Runner. Concurrency defaults to 3.
func NewRunner(providers []Provider, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Runner{providers: providers, concurrency: concurrency}
}

// Run asks every prompt of every provider. A failed call yields an answer
// with Success=false; it never fails the audit.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Brand.Name) == "" {
		return nil, eris.Wrap(ErrInvalidInput, "brand name is required")
	}
	prompts := nonEmpty(req.Prompts)
	if len(prompts) == 0 {
		return nil, eris.Wrap(ErrInvalidInput, "at least one prompt is required")
	}
	if len(r.providers) == 0 {
		return nil, eris.Wrap(ErrInvalidInput, "no answer providers configured")
	}

	answers := make([]model.AuditAnswer, len(prompts)*len(r.providers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, prompt := range prompts {
		for j, p := range r.providers {
			idx := i*len(r.providers) + j
			g.Go(func() error {
				answers[idx] = r.ask(gctx, p, prompt)
				return nil
			})
		}
	}
	_ = g.Wait()

	report := visibility.BuildReport(answers, req.Brand)
	for _, a := range answers {
		metrics.AuditAnswers.WithLabelValues(a.Model, strconv.FormatBool(a.Success)).Inc()
	}
	metrics.AuditCostUSD.Add(report.Summary.CostUSD)

	zap.L().Info("audit: complete",
		zap.String("brand", req.Brand.Name),
		zap.Int("answers", report.Summary.TotalAnswers),
		zap.Int("successful", report.Summary.SuccessfulAnswers),
		zap.Int("share_of_voice", report.Summary.ShareOfVoice),
		zap.Float64("cost_usd", report.Summary.CostUSD),
	)
	return &Result{Answers: answers, Report: report}, nil
}

func (r *Runner) ask(ctx context.Context, p Provider, prompt string) model.AuditAnswer {
	a := model.AuditAnswer{
		ID:     uuid.NewString(),
		Prompt: prompt,
		Model:  p.Name(),
	}
	if err := ctx.Err(); err != nil {
		a.Error = err.Error()
		return a
	}

	resp, err := p.Ask(ctx, prompt)
	if err != nil {
		zap.L().Warn("audit: provider call failed",
			zap.String("provider", p.Name()),
			zap.String("prompt", prompt),
			zap.Error(err),
		)
		a.Error = err.Error()
		return a
	}

	a.Success = true
	a.Text = resp.Text
	a.Citations = resp.Citations
	a.CostUSD = resp.CostUSD
	return a
}

// Citations converts the cited URLs of successful answers into citation
// records, positioned by their order within each answer.
func Citations(answers []model.AuditAnswer) []model.Citation {
	var out []model.Citation
	for _, a := range answers {
		if !a.Success {
			continue
		}
		for i, u := range a.Citations {
			c := model.Citation{
				SourceAnswerID: a.ID,
				URL:            u,
				SourceModel:    a.Model,
				Position:       i + 1,
			}
			c.Domain = c.ResolvedDomain()
			out = append(out, c)
		}
	}
	return out
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
