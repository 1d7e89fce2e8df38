// Package pipeline runs batches of citations through verification,
// classification, hallucination detection, optional deep analysis and
// recommendation synthesis, persisting one intelligence record and at most
// one recommendation per citation.
package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/citation-intel/internal/analyzer"
	"github.com/sells-group/citation-intel/internal/classify"
	"github.com/sells-group/citation-intel/internal/hallucination"
	"github.com/sells-group/citation-intel/internal/metrics"
	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/internal/recommend"
	"github.com/sells-group/citation-intel/internal/resilience"
	"github.com/sells-group/citation-intel/internal/store"
	"github.com/sells-group/citation-intel/internal/verify"
)

// ErrInvalidInput rejects a request before any citation is processed.
var ErrInvalidInput = eris.New("pipeline: invalid input")

// Verifier checks citation reachability. *verify.Verifier implements it.
type Verifier interface {
	Verify(ctx context.Context, rawURL string) verify.Result
}

// Config tunes batch bounds, pacing, retries and concurrency. Tests zero
// the delays.
type Config struct {
	// VerifyDelay is the minimum spacing between reachability checks. Zero
	// disables pacing.
	VerifyDelay time.Duration
	// AnalyzeDelayMin/Max bound the random pause after each analyzer call.
	AnalyzeDelayMin time.Duration
	AnalyzeDelayMax time.Duration
	// MaxRetries bounds analyzer retries on transient failures. Retry n
	// waits RetryBackoff * 2^(n-1).
	MaxRetries   int
	RetryBackoff time.Duration
	// Concurrency is the number of citations processed at once. Default 1.
	Concurrency int
	// MaxBatch caps citations per run without deep analysis, MaxBatchDeep
	// with it. Excess citations are reported as skipped.
	MaxBatch     int
	MaxBatchDeep int
}

// DefaultConfig returns the reference pacing and batch bounds.
func DefaultConfig() Config {
	return Config{
		VerifyDelay:     200 * time.Millisecond,
		AnalyzeDelayMin: 200 * time.Millisecond,
		AnalyzeDelayMax: time.Second,
		MaxRetries:      2,
		RetryBackoff:    time.Second,
		Concurrency:     1,
		MaxBatch:        35,
		MaxBatchDeep:    20,
	}
}

// RetryPolicy returns the analyzer retry schedule. It carries no jitter.
func (c Config) RetryPolicy() resilience.RetryPolicy {
	p := resilience.DefaultRetryPolicy()
	p.MaxRetries = c.MaxRetries
	if c.RetryBackoff > 0 {
		p.InitialBackoff = c.RetryBackoff
	}
	return p
}

// Request is one batch invocation.
type Request struct {
	Brand        model.BrandContext `json:"brand"`
	Citations    []model.Citation   `json:"citations"`
	DeepAnalysis bool               `json:"deep_analysis"`
}

// ItemResult is the outcome for one citation.
type ItemResult struct {
	CitationID     string                   `json:"citation_id,omitempty"`
	URL            string                   `json:"url"`
	IntelligenceID string                   `json:"intelligence_id,omitempty"`
	Status         model.IntelligenceStatus `json:"status,omitempty"`
	Category       model.Category           `json:"category,omitempty"`
	Reachable      bool                     `json:"reachable"`
	Hallucinated   bool                     `json:"hallucinated"`
	Analyzed       bool                     `json:"analyzed"`
	UsedFallback   bool                     `json:"used_fallback"`
	Recommendation *model.Recommendation    `json:"recommendation,omitempty"`
	Skipped        bool                     `json:"skipped,omitempty"`
	Error          string                   `json:"error,omitempty"`
}

// Result is the batch outcome: per-item results plus an aggregate summary.
type Result struct {
	RunID   string             `json:"run_id"`
	Items   []ItemResult       `json:"items"`
	Summary model.BatchSummary `json:"summary"`
}

// Pipeline processes citation batches.
type Pipeline struct {
	cfg        Config
	pace       *rate.Limiter
	store      store.Store
	verifier   Verifier
	classifier *classify.Classifier
	analyzer   analyzer.Analyzer
}

// New creates a Pipeline. A nil analyzer disables deep analysis.
func New(cfg Config, st store.Store, v Verifier, c *classify.Classifier, a analyzer.Analyzer) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	limit := rate.Inf
	if cfg.VerifyDelay > 0 {
		limit = rate.Every(cfg.VerifyDelay)
	}
	return &Pipeline{
		cfg:        cfg,
		pace:       rate.NewLimiter(limit, 1),
		store:      st,
		verifier:   v,
		classifier: c,
		analyzer:   a,
	}
}

// Run validates the request and processes the batch. Individual citation
// failures are reported per item and never abort the batch.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Brand.Name) == "" {
		return nil, eris.Wrap(ErrInvalidInput, "brand name is required")
	}
	if len(req.Citations) == 0 {
		return nil, eris.Wrap(ErrInvalidInput, "citation list is empty")
	}

	log := zap.L().With(zap.String("brand", req.Brand.Name))

	run, err := p.store.CreateRun(ctx, req.Brand)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	if err := p.store.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
		log.Warn("pipeline: failed to update run status", zap.String("run_id", run.ID), zap.Error(err))
	}

	limit := p.cfg.MaxBatch
	if req.DeepAnalysis {
		limit = p.cfg.MaxBatchDeep
	}

	items := make([]ItemResult, len(req.Citations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	var canceled atomic.Int64
	for i, c := range req.Citations {
		if limit > 0 && i >= limit {
			items[i] = ItemResult{CitationID: c.ID, URL: c.URL, Skipped: true, Error: "batch limit exceeded"}
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				canceled.Add(1)
				items[i] = ItemResult{CitationID: c.ID, URL: c.URL, Skipped: true, Error: gctx.Err().Error()}
				return nil
			}
			items[i] = p.processCitation(gctx, c, req.Brand, req.DeepAnalysis)
			return nil // don't abort batch on individual failure
		})
	}
	_ = g.Wait()

	result := &Result{RunID: run.ID, Items: items, Summary: summarize(items)}

	if err := p.store.UpdateRunSummary(ctx, run.ID, &result.Summary); err != nil {
		log.Warn("pipeline: failed to record run summary", zap.String("run_id", run.ID), zap.Error(err))
	}

	log.Info("pipeline: batch complete",
		zap.String("run_id", run.ID),
		zap.Int("total", result.Summary.Total),
		zap.Int("processed", result.Summary.Processed),
		zap.Int("skipped", result.Summary.Skipped),
		zap.Int("failed", result.Summary.Failed),
		zap.Int("hallucinated", result.Summary.Hallucinated),
		zap.Int("recommendations", result.Summary.Recommendations),
		zap.Int64("canceled", canceled.Load()),
	)
	return result, nil
}

// processCitation marks the record analyzing, then runs verify → classify →
// derive → analyze → synthesize → persist for one citation.
func (p *Pipeline) processCitation(ctx context.Context, c model.Citation, brand model.BrandContext, deep bool) ItemResult {
	item := ItemResult{CitationID: c.ID, URL: c.URL}
	log := zap.L().With(zap.String("url", c.URL), zap.String("citation_id", c.ID))

	if strings.TrimSpace(c.URL) == "" {
		item.Skipped = true
		item.Error = "citation has no url"
		return item
	}

	ci := &model.CitationIntelligence{
		CitationID:     c.ID,
		SourceAnswerID: c.SourceAnswerID,
		URL:            c.URL,
		Domain:         c.ResolvedDomain(),
		Title:          c.Title,
		SourceModel:    c.SourceModel,
		Status:         model.IntelligenceAnalyzing,
	}
	if err := p.store.UpsertIntelligence(ctx, ci); err != nil {
		metrics.PersistenceFailures.WithLabelValues("upsert_intelligence").Inc()
		log.Warn("pipeline: failed to mark intelligence analyzing", zap.Error(err))
	}

	var verified verify.Result
	err := p.pace.Wait(ctx)
	if err == nil {
		start := time.Now()
		verified = p.verifier.Verify(ctx, c.URL)
		metrics.VerifyDuration.Observe(time.Since(start).Seconds())
		err = ctx.Err()
	}
	// A check cut short by cancellation says nothing about the URL.
	if err != nil {
		p.markFailed(ci, err)
		item.Skipped = true
		item.Error = err.Error()
		return item
	}
	ci.Verification = verified.Verification

	ci.Classification = p.classifier.Classify(classify.Input{
		URL:         c.URL,
		Domain:      ci.Domain,
		BrandDomain: brand.Domain,
		Competitors: brand.Competitors,
	})

	ci.Hallucination = hallucination.Derive(ci.Verification)
	if ci.Hallucination.IsHallucinated && ci.Hallucination.Type != nil {
		metrics.CitationsHallucinated.WithLabelValues(*ci.Hallucination.Type).Inc()
	}

	item.Category = ci.Classification.Category
	item.Reachable = ci.Verification.Reachable
	item.Hallucinated = ci.Hallucination.IsHallucinated

	var judgment *analyzer.Judgment
	if p.shouldAnalyze(deep, ci) {
		judgment = p.analyze(ctx, ci, brand, verified)
		if judgment != nil {
			item.Analyzed = true
			if raw, err := json.Marshal(judgment); err == nil {
				ci.Analysis = raw
			}
		}
		if err := resilience.SleepBetween(ctx, p.cfg.AnalyzeDelayMin, p.cfg.AnalyzeDelayMax); err != nil {
			log.Debug("pipeline: analyze delay interrupted", zap.Error(err))
		}
	} else if deep {
		metrics.AnalyzerCalls.WithLabelValues(metrics.OutcomeSkipped).Inc()
	}

	rec := recommend.Synthesize(ci, judgment, brand)
	ci.UsedFallback = rec != nil && judgment == nil
	ci.Status = model.IntelligenceCompleted
	ci.Error = ""

	if err := p.store.UpsertIntelligence(ctx, ci); err != nil {
		metrics.PersistenceFailures.WithLabelValues("upsert_intelligence").Inc()
		metrics.CitationsProcessed.WithLabelValues(string(item.Category), string(model.IntelligenceFailed)).Inc()
		log.Error("pipeline: failed to persist intelligence", zap.Error(err))
		item.Status = model.IntelligenceFailed
		item.Error = err.Error()
		return item
	}
	item.IntelligenceID = ci.ID

	if err := p.store.ReplaceRecommendation(ctx, ci.ID, rec); err != nil {
		metrics.PersistenceFailures.WithLabelValues("replace_recommendation").Inc()
		log.Error("pipeline: failed to replace recommendation", zap.String("intelligence_id", ci.ID), zap.Error(err))
		ci.Status = model.IntelligenceFailed
		ci.Error = err.Error()
		if uErr := p.store.UpsertIntelligence(ctx, ci); uErr != nil {
			log.Warn("pipeline: failed to mark intelligence failed", zap.Error(uErr))
		}
		metrics.CitationsProcessed.WithLabelValues(string(item.Category), string(model.IntelligenceFailed)).Inc()
		item.Status = model.IntelligenceFailed
		item.Error = err.Error()
		return item
	}

	if rec != nil {
		source := metrics.SourceJudgment
		if ci.UsedFallback {
			source = metrics.SourceFallback
		}
		metrics.RecommendationsCreated.WithLabelValues(string(rec.Type), source).Inc()
	}
	metrics.CitationsProcessed.WithLabelValues(string(item.Category), string(model.IntelligenceCompleted)).Inc()

	item.Status = model.IntelligenceCompleted
	item.UsedFallback = ci.UsedFallback
	item.Recommendation = rec
	return item
}

// markFailed records an interrupted citation using a fresh context, since
// the batch context is already done.
func (p *Pipeline) markFailed(ci *model.CitationIntelligence, cause error) {
	if ci.ID == "" {
		return
	}
	ci.Status = model.IntelligenceFailed
	ci.Error = cause.Error()
	if err := p.store.UpsertIntelligence(context.Background(), ci); err != nil {
		zap.L().Warn("pipeline: failed to mark intelligence failed", zap.String("url", ci.URL), zap.Error(err))
	}
}

// shouldAnalyze gates deep analysis: requested, configured, not
// hallucinated and the category has a recommendation template.
func (p *Pipeline) shouldAnalyze(deep bool, ci *model.CitationIntelligence) bool {
	return deep &&
		p.analyzer != nil &&
		!ci.Hallucination.IsHallucinated &&
		recommend.Actionable(ci.Classification.Category)
}

// analyze returns nil when the analyzer is unavailable so synthesis falls
// back to the deterministic judgment.
func (p *Pipeline) analyze(ctx context.Context, ci *model.CitationIntelligence, brand model.BrandContext, verified verify.Result) *analyzer.Judgment {
	req := analyzer.Request{
		BrandName:   brand.Name,
		URL:         ci.URL,
		Domain:      ci.Domain,
		Title:       ci.Title,
		Category:    ci.Classification.Category,
		Competitors: brand.Competitors,
	}
	if verified.Page != nil {
		req.ExtractedText = verified.Page.Text
		if req.Title == "" {
			req.Title = verified.Page.Title
		}
	}

	j, err := p.analyzer.Analyze(ctx, req)
	if err != nil {
		metrics.AnalyzerCalls.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		zap.L().Warn("pipeline: analyzer unavailable, using fallback",
			zap.String("url", ci.URL),
			zap.Error(err),
		)
		return nil
	}
	metrics.AnalyzerCalls.WithLabelValues(metrics.OutcomeOK).Inc()
	return j
}

func summarize(items []ItemResult) model.BatchSummary {
	s := model.BatchSummary{
		Total:      len(items),
		ByCategory: make(map[model.Category]int),
	}
	for _, it := range items {
		if it.Skipped {
			s.Skipped++
			continue
		}
		s.Processed++
		if it.Status == model.IntelligenceFailed {
			s.Failed++
		}
		if it.Category != "" {
			s.ByCategory[it.Category]++
		}
		if it.Reachable {
			s.Verified++
		}
		if it.Hallucinated {
			s.Hallucinated++
		}
		if it.Analyzed {
			s.Analyzed++
		}
		if it.UsedFallback {
			s.Fallbacks++
		}
		if it.Recommendation != nil {
			s.Recommendations++
		}
	}
	return s
}
