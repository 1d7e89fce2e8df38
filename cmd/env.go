package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/analyzer"
	"github.com/sells-group/citation-intel/internal/classify"
	"github.com/sells-group/citation-intel/internal/config"
	"github.com/sells-group/citation-intel/internal/cost"
	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/internal/monitoring"
	"github.com/sells-group/citation-intel/internal/pipeline"
	"github.com/sells-group/citation-intel/internal/resilience"
	"github.com/sells-group/citation-intel/internal/scrape"
	"github.com/sells-group/citation-intel/internal/signal"
	"github.com/sells-group/citation-intel/internal/store"
	"github.com/sells-group/citation-intel/internal/verify"
	anthropicpkg "github.com/sells-group/citation-intel/pkg/anthropic"
	"github.com/sells-group/citation-intel/pkg/firecrawl"
	"github.com/sells-group/citation-intel/pkg/jina"
)

// appEnv holds the store and the services built on it, shared by the
// analyze, audit, signals and serve commands.
type appEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Signals  *signal.Scorer
	Alerter  *monitoring.Alerter
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// alertBatch raises threshold alerts for a finished run.
func (e *appEnv) alertBatch(ctx context.Context, res *pipeline.Result) {
	if e.Alerter == nil || res == nil {
		return
	}
	e.Alerter.Notify(ctx, e.Alerter.EvaluateBatch(res.RunID, res.Summary))
}

// initApp validates config for mode, opens and migrates the store, and
// builds the pipeline and signal scorer. Callers should defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	rules, err := classify.LoadRules(cfg.Classify.RulesPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	pc := pipelineConfig(cfg)
	an, err := initAnalyzer(pc.RetryPolicy())
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	static, err := signal.LoadAuthorityTable(cfg.Signal.AuthorityPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	p := pipeline.New(pc, st, initCapture(initVerifier(cfg.Verify)), classify.New(rules), an)

	return &appEnv{
		Store:    st,
		Pipeline: p,
		Signals:  signal.NewScorer(st, signal.NewAuthorityLookup(st, static)),
		Alerter:  monitoring.NewAlerter(cfg.Monitoring),
	}, nil
}

// initStore opens the configured backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return nil, eris.Wrap(err, "init postgres store")
		}
		return st, nil
	case "sqlite", "":
		st, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "init sqlite store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initAnalyzer builds the configured deep-content analyzer wrapped with
// retry and a circuit breaker. It returns a nil Analyzer when deep analysis
// is disabled or has no credentials.
func initAnalyzer(policy resilience.RetryPolicy) (analyzer.Analyzer, error) {
	var base analyzer.Analyzer
	switch cfg.Analyzer.Provider {
	case "none":
		zap.L().Info("deep analysis disabled by config")
		return nil, nil
	case "claude", "":
		if cfg.Anthropic.Key == "" {
			zap.L().Warn("CITATION_ANTHROPIC_KEY not set, deep analysis disabled")
			return nil, nil
		}
		base = analyzer.NewClaude(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.AnalyzerModel, cfg.Anthropic.MaxTokens)
	case "http":
		timeout := time.Duration(cfg.Analyzer.TimeoutSecs) * time.Second
		base = analyzer.NewHTTP(cfg.Analyzer.Endpoint, cfg.Analyzer.Key,
			analyzer.WithHTTPClient(&http.Client{Timeout: timeout}))
	default:
		return nil, eris.Errorf("unsupported analyzer provider: %s", cfg.Analyzer.Provider)
	}

	var breaker *resilience.Breaker
	if cfg.Analyzer.BreakerThreshold > 0 {
		breaker = resilience.NewBreaker(cfg.Analyzer.BreakerThreshold,
			time.Duration(cfg.Analyzer.BreakerCooldownS)*time.Second)
	}

	zap.L().Info("deep analysis enabled", zap.String("provider", cfg.Analyzer.Provider))
	return analyzer.WithRetry(base, policy, breaker), nil
}

func initVerifier(c config.VerifyConfig) *verify.Verifier {
	return verify.New(verify.Options{
		Timeout:      time.Duration(c.TimeoutSecs) * time.Second,
		UserAgent:    c.UserAgent,
		CapturePage:  c.CapturePage,
		MaxTextChars: c.MaxTextChars,
	})
}

// initCapture wraps v with the hosted-reader fallback when page capture is
// on and at least one reader key is configured.
func initCapture(v *verify.Verifier) pipeline.Verifier {
	if !cfg.Verify.CapturePage || !cfg.Capture.Enabled() {
		return v
	}

	var readers []scrape.Reader
	if cfg.Capture.JinaKey != "" {
		readers = append(readers, scrape.NewJinaReader(
			jina.NewClient(cfg.Capture.JinaKey, jina.WithBaseURL(cfg.Capture.JinaBaseURL)),
			cfg.Verify.MaxTextChars))
	}
	if cfg.Capture.FirecrawlKey != "" {
		readers = append(readers, scrape.NewFirecrawlReader(
			firecrawl.NewClient(cfg.Capture.FirecrawlKey, firecrawl.WithBaseURL(cfg.Capture.FirecrawlBaseURL)),
			cfg.Verify.MaxTextChars))
	}

	zap.L().Info("page capture fallback enabled", zap.Int("readers", len(readers)))
	return scrape.NewCapturingVerifier(v, scrape.NewChain(readers...))
}

// pipelineConfig gathers pacing and retry settings from the verify,
// analyzer and pipeline sections.
func pipelineConfig(conf *config.Config) pipeline.Config {
	c := conf.Pipeline
	pc := pipeline.DefaultConfig()
	pc.VerifyDelay = time.Duration(conf.Verify.DelayMs) * time.Millisecond
	pc.AnalyzeDelayMin, pc.AnalyzeDelayMax = c.AnalyzeDelays()
	pc.MaxRetries = conf.Analyzer.MaxRetries
	if conf.Analyzer.BackoffMs > 0 {
		pc.RetryBackoff = time.Duration(conf.Analyzer.BackoffMs) * time.Millisecond
	}
	if c.Concurrency > 0 {
		pc.Concurrency = c.Concurrency
	}
	if c.MaxBatch > 0 {
		pc.MaxBatch = c.MaxBatch
	}
	if c.MaxBatchDeep > 0 {
		pc.MaxBatchDeep = c.MaxBatchDeep
	}
	return pc
}

// costCalculator layers configured pricing over the built-in rates.
func costCalculator(p config.PricingConfig) *cost.Calculator {
	rates := cost.DefaultRates()
	for name, r := range p.Anthropic {
		rates.Anthropic[name] = cost.ModelRate{Input: r.Input, Output: r.Output}
	}
	if p.Perplexity.PerQuery > 0 {
		rates.Perplexity.PerQuery = p.Perplexity.PerQuery
	}
	for name, r := range p.Perplexity.Models {
		rates.Perplexity.Models[name] = cost.ModelRate{Input: r.Input, Output: r.Output}
	}
	return cost.NewCalculator(rates)
}

// readJSONInput decodes a JSON document from path, or from stdin when path
// is empty or "-".
func readJSONInput(path string, v any) error {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return eris.Wrapf(err, "open input %s", path)
		}
		defer f.Close() //nolint:errcheck
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return eris.Wrap(err, "decode input")
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// brandFlags are shared by commands that take the tracked brand on the
// command line.
type brandFlags struct {
	name        string
	domain      string
	aliases     []string
	competitors []string
}

func (b *brandFlags) brand() model.BrandContext {
	return model.BrandContext{
		Name:        b.name,
		Domain:      b.domain,
		Aliases:     b.aliases,
		Competitors: b.competitors,
	}
}
