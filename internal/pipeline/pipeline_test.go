package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/citation-intel/internal/analyzer"
	"github.com/sells-group/citation-intel/internal/classify"
	"github.com/sells-group/citation-intel/internal/extract"
	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/internal/store"
	"github.com/sells-group/citation-intel/internal/verify"
)

type stubVerifier struct {
	mu       sync.Mutex
	statuses map[string]int
	calls    int
}

func (s *stubVerifier) Verify(_ context.Context, rawURL string) verify.Result {
	s.mu.Lock()
	s.calls++
	status, ok := s.statuses[rawURL]
	s.mu.Unlock()
	if !ok {
		status = 200
	}
	v := model.Verification{StatusCode: &status, CheckedAt: time.Now().UTC()}
	switch {
	case status >= 200 && status < 300:
		v.Reachable = true
		return verify.Result{
			Verification: v,
			Page:         &extract.Page{Title: "Thread", Text: "Which app is best? Acme and Rival both came up."},
		}
	case status == 404:
		v.FailureReason = model.FailureFakeDomain
	default:
		v.FailureReason = model.FailureUnreachable
	}
	return verify.Result{Verification: v}
}

type stubAnalyzer struct {
	calls    atomic.Int64
	judgment *analyzer.Judgment
	err      error
	lastText atomic.Value
}

func (s *stubAnalyzer) Analyze(_ context.Context, req analyzer.Request) (*analyzer.Judgment, error) {
	s.calls.Add(1)
	s.lastText.Store(req.ExtractedText)
	if s.err != nil {
		return nil, s.err
	}
	j := *s.judgment
	return &j, nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.VerifyDelay = 0
	cfg.AnalyzeDelayMin = 0
	cfg.AnalyzeDelayMax = 0
	cfg.Concurrency = 2
	return cfg
}

func testBrand() model.BrandContext {
	return model.BrandContext{
		Name:        "Acme",
		Domain:      "acme.com",
		Competitors: []string{"Rival"},
	}
}

func testCitations() []model.Citation {
	return []model.Citation{
		{ID: "c1", SourceAnswerID: "a1", URL: "https://www.reddit.com/r/apps/comments/1", Title: "Best apps?"},
		{ID: "c2", SourceAnswerID: "a1", URL: "https://acme.com/features"},
		{ID: "c3", SourceAnswerID: "a1", URL: "https://madeup-review-site.io/acme"},
		{ID: "c4", SourceAnswerID: "a2", URL: "https://rival.com/blog/why-rival"},
	}
}

func itemByID(t *testing.T, res *Result, id string) ItemResult {
	t.Helper()
	for _, it := range res.Items {
		if it.CitationID == id {
			return it
		}
	}
	t.Fatalf("no item for citation %s", id)
	return ItemResult{}
}

func TestPipeline_Run_InvalidInput(t *testing.T) {
	p := New(testConfig(), newTestStore(t), &stubVerifier{}, classify.New(classify.DefaultRules()), nil)

	_, err := p.Run(context.Background(), Request{Citations: testCitations()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = p.Run(context.Background(), Request{Brand: testBrand()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestPipeline_Run_ClassifiesAndRecommends(t *testing.T) {
	st := newTestStore(t)
	v := &stubVerifier{statuses: map[string]int{"https://madeup-review-site.io/acme": 404}}
	p := New(testConfig(), st, v, classify.New(classify.DefaultRules()), nil)

	res, err := p.Run(context.Background(), Request{Brand: testBrand(), Citations: testCitations()})
	require.NoError(t, err)
	require.Len(t, res.Items, 4)
	assert.NotEmpty(t, res.RunID)

	ugc := itemByID(t, res, "c1")
	assert.Equal(t, model.CategoryUGC, ugc.Category)
	assert.Equal(t, model.IntelligenceCompleted, ugc.Status)
	require.NotNil(t, ugc.Recommendation)
	assert.Equal(t, model.RecommendationCommunityResponse, ugc.Recommendation.Type)
	assert.True(t, ugc.UsedFallback)

	owned := itemByID(t, res, "c2")
	assert.Equal(t, model.CategoryBrandOwned, owned.Category)
	assert.Nil(t, owned.Recommendation)
	assert.False(t, owned.UsedFallback)

	fake := itemByID(t, res, "c3")
	assert.True(t, fake.Hallucinated)
	assert.Nil(t, fake.Recommendation)

	comp := itemByID(t, res, "c4")
	assert.Equal(t, model.CategoryCompetitorBlog, comp.Category)
	require.NotNil(t, comp.Recommendation)
	assert.Equal(t, model.RecommendationComparisonPage, comp.Recommendation.Type)

	assert.Equal(t, 4, res.Summary.Total)
	assert.Equal(t, 4, res.Summary.Processed)
	assert.Equal(t, 1, res.Summary.Hallucinated)
	assert.Equal(t, 3, res.Summary.Verified)
	assert.Equal(t, 2, res.Summary.Recommendations)
	assert.Equal(t, 2, res.Summary.Fallbacks)
	assert.True(t, ugc.Reachable)
	assert.False(t, fake.Reachable)

	run, err := st.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Summary)
	assert.Equal(t, 2, run.Summary.Recommendations)
	assert.Equal(t, 3, run.Summary.Verified)

	ci, err := st.GetIntelligence(context.Background(), fake.IntelligenceID)
	require.NoError(t, err)
	assert.False(t, ci.Verification.Reachable)
	require.NotNil(t, ci.Hallucination.Type)
	assert.Equal(t, "fake_domain", *ci.Hallucination.Type)
	_, err = st.GetRecommendation(context.Background(), fake.IntelligenceID)
	assert.True(t, store.IsNotFound(err))
}

func TestPipeline_Run_DeepAnalysis(t *testing.T) {
	st := newTestStore(t)
	a := &stubAnalyzer{judgment: &analyzer.Judgment{
		Summary:         "Users compare Acme and Rival",
		Opportunity:     "Answer the thread with a pricing breakdown",
		Priority:        "medium",
		EstimatedEffort: "1h",
		ActionItems:     []string{"Share the free tier details"},
	}}
	p := New(testConfig(), st, &stubVerifier{}, classify.New(classify.DefaultRules()), a)

	res, err := p.Run(context.Background(), Request{
		Brand:        testBrand(),
		Citations:    testCitations()[:2],
		DeepAnalysis: true,
	})
	require.NoError(t, err)

	// Only the actionable citation reaches the analyzer.
	assert.Equal(t, int64(1), a.calls.Load())
	assert.Contains(t, a.lastText.Load(), "Which app is best?")

	ugc := itemByID(t, res, "c1")
	assert.True(t, ugc.Analyzed)
	assert.False(t, ugc.UsedFallback)
	require.NotNil(t, ugc.Recommendation)
	assert.Equal(t, "Answer the thread with a pricing breakdown", ugc.Recommendation.Description)
	assert.Equal(t, model.PriorityMedium, ugc.Recommendation.Priority)
	assert.Equal(t, "1h", ugc.Recommendation.EstimatedEffort)
	assert.Contains(t, ugc.Recommendation.ActionItems, "Share the free tier details")

	ci, err := st.GetIntelligence(context.Background(), ugc.IntelligenceID)
	require.NoError(t, err)
	assert.Equal(t, model.IntelligenceCompleted, ci.Status)
	assert.Contains(t, string(ci.Analysis), "pricing breakdown")
	assert.Equal(t, 1, res.Summary.Analyzed)
}

func TestPipeline_Run_AnalyzerUnavailableFallsBack(t *testing.T) {
	st := newTestStore(t)
	a := &stubAnalyzer{err: analyzer.ErrUnavailable}
	p := New(testConfig(), st, &stubVerifier{}, classify.New(classify.DefaultRules()), a)

	res, err := p.Run(context.Background(), Request{
		Brand:        testBrand(),
		Citations:    testCitations()[:1],
		DeepAnalysis: true,
	})
	require.NoError(t, err)

	it := res.Items[0]
	assert.Equal(t, model.IntelligenceCompleted, it.Status)
	assert.False(t, it.Analyzed)
	assert.True(t, it.UsedFallback)
	require.NotNil(t, it.Recommendation)
	assert.Equal(t, model.PriorityHigh, it.Recommendation.Priority)
	assert.Equal(t, "2h", it.Recommendation.EstimatedEffort)
	assert.Len(t, it.Recommendation.ActionItems, 6)
}

func TestPipeline_Run_NilAnalyzerSkipsDeepAnalysis(t *testing.T) {
	p := New(testConfig(), newTestStore(t), &stubVerifier{}, classify.New(classify.DefaultRules()), nil)

	res, err := p.Run(context.Background(), Request{
		Brand:        testBrand(),
		Citations:    testCitations()[:1],
		DeepAnalysis: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Items[0].UsedFallback)
	assert.Equal(t, 0, res.Summary.Analyzed)
}

func TestPipeline_Run_HallucinatedNotAnalyzed(t *testing.T) {
	a := &stubAnalyzer{judgment: &analyzer.Judgment{Summary: "x"}}
	v := &stubVerifier{statuses: map[string]int{"https://www.reddit.com/r/apps/comments/1": 503}}
	p := New(testConfig(), newTestStore(t), v, classify.New(classify.DefaultRules()), a)

	res, err := p.Run(context.Background(), Request{
		Brand:        testBrand(),
		Citations:    testCitations()[:1],
		DeepAnalysis: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), a.calls.Load())
	assert.True(t, res.Items[0].Hallucinated)
	assert.Nil(t, res.Items[0].Recommendation)
}

func TestPipeline_Run_ReanalysisReplacesRecords(t *testing.T) {
	st := newTestStore(t)
	p := New(testConfig(), st, &stubVerifier{}, classify.New(classify.DefaultRules()), nil)
	req := Request{Brand: testBrand(), Citations: testCitations()}

	first, err := p.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	intel, err := st.ListIntelligence(context.Background(), store.IntelligenceFilter{})
	require.NoError(t, err)
	assert.Len(t, intel, 4)

	recs, err := st.ListRecommendations(context.Background(), store.RecommendationFilter{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	assert.Equal(t, itemByID(t, first, "c1").IntelligenceID, itemByID(t, second, "c1").IntelligenceID)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestPipeline_Run_BatchLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBatch = 2
	v := &stubVerifier{}
	p := New(cfg, newTestStore(t), v, classify.New(classify.DefaultRules()), nil)

	res, err := p.Run(context.Background(), Request{Brand: testBrand(), Citations: testCitations()})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Summary.Total)
	assert.Equal(t, 2, res.Summary.Processed)
	assert.Equal(t, 2, res.Summary.Skipped)
	assert.True(t, res.Items[2].Skipped)
	assert.True(t, res.Items[3].Skipped)
	assert.Equal(t, 2, v.calls)
}

type cancelingVerifier struct {
	stubVerifier
	cancel context.CancelFunc
}

func (c *cancelingVerifier) Verify(ctx context.Context, rawURL string) verify.Result {
	c.cancel()
	return c.stubVerifier.Verify(ctx, rawURL)
}

func TestPipeline_Run_CanceledMidBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig()
	cfg.Concurrency = 1
	v := &cancelingVerifier{cancel: cancel}
	st := newTestStore(t)
	p := New(cfg, st, v, classify.New(classify.DefaultRules()), nil)

	res, err := p.Run(ctx, Request{Brand: testBrand(), Citations: testCitations()})
	require.NoError(t, err)
	assert.Equal(t, 1, v.calls)
	assert.Equal(t, 4, res.Summary.Skipped)
	assert.Zero(t, res.Summary.Hallucinated)
	assert.Zero(t, res.Summary.Verified)
	for _, it := range res.Items {
		assert.True(t, it.Skipped)
		assert.False(t, it.Hallucinated)
	}

	// The interrupted citation is left failed, not judged.
	failed, err := st.ListIntelligence(context.Background(), store.IntelligenceFilter{Status: model.IntelligenceFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "c1", failed[0].CitationID)
	assert.False(t, failed[0].Hallucination.IsHallucinated)
	assert.Equal(t, context.Canceled.Error(), failed[0].Error)
}

// statusRecordingVerifier captures the stored intelligence status at the
// moment each URL is checked.
type statusRecordingVerifier struct {
	stubVerifier
	st       store.Store
	mu       sync.Mutex
	observed map[string]model.IntelligenceStatus
}

func (r *statusRecordingVerifier) Verify(ctx context.Context, rawURL string) verify.Result {
	rows, err := r.st.ListIntelligence(ctx, store.IntelligenceFilter{})
	r.mu.Lock()
	if err == nil {
		for _, ci := range rows {
			if ci.URL == rawURL {
				r.observed[rawURL] = ci.Status
			}
		}
	}
	r.mu.Unlock()
	return r.stubVerifier.Verify(ctx, rawURL)
}

func TestPipeline_Run_MarksAnalyzingBeforeVerify(t *testing.T) {
	st := newTestStore(t)
	v := &statusRecordingVerifier{st: st, observed: make(map[string]model.IntelligenceStatus)}
	cfg := testConfig()
	cfg.Concurrency = 1
	p := New(cfg, st, v, classify.New(classify.DefaultRules()), nil)

	res, err := p.Run(context.Background(), Request{Brand: testBrand(), Citations: testCitations()})
	require.NoError(t, err)

	require.Len(t, v.observed, 4)
	for url, status := range v.observed {
		assert.Equal(t, model.IntelligenceAnalyzing, status, url)
	}
	for _, it := range res.Items {
		ci, err := st.GetIntelligence(context.Background(), it.IntelligenceID)
		require.NoError(t, err)
		assert.Equal(t, model.IntelligenceCompleted, ci.Status)
	}
}

func TestPipeline_Run_VerifyDelaySpacesChecks(t *testing.T) {
	cfg := testConfig()
	cfg.VerifyDelay = 50 * time.Millisecond
	p := New(cfg, newTestStore(t), &stubVerifier{}, classify.New(classify.DefaultRules()), nil)

	start := time.Now()
	res, err := p.Run(context.Background(), Request{Brand: testBrand(), Citations: testCitations()[:3]})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Summary.Processed)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestConfig_RetryPolicy(t *testing.T) {
	def := DefaultConfig()
	assert.Equal(t, 200*time.Millisecond, def.VerifyDelay)
	assert.Equal(t, 2, def.MaxRetries)

	p := def.RetryPolicy()
	assert.Equal(t, 2, p.MaxRetries)
	assert.Zero(t, p.JitterFraction)
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))

	p = Config{MaxRetries: 1, RetryBackoff: 10 * time.Millisecond}.RetryPolicy()
	assert.Equal(t, 1, p.MaxRetries)
	assert.Equal(t, 10*time.Millisecond, p.Delay(1))
}

func TestSummarize(t *testing.T) {
	s := summarize([]ItemResult{
		{Category: model.CategoryUGC, Status: model.IntelligenceCompleted, Reachable: true, Recommendation: &model.Recommendation{}, UsedFallback: true},
		{Category: model.CategoryOther, Status: model.IntelligenceFailed, Hallucinated: true},
		{Skipped: true, Reachable: true},
	})
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Processed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.ByCategory[model.CategoryUGC])
	assert.Equal(t, 1, s.Fallbacks)
	assert.Equal(t, 1, s.Verified)
	assert.Equal(t, 1, s.Hallucinated)
}
