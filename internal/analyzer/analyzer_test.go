package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/internal/resilience"
	"github.com/sells-group/citation-intel/pkg/anthropic"
	"github.com/sells-group/citation-intel/pkg/anthropic/mocks"
)

const judgmentJSON = `{"summary":"Reddit thread comparing dating apps","opportunity":"Answer the thread","priority":"high","estimated_effort":"2h","action_items":["Reply with an honest comparison"],"sentiment":"neutral","competitor_mentions":["Bumble"]}`

func testRequest() Request {
	return Request{
		BrandName:     "Acme",
		URL:           "https://reddit.com/r/dating/1",
		Domain:        "reddit.com",
		Category:      model.CategoryUGC,
		Competitors:   []string{"Bumble"},
		ExtractedText: "best dating apps",
	}
}

func fastPolicy() resilience.RetryPolicy {
	return resilience.RetryPolicy{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2}
}

func TestParseJudgment(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"bare", judgmentJSON, false},
		{"fenced", "```json\n" + judgmentJSON + "\n```", false},
		{"prose around", "Here is my analysis:\n" + judgmentJSON + "\nThanks.", false},
		{"empty", "", true},
		{"no object", "I cannot help with that.", true},
		{"broken", `{"summary": "x"`, true},
		{"no content", `{"sentiment":"neutral"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := ParseJudgment(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "high", j.Priority)
			assert.Equal(t, []string{"Bumble"}, j.CompetitorMentions)
		})
	}
}

func TestClaudeAnalyzer_Success(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(r anthropic.MessageRequest) bool {
		return r.Model == "claude-test" &&
			len(r.Messages) == 1 &&
			strings.Contains(r.Messages[0].Content, "Brand: Acme") &&
			strings.Contains(r.Messages[0].Content, "best dating apps")
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: judgmentJSON}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}, nil)

	a := NewClaude(client, "claude-test", 0)
	j, err := a.Analyze(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "Answer the thread", j.Opportunity)
	assert.Equal(t, []string{"Reply with an honest comparison"}, j.ActionItems)
}

func TestClaudeAnalyzer_MalformedOutput(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "sorry, no"}},
	}, nil)

	_, err := NewClaude(client, "claude-test", 0).Analyze(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, IsRetryable(err))
}

func TestClaudeAnalyzer_TransientError(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, resilience.NewTransientError(errors.New("overloaded"), 529))

	_, err := NewClaude(client, "claude-test", 0).Analyze(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, IsRetryable(err))
}

func TestClaudeAnalyzer_NotConfigured(t *testing.T) {
	_, err := NewClaude(nil, "claude-test", 0).Analyze(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPAnalyzer(t *testing.T) {
	var gotAuth string
	var gotReq Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		switch r.URL.Path {
		case "/bare":
			_, _ = w.Write([]byte(judgmentJSON))
		case "/wrapped":
			_, _ = w.Write([]byte(`{"judgment":` + judgmentJSON + `}`))
		case "/unavailable":
			_, _ = w.Write([]byte(`{"unavailable":true,"error":"quota"}`))
		case "/garbage":
			_, _ = w.Write([]byte(`<html>oops</html>`))
		case "/busy":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	t.Run("bare judgment", func(t *testing.T) {
		j, err := NewHTTP(srv.URL+"/bare", "k1").Analyze(ctx, testRequest())
		require.NoError(t, err)
		assert.Equal(t, "Bearer k1", gotAuth)
		assert.Equal(t, "Acme", gotReq.BrandName)
		assert.Equal(t, model.CategoryUGC, gotReq.Category)
		assert.Equal(t, "2h", j.EstimatedEffort)
	})

	t.Run("wrapped judgment", func(t *testing.T) {
		j, err := NewHTTP(srv.URL+"/wrapped", "k1").Analyze(ctx, testRequest())
		require.NoError(t, err)
		assert.Equal(t, "neutral", j.Sentiment)
	})

	t.Run("explicit unavailable", func(t *testing.T) {
		_, err := NewHTTP(srv.URL+"/unavailable", "k1").Analyze(ctx, testRequest())
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.False(t, IsRetryable(err))
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := NewHTTP(srv.URL+"/garbage", "k1").Analyze(ctx, testRequest())
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("5xx is retryable", func(t *testing.T) {
		_, err := NewHTTP(srv.URL+"/busy", "k1").Analyze(ctx, testRequest())
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.True(t, IsRetryable(err))
	})

	t.Run("4xx is not retryable", func(t *testing.T) {
		_, err := NewHTTP(srv.URL+"/nope", "k1").Analyze(ctx, testRequest())
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.False(t, IsRetryable(err))
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := NewHTTP(srv.URL+"/bare", "").Analyze(ctx, testRequest())
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

type scriptedAnalyzer struct {
	calls atomic.Int32
	errs  []error
}

func (s *scriptedAnalyzer) Analyze(_ context.Context, _ Request) (*Judgment, error) {
	n := int(s.calls.Add(1)) - 1
	if n < len(s.errs) && s.errs[n] != nil {
		return nil, s.errs[n]
	}
	return &Judgment{Summary: "ok", Opportunity: "ok"}, nil
}

func TestWithRetry_RecoversFromTransient(t *testing.T) {
	next := &scriptedAnalyzer{errs: []error{
		unavailable(errors.New("503"), true),
		unavailable(errors.New("429"), true),
	}}
	j, err := WithRetry(next, fastPolicy(), nil).Analyze(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", j.Summary)
	assert.Equal(t, int32(3), next.calls.Load())
}

func TestWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	transient := unavailable(errors.New("503"), true)
	next := &scriptedAnalyzer{errs: []error{transient, transient, transient, transient}}
	_, err := WithRetry(next, fastPolicy(), nil).Analyze(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), next.calls.Load())
}

func TestWithRetry_DoesNotRetryMalformed(t *testing.T) {
	next := &scriptedAnalyzer{errs: []error{unavailable(errors.New("bad json"), false)}}
	_, err := WithRetry(next, fastPolicy(), nil).Analyze(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestWithRetry_BreakerShortCircuits(t *testing.T) {
	bad := unavailable(errors.New("bad json"), false)
	next := &scriptedAnalyzer{errs: []error{bad, bad, bad, bad}}
	breaker := resilience.NewBreaker(2, time.Minute)
	a := WithRetry(next, fastPolicy(), breaker)

	for range 2 {
		_, err := a.Analyze(context.Background(), testRequest())
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	_, err := a.Analyze(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, resilience.ErrBreakerOpen)
	assert.Equal(t, int32(2), next.calls.Load())
}
