package audit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/citation-intel/internal/cost"
	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/pkg/anthropic"
	anthropicmocks "github.com/sells-group/citation-intel/pkg/anthropic/mocks"
	"github.com/sells-group/citation-intel/pkg/perplexity"
)

type stubProvider struct {
	name    string
	answers map[string]*Answer
	err     error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Ask(_ context.Context, prompt string) (*Answer, error) {
	if s.err != nil {
		return nil, s.err
	}
	if a, ok := s.answers[prompt]; ok {
		return a, nil
	}
	return &Answer{Model: s.name, Text: "No strong opinion."}, nil
}

func testBrand() model.BrandContext {
	return model.BrandContext{Name: "Acme", Competitors: []string{"Rival"}}
}

func TestRunner_Run(t *testing.T) {
	good := &stubProvider{name: "sonar", answers: map[string]*Answer{
		"best app": {
			Text:      "1. Acme\n2. Rival",
			Citations: []string{"https://acme.com", "https://reddit.com/r/apps"},
			CostUSD:   0.01,
		},
		"cheapest app": {
			Text:      "Rival is cheapest.",
			Citations: []string{"https://reddit.com/r/apps"},
			CostUSD:   0.01,
		},
	}}
	bad := &stubProvider{name: "claude", err: errors.New("503 overloaded")}

	r := NewRunner([]Provider{good, bad}, 2)
	res, err := r.Run(context.Background(), Request{
		Brand:   testBrand(),
		Prompts: []string{"best app", " ", "cheapest app"},
	})
	require.NoError(t, err)
	require.Len(t, res.Answers, 4)

	// Answers are ordered prompt-major, provider-minor.
	assert.Equal(t, "best app", res.Answers[0].Prompt)
	assert.Equal(t, "sonar", res.Answers[0].Model)
	assert.True(t, res.Answers[0].Success)
	require.NotNil(t, res.Answers[0].Rank)
	assert.Equal(t, 1, *res.Answers[0].Rank)
	assert.Equal(t, "claude", res.Answers[1].Model)
	assert.False(t, res.Answers[1].Success)
	assert.Contains(t, res.Answers[1].Error, "overloaded")

	sum := res.Report.Summary
	assert.Equal(t, 4, sum.TotalAnswers)
	assert.Equal(t, 2, sum.SuccessfulAnswers)
	assert.Equal(t, 50, sum.ShareOfVoice)
	assert.InDelta(t, 0.02, sum.CostUSD, 1e-9)

	require.Len(t, res.Report.Citations, 2)
	assert.Equal(t, "https://reddit.com/r/apps", res.Report.Citations[0].URL)
	assert.Equal(t, []string{"best app", "cheapest app"}, res.Report.Citations[0].Prompts)
}

func TestRunner_Run_InvalidInput(t *testing.T) {
	p := &stubProvider{name: "sonar"}

	_, err := NewRunner([]Provider{p}, 1).Run(context.Background(), Request{Prompts: []string{"x"}})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = NewRunner([]Provider{p}, 1).Run(context.Background(), Request{Brand: testBrand(), Prompts: []string{" "}})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = NewRunner(nil, 1).Run(context.Background(), Request{Brand: testBrand(), Prompts: []string{"x"}})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestCitations(t *testing.T) {
	answers := []model.AuditAnswer{
		{ID: "a1", Model: "sonar", Success: true, Citations: []string{"https://www.reddit.com/r/x", "https://acme.com"}},
		{ID: "a2", Model: "claude", Success: false, Citations: []string{"https://ignored.com"}},
	}

	cites := Citations(answers)
	require.Len(t, cites, 2)
	assert.Equal(t, model.Citation{
		SourceAnswerID: "a1",
		URL:            "https://www.reddit.com/r/x",
		Domain:         "www.reddit.com",
		SourceModel:    "sonar",
		Position:       1,
	}, cites[0])
	assert.Equal(t, 2, cites[1].Position)
}

func TestURLsInText(t *testing.T) {
	text := "See https://acme.com/pricing. Also [Reddit](https://reddit.com/r/apps) and " +
		"https://acme.com/pricing again, plus **https://blog.example.org/post**"
	assert.Equal(t, []string{
		"https://acme.com/pricing",
		"https://reddit.com/r/apps",
		"https://blog.example.org/post",
	}, URLsInText(text))
	assert.Empty(t, URLsInText("no links here"))
}

func TestPerplexityProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "1",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "1. Acme [1]"}}],
			"citations": ["https://acme.com"],
			"usage": {"prompt_tokens": 1000, "completion_tokens": 1000}
		}`))
	}))
	defer srv.Close()

	calc := cost.NewCalculator(cost.Rates{Perplexity: cost.PerplexityRate{
		PerQuery: 0.005,
		Models:   map[string]cost.ModelRate{"sonar": {Input: 1, Output: 1}},
	}})
	p := NewPerplexity(perplexity.NewClient("key", perplexity.WithBaseURL(srv.URL)), "", calc)
	assert.Equal(t, "perplexity/sonar", p.Name())

	a, err := p.Ask(context.Background(), "best app")
	require.NoError(t, err)
	assert.Equal(t, "1. Acme [1]", a.Text)
	assert.Equal(t, []string{"https://acme.com"}, a.Citations)
	assert.InDelta(t, 0.007, a.CostUSD, 1e-9)
}

func TestClaudeProvider(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku" && req.Messages[0].Content == "best app"
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "1. Acme (https://acme.com)"}},
		Usage:   anthropic.TokenUsage{InputTokens: 1_000_000, OutputTokens: 0},
	}, nil)

	calc := cost.NewCalculator(cost.Rates{Anthropic: map[string]cost.ModelRate{"claude-haiku": {Input: 1, Output: 5}}})
	p := NewClaude(client, "claude-haiku", 0, calc)

	a, err := p.Ask(context.Background(), "best app")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://acme.com"}, a.Citations)
	assert.InDelta(t, 1.0, a.CostUSD, 1e-9)
}

func TestClaudeProvider_Error(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	_, err := NewClaude(client, "claude-haiku", 0, nil).Ask(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit: claude")
}
