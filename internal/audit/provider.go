package audit

import (
	"context"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/citation-intel/internal/cost"
	"github.com/sells-group/citation-intel/pkg/anthropic"
	"github.com/sells-group/citation-intel/pkg/perplexity"
)

const answerSystemPrompt = "You are a helpful assistant answering a consumer's question. " +
	"When recommending products or services, give a numbered list and cite your sources."

// Answer is one provider's raw response to a prompt.
type Answer struct {
	Model     string
	Text      string
	Citations []string
	CostUSD   float64
}

// Provider asks a generative-answer engine one prompt.
type Provider interface {
	Name() string
	Ask(ctx context.Context, prompt string) (*Answer, error)
}

// PerplexityProvider asks a Perplexity sonar model and keeps its native
// citations.
type PerplexityProvider struct {
	client perplexity.Client
	model  string
	calc   *cost.Calculator
}

// NewPerplexity returns a PerplexityProvider. calc may be nil.
func NewPerplexity(client perplexity.Client, model string, calc *cost.Calculator) *PerplexityProvider {
	if model == "" {
		model = "sonar"
	}
	return &PerplexityProvider{client: client, model: model, calc: calc}
}

// Name implements Provider.
func (p *PerplexityProvider) Name() string { return "perplexity/" + p.model }

// Ask implements Provider.
func (p *PerplexityProvider) Ask(ctx context.Context, prompt string) (*Answer, error) {
	resp, err := p.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model: p.model,
		Messages: []perplexity.Message{
			{Role: "system", Content: answerSystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "audit: perplexity")
	}

	a := &Answer{
		Model:     p.model,
		Text:      resp.Text(),
		Citations: resp.SourceURLs(),
	}
	if p.calc != nil {
		a.CostUSD = p.calc.Perplexity(p.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
	return a, nil
}

// ClaudeProvider asks a Claude model. Claude answers carry no citation
// metadata, so cited URLs are taken from the answer text.
type ClaudeProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	calc      *cost.Calculator
}

// NewClaude returns a ClaudeProvider. calc may be nil.
func NewClaude(client anthropic.Client, model string, maxTokens int64, calc *cost.Calculator) *ClaudeProvider {
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	return &ClaudeProvider{client: client, model: model, maxTokens: maxTokens, calc: calc}
}

// Name implements Provider.
func (p *ClaudeProvider) Name() string { return "anthropic/" + p.model }

// Ask implements Provider.
func (p *ClaudeProvider) Ask(ctx context.Context, prompt string) (*Answer, error) {
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    answerSystemPrompt,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "audit: claude")
	}

	text := resp.Text()
	a := &Answer{
		Model:     p.model,
		Text:      text,
		Citations: URLsInText(text),
	}
	if p.calc != nil {
		a.CostUSD = p.calc.Claude(p.model, int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))
	}
	return a, nil
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>()\[\]"'` + "`" + `]+`)

// URLsInText returns the distinct http(s) URLs in text, in order of first
// appearance, with trailing punctuation trimmed.
func URLsInText(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range urlPattern.FindAllString(text, -1) {
		u := strings.TrimRight(m, ".,;:!?*_")
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
