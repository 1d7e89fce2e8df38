package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/extract"
	"github.com/sells-group/citation-intel/internal/resilience"
	"github.com/sells-group/citation-intel/pkg/anthropic"
)

const claudeSystemPrompt = `You analyze web pages that generative AI assistants cite when answering questions about a brand's market.
Judge how the brand can act on the page to improve its visibility. Respond with ONLY a valid JSON object:
{"summary": "<one sentence on what the page says>",
 "opportunity": "<one or two sentences on the concrete opportunity for the brand>",
 "priority": "high|medium|low",
 "estimated_effort": "<e.g. 2h, 1 day, 3 days>",
 "action_items": ["<specific step>", "..."],
 "sentiment": "positive|neutral|negative",
 "competitor_mentions": ["<competitor named on the page>"],
 "generated_content": "<optional draft reply or pitch, empty if not useful>"}`

const claudeUserPrompt = `Brand: %s
Competitors: %s
Citation category: %s
URL: %s
Domain: %s
Title: %s

Page content:
%s`

// maxPromptChars bounds the page text sent to the model.
const maxPromptChars = 6000

// ClaudeAnalyzer implements Analyzer with an Anthropic model.
type ClaudeAnalyzer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaude returns a ClaudeAnalyzer. A nil client yields an analyzer that
// always reports ErrUnavailable.
func NewClaude(client anthropic.Client, model string, maxTokens int64) *ClaudeAnalyzer {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &ClaudeAnalyzer{client: client, model: model, maxTokens: maxTokens}
}

// Analyze implements Analyzer.
func (a *ClaudeAnalyzer) Analyze(ctx context.Context, req Request) (*Judgment, error) {
	if a.client == nil || a.model == "" {
		return nil, unavailable(eris.New("claude analyzer not configured"), false)
	}

	text := req.ExtractedText
	if text == "" {
		text = "(page text not available)"
	}
	temp := 0.2
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      claudeSystemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{{
			Role: "user",
			Content: fmt.Sprintf(claudeUserPrompt,
				req.BrandName,
				strings.Join(req.Competitors, ", "),
				req.Category,
				req.URL,
				req.Domain,
				req.Title,
				extract.Truncate(text, maxPromptChars),
			),
		}},
	})
	if err != nil {
		status := anthropic.StatusCode(err)
		transient := resilience.IsTransientHTTPStatus(status) || (status == 0 && resilience.IsTransient(err))
		return nil, unavailable(err, transient)
	}

	zap.L().Debug("analyzer: claude usage",
		zap.String("model", a.model),
		zap.String("url", req.URL),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)

	j, err := ParseJudgment(resp.Text())
	if err != nil {
		return nil, unavailable(err, false)
	}
	return j, nil
}
