package analyzer

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// ParseJudgment extracts a Judgment from model output that may be wrapped in
// markdown fences or surrounded by prose. Malformed or empty output is an
// error.
func ParseJudgment(text string) (*Judgment, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, eris.New("analyzer: empty judgment")
	}
	var j Judgment
	if err := json.Unmarshal([]byte(cleaned), &j); err != nil {
		return nil, eris.Wrap(err, "analyzer: decode judgment")
	}
	if !j.valid() {
		return nil, eris.New("analyzer: judgment has no content")
	}
	return &j, nil
}

// cleanJSON strips markdown fences and isolates the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	for _, fence := range []string{"```json", "```"} {
		if strings.HasPrefix(text, fence) {
			text = strings.TrimPrefix(text, fence)
			if idx := strings.LastIndex(text, "```"); idx >= 0 {
				text = text[:idx]
			}
			break
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}
