package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/citation-intel/internal/resilience"
)

// HTTPAnalyzer calls a remote analysis endpoint that accepts a Request as
// JSON and answers with a Judgment, either bare or as {"judgment": {...}}.
// {"unavailable": true} is honoured as an explicit unavailable signal.
type HTTPAnalyzer struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// HTTPOption configures an HTTPAnalyzer.
type HTTPOption func(*HTTPAnalyzer)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(a *HTTPAnalyzer) { a.http = hc }
}

// NewHTTP creates an HTTPAnalyzer.
func NewHTTP(endpoint, apiKey string, opts ...HTTPOption) *HTTPAnalyzer {
	a := &HTTPAnalyzer{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 45 * time.Second},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

type httpEnvelope struct {
	Unavailable bool      `json:"unavailable"`
	Error       string    `json:"error"`
	Judgment    *Judgment `json:"judgment"`
}

// Analyze implements Analyzer.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, req Request) (*Judgment, error) {
	if a.endpoint == "" || a.apiKey == "" {
		return nil, unavailable(eris.New("http analyzer: missing endpoint or credentials"), false)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, unavailable(eris.Wrap(err, "http analyzer: marshal request"), false)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, unavailable(eris.Wrap(err, "http analyzer: create request"), false)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.http.Do(httpReq)
	if err != nil {
		return nil, unavailable(eris.Wrap(err, "http analyzer: send request"), resilience.IsTransient(err))
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, unavailable(eris.Wrap(err, "http analyzer: read response"), true)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, unavailable(
			eris.Errorf("http analyzer: unexpected status %d", resp.StatusCode),
			resilience.IsTransientHTTPStatus(resp.StatusCode),
		)
	}

	var env httpEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, unavailable(eris.Wrap(err, "http analyzer: decode response"), false)
	}
	if env.Unavailable {
		return nil, unavailable(eris.Errorf("http analyzer: upstream unavailable: %s", env.Error), false)
	}
	if env.Judgment.valid() {
		return env.Judgment, nil
	}

	j, err := ParseJudgment(string(respBody))
	if err != nil {
		return nil, unavailable(err, false)
	}
	return j, nil
}
