package perplexity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/citation-intel/internal/resilience"
)

func fastRetry() Option {
	return WithRetryPolicy(resilience.RetryPolicy{
		MaxRetries:     maxRetryAttempts - 1,
		InitialBackoff: time.Millisecond,
		Multiplier:     1,
	})
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("test-key", append([]Option{WithBaseURL(srv.URL), fastRetry()}, opts...)...)
}

func ask(ctx context.Context, c Client) (*ChatCompletionResponse, error) {
	return c.ChatCompletion(ctx, ChatCompletionRequest{
		Messages: []Message{{Role: "user", Content: "best dating app for professionals?"}},
	})
}

func TestChatCompletion(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantErr      string
		wantAttempts int32
		wantCites    []string
	}{
		{
			name:   "success with citations",
			status: http.StatusOK,
			body: `{
				"id": "cmpl-1",
				"model": "sonar",
				"choices": [{"index": 0, "message": {"role": "assistant", "content": "1. Acme [1]"}}],
				"citations": ["https://acme.com", "https://reddit.com/r/dating"],
				"usage": {"prompt_tokens": 12, "completion_tokens": 40}
			}`,
			wantAttempts: 1,
			wantCites:    []string{"https://acme.com", "https://reddit.com/r/dating"},
		},
		{
			name:         "bad request not retried",
			status:       http.StatusBadRequest,
			body:         `{"error":"bad request"}`,
			wantErr:      "unexpected status 400",
			wantAttempts: 1,
		},
		{
			name:         "server error exhausts retries",
			status:       http.StatusBadGateway,
			body:         `{"error":"upstream"}`,
			wantErr:      "unexpected status 502",
			wantAttempts: maxRetryAttempts,
		},
		{
			name:         "malformed response",
			status:       http.StatusOK,
			body:         `{invalid json`,
			wantErr:      "unmarshal response",
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			resp, err := ask(context.Background(), c)
			assert.Equal(t, tt.wantAttempts, attempts.Load())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "1. Acme [1]", resp.Text())
			assert.Equal(t, tt.wantCites, resp.SourceURLs())
			assert.Equal(t, 40, resp.Usage.CompletionTokens)
		})
	}
}

func TestChatCompletion_Model(t *testing.T) {
	var got []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		got = append(got, req.Model)
		_, _ = w.Write([]byte(`{"id":"1","choices":[],"usage":{}}`))
	}, WithModel("sonar-pro"))

	_, err := ask(context.Background(), c)
	require.NoError(t, err)
	_, err = c.ChatCompletion(context.Background(), ChatCompletionRequest{Model: "sonar-reasoning"})
	require.NoError(t, err)

	assert.Equal(t, []string{"sonar-pro", "sonar-reasoning"}, got)
}

func TestChatCompletion_RetriesRateLimit(t *testing.T) {
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":"ok","choices":[{"index":0,"message":{"role":"assistant","content":"recovered"}}],"usage":{}}`))
	})

	resp, err := ask(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Text())
	assert.Equal(t, int32(2), attempts.Load())
}

func TestChatCompletion_CanceledContext(t *testing.T) {
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ask(ctx, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send request")
	assert.Equal(t, int32(0), attempts.Load())
}

func TestSourceURLs(t *testing.T) {
	resp := &ChatCompletionResponse{SearchResults: []SearchResult{
		{Title: "A", URL: "https://a.com"},
		{Title: "dup", URL: "https://a.com"},
		{Title: "blank"},
		{Title: "B", URL: "https://b.com"},
	}}
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, resp.SourceURLs())

	resp.Citations = []string{"https://c.com"}
	assert.Equal(t, []string{"https://c.com"}, resp.SourceURLs())

	var nilResp *ChatCompletionResponse
	assert.Nil(t, nilResp.SourceURLs())
	assert.Empty(t, nilResp.Text())
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()
	hc := NewClient("my-key").(*httpClient)
	assert.Equal(t, "my-key", hc.apiKey)
	assert.Equal(t, defaultBaseURL, hc.baseURL)
	assert.Equal(t, defaultModel, hc.model)
	assert.Equal(t, maxRetryAttempts-1, hc.retry.MaxRetries)
	assert.NotNil(t, hc.http.Transport)

	custom := &http.Client{}
	assert.Same(t, custom, NewClient("k", WithHTTPClient(custom)).(*httpClient).http)
}
