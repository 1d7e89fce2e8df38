package jina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/citation-intel/internal/resilience"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRetryPolicy(resilience.RetryPolicy{MaxRetries: 2, InitialBackoff: time.Millisecond, Multiplier: 1}),
	)
}

func TestRead_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/https://reddit.com/r/apps", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "markdown", r.Header.Get("X-Return-Format"))
		_, _ = w.Write([]byte(`{"code":200,"data":{"title":"Best apps","url":"https://reddit.com/r/apps","content":"# Thread","usage":{"tokens":42}}}`))
	})

	resp, err := c.Read(context.Background(), "https://reddit.com/r/apps")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, "Best apps", resp.Data.Title)
	assert.Equal(t, "# Thread", resp.Data.Content)
	assert.Equal(t, 42, resp.Data.Usage.Tokens)
}

func TestRead_RetriesTransient(t *testing.T) {
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"code":200,"data":{"content":"ok"}}`))
	})

	resp, err := c.Read(context.Background(), "https://a.com")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Data.Content)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantErr      string
		wantAttempts int32
	}{
		{"client error not retried", http.StatusUnprocessableEntity, `{"error":"bad"}`, "unexpected status 422", 1},
		{"server error exhausts retries", http.StatusBadGateway, `oops`, "unexpected status 502", 3},
		{"malformed", http.StatusOK, `{`, "unmarshal response", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				attempts.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Read(context.Background(), "https://a.com")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.wantAttempts, attempts.Load())
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	hc := NewClient("").(*httpClient)
	assert.Equal(t, defaultBaseURL, hc.baseURL)
	assert.Equal(t, 2, hc.retry.MaxRetries)
	assert.NotNil(t, hc.retry.OnRetry)
}
