// Package notion wraps the Notion API calls used to mirror recommendations
// into a Notion database.
package notion

import (
	"context"
	"errors"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/citation-intel/internal/resilience"
)

// Client defines the Notion API operations used by the recommendation sync.
type Client interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// ClientOption configures the Notion client.
type ClientOption func(*notionClient)

// WithRateLimit overrides the default 3 req/s throttle. rps <= 0 disables it.
func WithRateLimit(rps float64) ClientOption {
	return func(c *notionClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetryPolicy overrides the retry policy for 429 and 5xx responses.
func WithRetryPolicy(p resilience.RetryPolicy) ClientOption {
	return func(c *notionClient) {
		c.retry = p
	}
}

type notionClient struct {
	inner   *notionapi.Client
	limiter *rate.Limiter
	retry   resilience.RetryPolicy
}

// NewClient creates a Notion client for an integration token. Calls are
// throttled to 3 req/s and rate-limited or failed responses are retried.
func NewClient(token string, opts ...ClientOption) Client {
	retry := resilience.DefaultRetryPolicy()
	retry.OnRetry = resilience.RetryLogger("notion", "api")

	c := &notionClient{
		inner:   notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(3, 1),
		retry:   retry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *notionClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// do throttles and retries one API call.
func do[T any](ctx context.Context, c *notionClient, fn func(ctx context.Context) (T, error)) (T, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (T, error) {
		var zero T
		if err := c.wait(ctx); err != nil {
			return zero, eris.Wrap(err, "rate limit")
		}
		v, err := fn(ctx)
		if err != nil {
			return zero, markTransient(err)
		}
		return v, nil
	})
}

// markTransient marks 429 and 5xx API errors transient.
func markTransient(err error) error {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.Status) {
		return resilience.NewTransientError(err, apiErr.Status)
	}
	return err
}

func (c *notionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := do(ctx, c, func(ctx context.Context) (*notionapi.DatabaseQueryResponse, error) {
		return c.inner.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query database %s", dbID)
	}
	return resp, nil
}

func (c *notionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	page, err := do(ctx, c, func(ctx context.Context) (*notionapi.Page, error) {
		return c.inner.Page.Create(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrap(err, "notion: create page")
	}
	return page, nil
}

func (c *notionClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	page, err := do(ctx, c, func(ctx context.Context) (*notionapi.Page, error) {
		return c.inner.Page.Update(ctx, notionapi.PageID(pageID), req)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: update page %s", pageID)
	}
	return page, nil
}
