// Package verify checks whether cited URLs resolve.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/extract"
	"github.com/sells-group/citation-intel/internal/model"
)

const (
	defaultTimeout   = 8 * time.Second
	defaultUserAgent = "Mozilla/5.0 (compatible; citation-intel/1.0)"
	maxBodyBytes     = 1 << 20
)

// Options configures a Verifier.
type Options struct {
	// Timeout bounds each existence check. Default: 8s.
	Timeout time.Duration
	UserAgent string
	// CapturePage extracts readable text from 2xx HTML responses.
	CapturePage bool
	// MaxTextChars bounds extracted text. Default: extract.DefaultMaxChars.
	MaxTextChars int
	HTTPClient   *http.Client
}

// Result is a verification outcome plus the captured page, if any.
type Result struct {
	Verification model.Verification
	Page         *extract.Page
}

// Verifier performs bounded-timeout reachability checks.
type Verifier struct {
	client *http.Client
	opts   Options
}

// New creates a Verifier with the given options.
func New(opts Options) *Verifier {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
			},
		}
	}

	return &Verifier{
		client: client,
		opts:   opts,
	}
}

// Verify checks rawURL. It never returns an error: every failure is folded
// into an unreachable Verification.
//   - timeout or network error → unreachable (cause "timeout" / "network")
//   - HTTP 404                 → fake_domain
//   - any other non-2xx        → unreachable
func (v *Verifier) Verify(ctx context.Context, rawURL string) Result {
	log := zap.L().With(zap.String("url", rawURL))

	ctx, cancel := context.WithTimeout(ctx, v.opts.Timeout)
	defer cancel()

	target := rawURL
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		log.Debug("verify: invalid url", zap.Error(err))
		return unreachable(nil, "invalid_url")
	}
	req.Header.Set("User-Agent", v.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := v.client.Do(req)
	if err != nil {
		cause := classifyError(err)
		log.Debug("verify: request failed", zap.String("cause", cause), zap.Error(err))
		return unreachable(nil, cause)
	}
	defer resp.Body.Close() //nolint:errcheck

	status := resp.StatusCode
	body := io.LimitReader(resp.Body, maxBodyBytes)

	if status == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, body)
		res := unreachable(&status, "status 404")
		res.Verification.FailureReason = model.FailureFakeDomain
		return res
	}
	if status < 200 || status > 299 {
		_, _ = io.Copy(io.Discard, body)
		return unreachable(&status, fmt.Sprintf("status %d", status))
	}

	out := Result{Verification: model.Verification{
		Reachable:  true,
		StatusCode: &status,
		CheckedAt:  time.Now().UTC(),
	}}

	contentType := resp.Header.Get("Content-Type")
	if v.opts.CapturePage && isHTML(contentType) {
		page, err := extract.HTML(body, contentType, v.opts.MaxTextChars)
		if err != nil {
			log.Debug("verify: page extraction failed", zap.Error(err))
		} else {
			out.Page = page
		}
	} else {
		_, _ = io.Copy(io.Discard, body)
	}
	return out
}

func unreachable(status *int, cause string) Result {
	return Result{Verification: model.Verification{
		Reachable:     false,
		StatusCode:    status,
		FailureReason: model.FailureUnreachable,
		Cause:         cause,
		CheckedAt:     time.Now().UTC(),
	}}
}

func classifyError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return "network"
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" || strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
