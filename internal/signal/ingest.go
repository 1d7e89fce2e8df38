package signal

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/metrics"
	"github.com/sells-group/citation-intel/internal/model"
)

// Store persists signals.
type Store interface {
	InsertSignal(ctx context.Context, sig *model.Signal) (bool, error)
}

// Input is one discovered content item. Freshness and relevance are scored
// upstream.
type Input struct {
	URL         string             `json:"url"`
	Title       string             `json:"title,omitempty"`
	Text        string             `json:"text,omitempty"`
	PublishedAt *time.Time         `json:"published_at,omitempty"`
	Freshness   float64            `json:"freshness"`
	Relevance   float64            `json:"relevance"`
	Brand       model.BrandContext `json:"brand"`
}

// Scorer builds and persists signals.
type Scorer struct {
	store     Store
	authority *AuthorityLookup
}

// NewScorer creates a Scorer. A nil lookup scores every domain with
// model.DefaultAuthority.
func NewScorer(st Store, authority *AuthorityLookup) *Scorer {
	if authority == nil {
		authority = NewAuthorityLookup(nil, nil)
	}
	return &Scorer{store: st, authority: authority}
}

// Build scores in without persisting it.
func (s *Scorer) Build(ctx context.Context, clientID string, in Input) (*model.Signal, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, eris.New("signal: client id is required")
	}
	normalized, domain, err := NormalizeURL(in.URL)
	if err != nil {
		return nil, err
	}

	auth := s.authority.Lookup(ctx, domain)
	body := in.Title + "\n" + in.Text

	sig := &model.Signal{
		ClientID:        clientID,
		URL:             strings.TrimSpace(in.URL),
		NormalizedURL:   normalized,
		Domain:          domain,
		Title:           in.Title,
		PublishedAt:     in.PublishedAt,
		BrandHits:       Hits(body, in.Brand.Terms()),
		CompetitorHits:  Hits(body, in.Brand.Competitors),
		Freshness:       clamp01(in.Freshness),
		Authority:       auth.Score,
		AuthorityBucket: auth.Bucket,
		Trusted:         auth.Trusted,
		Relevance:       clamp01(in.Relevance),
	}
	sig.Influence = Influence(sig.Authority, sig.Freshness, sig.Relevance)
	return sig, nil
}

// Ingest scores and inserts a signal. It reports false, with the scored
// signal, when the client already has the normalized URL.
func (s *Scorer) Ingest(ctx context.Context, clientID string, in Input) (*model.Signal, bool, error) {
	sig, err := s.Build(ctx, clientID, in)
	if err != nil {
		metrics.SignalsIngested.WithLabelValues("invalid").Inc()
		return nil, false, err
	}

	inserted, err := s.store.InsertSignal(ctx, sig)
	if err != nil {
		metrics.SignalsIngested.WithLabelValues("error").Inc()
		metrics.PersistenceFailures.WithLabelValues("insert_signal").Inc()
		return nil, false, eris.Wrapf(err, "signal: insert %s", sig.NormalizedURL)
	}

	result := "inserted"
	if !inserted {
		result = "duplicate"
	}
	metrics.SignalsIngested.WithLabelValues(result).Inc()
	zap.L().Debug("signal: ingested",
		zap.String("client_id", clientID),
		zap.String("url", sig.NormalizedURL),
		zap.String("result", result),
		zap.Float64("influence", sig.Influence),
	)
	return sig, inserted, nil
}
