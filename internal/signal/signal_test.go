package signal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/internal/store"
)

func TestInfluence(t *testing.T) {
	assert.Equal(t, 0.53, Influence(0.8, 0.5, 0.2))
	assert.Equal(t, 1.0, Influence(1, 1, 1))
	assert.Equal(t, 0.0, Influence(0, 0, 0))
	assert.Equal(t, 0.4, Influence(2, -1, 0), "inputs are clamped")
	assert.Equal(t, 0.3333, Influence(0.3333, 0.3333, 0.3334))
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in         string
		wantURL    string
		wantDomain string
	}{
		{"https://www.Example.com/Post/", "example.com/Post", "example.com"},
		{"http://example.com/a#section", "example.com/a", "example.com"},
		{"example.com/a?utm_source=x&utm_Medium=y&id=3", "example.com/a?id=3", "example.com"},
		{"https://example.com/?b=2&a=1", "example.com?a=1&b=2", "example.com"},
		{"https://example.com:8443/x", "example.com:8443/x", "example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, domain, err := NormalizeURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, got)
			assert.Equal(t, tt.wantDomain, domain)
		})
	}

	_, _, err := NormalizeURL("  ")
	assert.Error(t, err)
	_, _, err = NormalizeURL("https://")
	assert.Error(t, err)
}

func TestHits(t *testing.T) {
	text := "Acme vs Rival: which dating app wins? ACME."
	assert.Equal(t, []string{"Acme"}, Hits(text, []string{"Acme", "acme", "Widgets"}))
	assert.Equal(t, []string{"Other", "Rival"}, Hits(text+" other", []string{"Rival", "Other"}))
	assert.Empty(t, Hits(text, nil))
	assert.NotNil(t, Hits(text, nil))
}

type fakeAuthorityStore struct {
	table map[string]model.Authority
	err   error
}

func (f *fakeAuthorityStore) GetDomainAuthority(_ context.Context, domain string) (*model.Authority, error) {
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.table[domain]; ok {
		return &a, nil
	}
	return nil, nil
}

func TestAuthorityLookup(t *testing.T) {
	ctx := context.Background()
	st := &fakeAuthorityStore{table: map[string]model.Authority{
		"nytimes.com": {Score: 0.95, Bucket: "high", Trusted: true},
	}}
	static := map[string]model.Authority{
		"www.nytimes.com": {Score: 0.1, Bucket: "low"},
		"medium.com":      {Score: 0.6, Bucket: "medium"},
	}
	l := NewAuthorityLookup(st, static)

	assert.Equal(t, 0.95, l.Lookup(ctx, "https://www.nytimes.com").Score, "store wins over static")
	assert.Equal(t, "medium", l.Lookup(ctx, "medium.com").Bucket)
	assert.Equal(t, model.DefaultAuthority, l.Lookup(ctx, "unknown.org"))
	assert.Equal(t, model.DefaultAuthority, l.Lookup(ctx, ""))

	failing := NewAuthorityLookup(&fakeAuthorityStore{err: errors.New("db down")}, static)
	assert.Equal(t, 0.6, failing.Lookup(ctx, "medium.com").Score)
}

func TestLoadAuthorityTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authority.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`domains:
  www.NYTimes.com: {score: 0.95, bucket: high, trusted: true}
  reddit.com:
    score: 0.7
    bucket: medium
`), 0o600))

	table, err := LoadAuthorityTable(path)
	require.NoError(t, err)
	assert.Equal(t, model.Authority{Score: 0.95, Bucket: "high", Trusted: true}, table["nytimes.com"])
	assert.Equal(t, 0.7, table["reddit.com"].Score)

	empty, err := LoadAuthorityTable("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = LoadAuthorityTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadAuthorityTable_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authority.csv")
	require.NoError(t, os.WriteFile(path, []byte(`Domain,Score,Bucket,Trusted
www.g2.com,0.85,,true
reddit.com,0.7,community,
,0.1,,
`), 0o600))

	table, err := LoadAuthorityTable(path)
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, model.Authority{Score: 0.85, Bucket: "high", Trusted: true}, table["g2.com"])
	assert.Equal(t, model.Authority{Score: 0.7, Bucket: "community"}, table["reddit.com"])
}

func TestLoadAuthorityTable_CSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"no domain column", "site,score\na.com,0.5\n", "missing domain column"},
		{"no score column", "domain,bucket\na.com,high\n", "missing score column"},
		{"score out of range", "domain,score\na.com,1.5\n", "row 2"},
		{"bad trusted", "domain,score,trusted\na.com,0.5,maybe\n", "not a boolean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "authority.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))
			_, err := LoadAuthorityTable(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBucketFor(t *testing.T) {
	assert.Equal(t, "high", bucketFor(0.8))
	assert.Equal(t, "medium", bucketFor(0.5))
	assert.Equal(t, "low", bucketFor(0.49))
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "signals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestScorer_Ingest(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := st.LoadDomainAuthorities(ctx, map[string]model.Authority{
		"techcrunch.com": {Score: 0.8, Bucket: "high", Trusted: true},
	})
	require.NoError(t, err)

	s := NewScorer(st, NewAuthorityLookup(st, nil))
	in := Input{
		URL:       "https://www.techcrunch.com/2026/acme-raises/?utm_source=feed",
		Title:     "Acme raises Series B",
		Text:      "The round puts Acme ahead of Rival.",
		Freshness: 0.5,
		Relevance: 0.2,
		Brand:     model.BrandContext{Name: "Acme", Competitors: []string{"Rival", "Widgets"}},
	}

	sig, inserted, err := s.Ingest(ctx, "client-1", in)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "techcrunch.com/2026/acme-raises", sig.NormalizedURL)
	assert.Equal(t, 0.53, sig.Influence)
	assert.Equal(t, "high", sig.AuthorityBucket)
	assert.True(t, sig.Trusted)
	assert.Equal(t, []string{"Acme"}, sig.BrandHits)
	assert.Equal(t, []string{"Rival"}, sig.CompetitorHits)

	in.URL = "http://techcrunch.com/2026/acme-raises#comments"
	_, inserted, err = s.Ingest(ctx, "client-1", in)
	require.NoError(t, err)
	assert.False(t, inserted, "same normalized url is a no-op")

	_, inserted, err = s.Ingest(ctx, "client-2", in)
	require.NoError(t, err)
	assert.True(t, inserted, "dedupe is per client")

	list, err := st.ListSignals(ctx, "client-1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestScorer_Ingest_Invalid(t *testing.T) {
	s := NewScorer(newTestStore(t), nil)

	_, _, err := s.Ingest(context.Background(), "", Input{URL: "https://a.com"})
	assert.Error(t, err)

	_, _, err = s.Ingest(context.Background(), "client", Input{})
	assert.Error(t, err)
}

func TestScorer_Build_DefaultAuthority(t *testing.T) {
	s := NewScorer(nil, nil)
	sig, err := s.Build(context.Background(), "client", Input{URL: "blog.example.org/post", Freshness: 1, Relevance: 1})
	require.NoError(t, err)
	assert.Equal(t, 0.5, sig.Authority)
	assert.Equal(t, "unknown", sig.AuthorityBucket)
	assert.False(t, sig.Trusted)
	assert.Equal(t, 0.8, sig.Influence)
}
