package signal

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/citation-intel/internal/classify"
	"github.com/sells-group/citation-intel/internal/fetcher"
	"github.com/sells-group/citation-intel/internal/model"
)

// AuthorityStore is the persisted domain-authority table.
type AuthorityStore interface {
	GetDomainAuthority(ctx context.Context, domain string) (*model.Authority, error)
}

// AuthorityLookup resolves a domain's authority from the store first, then
// a static table, then model.DefaultAuthority.
type AuthorityLookup struct {
	store  AuthorityStore
	static map[string]model.Authority
}

// NewAuthorityLookup creates a lookup. Either source may be nil.
func NewAuthorityLookup(st AuthorityStore, static map[string]model.Authority) *AuthorityLookup {
	norm := make(map[string]model.Authority, len(static))
	for d, a := range static {
		norm[classify.NormalizeDomain(d)] = a
	}
	return &AuthorityLookup{store: st, static: norm}
}

// Lookup never fails: store errors are logged and the static table is
// consulted instead.
func (l *AuthorityLookup) Lookup(ctx context.Context, domain string) model.Authority {
	domain = classify.NormalizeDomain(domain)
	if domain == "" {
		return model.DefaultAuthority
	}
	if l.store != nil {
		a, err := l.store.GetDomainAuthority(ctx, domain)
		if err != nil {
			zap.L().Warn("signal: authority lookup failed", zap.String("domain", domain), zap.Error(err))
		} else if a != nil {
			return *a
		}
	}
	if a, ok := l.static[domain]; ok {
		return a
	}
	return model.DefaultAuthority
}

// authorityFile is the YAML layout of a static authority table:
//
//	domains:
//	  nytimes.com: {score: 0.95, bucket: high, trusted: true}
type authorityFile struct {
	Domains map[string]model.Authority `yaml:"domains"`
}

// LoadAuthorityTable reads a static domain-authority table. YAML files use
// the authorityFile layout; .csv and .xlsx files need a header row naming
// at least "domain" and "score" columns, with optional "bucket" and
// "trusted". An empty path yields an empty table.
func LoadAuthorityTable(path string) (map[string]model.Authority, error) {
	if path == "" {
		return map[string]model.Authority{}, nil
	}

	var raw map[string]model.Authority
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		rows, err := fetcher.ReadRows(context.Background(), path)
		if err != nil {
			return nil, eris.Wrapf(err, "signal: read authority table %s", path)
		}
		raw, err = authorityFromRows(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "signal: parse authority table %s", path)
		}
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "signal: read authority table %s", path)
		}
		var f authorityFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, eris.Wrapf(err, "signal: parse authority table %s", path)
		}
		raw = f.Domains
	}

	out := make(map[string]model.Authority, len(raw))
	for d, a := range raw {
		if d = classify.NormalizeDomain(d); d != "" {
			out[d] = a
		}
	}
	return out, nil
}

func authorityFromRows(rows [][]string) (map[string]model.Authority, error) {
	if len(rows) == 0 {
		return map[string]model.Authority{}, nil
	}

	col := make(map[string]int)
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	domainCol, ok := col["domain"]
	if !ok {
		return nil, eris.New("missing domain column")
	}
	scoreCol, ok := col["score"]
	if !ok {
		return nil, eris.New("missing score column")
	}
	cell := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	out := make(map[string]model.Authority, len(rows)-1)
	for n, row := range rows[1:] {
		if domainCol >= len(row) || row[domainCol] == "" {
			continue
		}
		if scoreCol >= len(row) {
			return nil, eris.Errorf("row %d: missing score", n+2)
		}
		score, err := strconv.ParseFloat(row[scoreCol], 64)
		if err != nil || score < 0 || score > 1 {
			return nil, eris.Errorf("row %d: score %q must be a number in [0,1]", n+2, row[scoreCol])
		}
		a := model.Authority{Score: score, Bucket: cell(row, "bucket")}
		if a.Bucket == "" {
			a.Bucket = bucketFor(score)
		}
		if t := cell(row, "trusted"); t != "" {
			a.Trusted, err = strconv.ParseBool(t)
			if err != nil {
				return nil, eris.Errorf("row %d: trusted %q is not a boolean", n+2, t)
			}
		}
		out[row[domainCol]] = a
	}
	return out, nil
}

// bucketFor names a score band when the table leaves bucket blank.
func bucketFor(score float64) string {
	switch {
	case score >= 0.8:
		return "high"
	case score >= 0.5:
		return "medium"
	default:
		return "low"
	}
}
