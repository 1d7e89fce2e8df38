package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/citation-intel/internal/model"
)

func sub(c model.Classification) string {
	if c.Subcategory == nil {
		return ""
	}
	return *c.Subcategory
}

func TestClassify_RuleChain(t *testing.T) {
	c := New(DefaultRules())
	competitors := []string{"Bumble", "Tinder"}

	tests := []struct {
		name    string
		url     string
		domain  string
		wantCat model.Category
		wantSub string
		wantOpp model.OpportunityLevel
	}{
		{"brand owned", "https://blog.acme.com/post", "blog.acme.com", model.CategoryBrandOwned, "official", model.OpportunityEasy},
		{"wikipedia", "https://en.wikipedia.org/wiki/Acme", "en.wikipedia.org", model.CategoryWikipedia, "", model.OpportunityDifficult},
		{"google play", "https://play.google.com/store/apps/details?id=com.acme", "play.google.com", model.CategoryAppStore, StoreGooglePlay, model.OpportunityMedium},
		{"apple", "https://apps.apple.com/us/app/acme/id123", "apps.apple.com", model.CategoryAppStore, StoreAppStore, model.OpportunityMedium},
		{"competitor domain", "https://bumblehq.com/blog", "bumblehq.com", model.CategoryCompetitorBlog, "Bumble", model.OpportunityEasy},
		{"competitor in url", "https://medium.com/@x/why-tinder-wins", "medium.com", model.CategoryCompetitorBlog, "Tinder", model.OpportunityEasy},
		{"press", "https://techcrunch.com/2024/01/01/acme", "techcrunch.com", model.CategoryPressMedia, "techcrunch.com", model.OpportunityMedium},
		{"ugc", "https://www.reddit.com/r/dating/comments/abc", "www.reddit.com", model.CategoryUGC, "reddit", model.OpportunityEasy},
		{"other", "https://example.org/page", "example.org", model.CategoryOther, "", model.OpportunityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(Input{URL: tt.url, Domain: tt.domain, BrandDomain: "acme.com", Competitors: competitors})
			assert.Equal(t, tt.wantCat, got.Category)
			assert.Equal(t, tt.wantSub, sub(got))
			assert.Equal(t, tt.wantOpp, got.OpportunityLevel)
		})
	}
}

func TestClassify_BrandDomainAlwaysWins(t *testing.T) {
	c := New(DefaultRules())
	domains := []string{"acme.com", "shop.acme.com", "acme.com.au", "reddit-acme.com", "en.wikipedia.org.acme.com"}
	competitorSets := [][]string{nil, {"Acme"}, {"Reddit", "Wikipedia"}}

	for _, d := range domains {
		for _, comps := range competitorSets {
			got := c.Classify(Input{URL: "https://" + d + "/x", Domain: d, BrandDomain: "acme.com", Competitors: comps})
			assert.Equal(t, model.CategoryBrandOwned, got.Category, d)
			assert.Equal(t, "official", sub(got), d)
			assert.Equal(t, model.OpportunityEasy, got.OpportunityLevel, d)
		}
	}
}

func TestClassify_InvariantUnderSchemeAndWWW(t *testing.T) {
	c := New(DefaultRules())
	competitors := []string{"Bumble"}

	variants := []Input{
		{URL: "https://reddit.com/r/x/", Domain: "reddit.com"},
		{URL: "http://www.reddit.com/r/x", Domain: "www.reddit.com"},
		{URL: "www.reddit.com/r/x/", Domain: "https://www.reddit.com/"},
	}
	var first model.Classification
	for i, in := range variants {
		in.Competitors = competitors
		in.BrandDomain = "www.acme.com"
		got := c.Classify(in)
		if i == 0 {
			first = got
			continue
		}
		assert.Equal(t, first, got)
	}
	assert.Equal(t, model.CategoryUGC, first.Category)

	brand1 := c.Classify(Input{URL: "https://www.acme.com/", Domain: "www.acme.com", BrandDomain: "acme.com"})
	brand2 := c.Classify(Input{URL: "http://acme.com", Domain: "acme.com", BrandDomain: "https://www.acme.com/"})
	assert.Equal(t, brand1, brand2)
	assert.Equal(t, model.CategoryBrandOwned, brand1.Category)
}

func TestClassify_CompetitorNameCompaction(t *testing.T) {
	c := New(DefaultRules())
	got := c.Classify(Input{
		URL:         "https://plentyoffish.com/about",
		Domain:      "plentyoffish.com",
		Competitors: []string{"", "Plenty of Fish"},
	})
	assert.Equal(t, model.CategoryCompetitorBlog, got.Category)
	assert.Equal(t, "Plenty of Fish", sub(got))
}

func TestClassify_DomainDerivedFromURL(t *testing.T) {
	c := New(DefaultRules())
	got := c.Classify(Input{URL: "https://www.quora.com/What-is-acme"})
	assert.Equal(t, model.CategoryUGC, got.Category)
	assert.Equal(t, "quora", sub(got))
}

func TestClassify_MinimalFixtureRules(t *testing.T) {
	c := New(Rules{UGC: []UGCPlatform{{Domain: "forum.example", Platform: "example_forum"}}})

	got := c.Classify(Input{URL: "https://forum.example/t/1", Domain: "forum.example"})
	assert.Equal(t, model.CategoryUGC, got.Category)
	assert.Equal(t, "example_forum", sub(got))

	// Default lists are not consulted when replaced.
	got = c.Classify(Input{URL: "https://reddit.com/r/x", Domain: "reddit.com"})
	assert.Equal(t, model.CategoryOther, got.Category)
}

func TestCompactName(t *testing.T) {
	assert.Equal(t, "bumble", CompactName("Bumble"))
	assert.Equal(t, "plentyoffish", CompactName("Plenty of Fish"))
	assert.Equal(t, "hellobank", CompactName("Héllo-Bank!"))
	assert.Equal(t, "", CompactName(" -- "))
}

func TestNormalizeDomain(t *testing.T) {
	assert.Equal(t, "reddit.com", NormalizeDomain("https://www.Reddit.com/r/x"))
	assert.Equal(t, "acme.com", NormalizeDomain("acme.com/"))
	assert.Equal(t, "", NormalizeDomain(""))
}

func TestLoadRules_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
press_domains:
  - example-news.com
`), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"example-news.com"}, rules.PressDomains)
	assert.Equal(t, DefaultRules().UGC, rules.UGC)
}

func TestLoadRules_Missing(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}
