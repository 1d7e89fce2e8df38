package classify

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// App store identifiers used as app_store subcategories.
const (
	StoreGooglePlay = "google_play"
	StoreAppStore   = "app_store"
	StoreOther      = "other_store"
)

// AppStorePattern maps a URL fragment to a store subcategory.
type AppStorePattern struct {
	Pattern string `yaml:"pattern"`
	Store   string `yaml:"store"`
}

// UGCPlatform maps a domain fragment to a user-generated-content platform.
type UGCPlatform struct {
	Domain   string `yaml:"domain"`
	Platform string `yaml:"platform"`
}

// Rules holds the ordered, swappable lists the classifier matches against.
// Order within each list is significant: the first matching entry wins.
type Rules struct {
	AppStores    []AppStorePattern `yaml:"app_stores"`
	PressDomains []string          `yaml:"press_domains"`
	UGC          []UGCPlatform     `yaml:"ugc"`
}

// DefaultRules returns the built-in rule lists.
func DefaultRules() Rules {
	return Rules{
		AppStores: []AppStorePattern{
			{Pattern: "play.google.com", Store: StoreGooglePlay},
			{Pattern: "apps.apple.com", Store: StoreAppStore},
			{Pattern: "itunes.apple.com", Store: StoreAppStore},
			{Pattern: "apps.microsoft.com", Store: StoreOther},
			{Pattern: "microsoft.com/store", Store: StoreOther},
			{Pattern: "amazon.com/gp/mas", Store: StoreOther},
			{Pattern: "galaxystore.samsung.com", Store: StoreOther},
			{Pattern: "appgallery.huawei.com", Store: StoreOther},
		},
		PressDomains: []string{
			"techcrunch.com", "forbes.com", "nytimes.com", "theverge.com",
			"wired.com", "bloomberg.com", "reuters.com", "cnbc.com",
			"bbc.com", "bbc.co.uk", "theguardian.com", "businessinsider.com",
			"wsj.com", "washingtonpost.com", "cnn.com", "venturebeat.com",
			"engadget.com", "mashable.com", "zdnet.com", "fastcompany.com",
			"inc.com", "entrepreneur.com", "huffpost.com", "vox.com",
			"axios.com", "time.com", "usatoday.com", "independent.co.uk",
		},
		UGC: []UGCPlatform{
			{Domain: "reddit.com", Platform: "reddit"},
			{Domain: "quora.com", Platform: "quora"},
			{Domain: "news.ycombinator.com", Platform: "hackernews"},
			{Domain: "stackoverflow.com", Platform: "stackoverflow"},
			{Domain: "stackexchange.com", Platform: "stackexchange"},
			{Domain: "youtube.com", Platform: "youtube"},
			{Domain: "medium.com", Platform: "medium"},
			{Domain: "twitter.com", Platform: "twitter"},
			{Domain: "linkedin.com", Platform: "linkedin"},
			{Domain: "facebook.com", Platform: "facebook"},
			{Domain: "tiktok.com", Platform: "tiktok"},
			{Domain: "trustpilot.com", Platform: "trustpilot"},
			{Domain: "g2.com", Platform: "g2"},
			{Domain: "producthunt.com", Platform: "producthunt"},
			{Domain: "tripadvisor.com", Platform: "tripadvisor"},
			{Domain: "yelp.com", Platform: "yelp"},
		},
	}
}

// LoadRules reads rule lists from a YAML file. Lists absent from the file
// keep their defaults, so a file may override only what it needs.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, eris.Wrapf(err, "classify: read rules %s", path)
	}

	var override Rules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Rules{}, eris.Wrapf(err, "classify: parse rules %s", path)
	}

	if len(override.AppStores) > 0 {
		rules.AppStores = override.AppStores
	}
	if len(override.PressDomains) > 0 {
		rules.PressDomains = override.PressDomains
	}
	if len(override.UGC) > 0 {
		rules.UGC = override.UGC
	}
	return rules, nil
}
