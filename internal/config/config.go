package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Analyzer   AnalyzerConfig   `yaml:"analyzer" mapstructure:"analyzer"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Verify     VerifyConfig     `yaml:"verify" mapstructure:"verify"`
	Capture    CaptureConfig    `yaml:"capture" mapstructure:"capture"`
	Classify   ClassifyConfig   `yaml:"classify" mapstructure:"classify"`
	Signal     SignalConfig     `yaml:"signal" mapstructure:"signal"`
	Audit      AuditConfig      `yaml:"audit" mapstructure:"audit"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	AnalyzerModel string `yaml:"analyzer_model" mapstructure:"analyzer_model"`
	AuditModel    string `yaml:"audit_model" mapstructure:"audit_model"`
	MaxTokens     int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnalyzerConfig selects and tunes the deep-content analyzer.
// Provider is "claude", "http" or "none".
type AnalyzerConfig struct {
	Provider         string `yaml:"provider" mapstructure:"provider"`
	Endpoint         string `yaml:"endpoint" mapstructure:"endpoint"`
	Key              string `yaml:"key" mapstructure:"key"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries       int    `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffMs        int    `yaml:"backoff_ms" mapstructure:"backoff_ms"`
	BreakerThreshold int    `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownS int    `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// PipelineConfig configures batch processing.
type PipelineConfig struct {
	Concurrency       int `yaml:"concurrency" mapstructure:"concurrency"`
	MaxBatch          int `yaml:"max_batch" mapstructure:"max_batch"`
	MaxBatchDeep      int `yaml:"max_batch_deep" mapstructure:"max_batch_deep"`
	AnalyzeDelayMinMs int `yaml:"analyze_delay_min_ms" mapstructure:"analyze_delay_min_ms"`
	AnalyzeDelayMaxMs int `yaml:"analyze_delay_max_ms" mapstructure:"analyze_delay_max_ms"`
}

// VerifyConfig configures reachability checks.
type VerifyConfig struct {
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DelayMs      int    `yaml:"delay_ms" mapstructure:"delay_ms"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	CapturePage  bool   `yaml:"capture_page" mapstructure:"capture_page"`
	MaxTextChars int    `yaml:"max_text_chars" mapstructure:"max_text_chars"`
}

// CaptureConfig configures the hosted readers used when a reachable page
// yields no readable text. Each reader is enabled by its key.
type CaptureConfig struct {
	JinaKey          string `yaml:"jina_key" mapstructure:"jina_key"`
	JinaBaseURL      string `yaml:"jina_base_url" mapstructure:"jina_base_url"`
	FirecrawlKey     string `yaml:"firecrawl_key" mapstructure:"firecrawl_key"`
	FirecrawlBaseURL string `yaml:"firecrawl_base_url" mapstructure:"firecrawl_base_url"`
}

// Enabled reports whether any reader is configured.
func (c CaptureConfig) Enabled() bool {
	return c.JinaKey != "" || c.FirecrawlKey != ""
}

// ClassifyConfig points at an optional rules override file.
type ClassifyConfig struct {
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// SignalConfig points at an optional static authority table.
type SignalConfig struct {
	AuthorityPath string `yaml:"authority_path" mapstructure:"authority_path"`
}

// AuditConfig configures visibility audits. Providers lists the answer
// engines to query: "perplexity", "claude".
type AuditConfig struct {
	Providers   []string `yaml:"providers" mapstructure:"providers"`
	Concurrency int      `yaml:"concurrency" mapstructure:"concurrency"`
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	Anthropic  map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityPricing       `yaml:"perplexity" mapstructure:"perplexity"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// PerplexityPricing holds Perplexity pricing.
type PerplexityPricing struct {
	PerQuery float64                 `yaml:"per_query" mapstructure:"per_query"`
	Models   map[string]ModelPricing `yaml:"models" mapstructure:"models"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// MonitoringConfig configures batch and audit alerting. A zero threshold
// disables its check; an empty WebhookURL only logs alerts.
type MonitoringConfig struct {
	WebhookURL                 string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold       float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	HallucinationRateThreshold float64 `yaml:"hallucination_rate_threshold" mapstructure:"hallucination_rate_threshold"`
	CostThresholdUSD           float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"`
	MinShareOfVoice            int     `yaml:"min_share_of_voice" mapstructure:"min_share_of_voice"`
}

// NotionConfig points the recommendation sync at a Notion database.
type NotionConfig struct {
	Token            string  `yaml:"token" mapstructure:"token"`
	RecommendationDB string  `yaml:"recommendation_db" mapstructure:"recommendation_db"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CITATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "citation-intel.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.analyzer_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.audit_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("perplexity.key", "")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("analyzer.provider", "claude")
	v.SetDefault("analyzer.endpoint", "")
	v.SetDefault("analyzer.key", "")
	v.SetDefault("analyzer.timeout_secs", 30)
	v.SetDefault("analyzer.max_retries", 2)
	v.SetDefault("analyzer.backoff_ms", 1000)
	v.SetDefault("analyzer.breaker_threshold", 5)
	v.SetDefault("analyzer.breaker_cooldown_secs", 60)
	v.SetDefault("pipeline.concurrency", 1)
	v.SetDefault("pipeline.max_batch", 35)
	v.SetDefault("pipeline.max_batch_deep", 20)
	v.SetDefault("pipeline.analyze_delay_min_ms", 200)
	v.SetDefault("pipeline.analyze_delay_max_ms", 1000)
	v.SetDefault("verify.timeout_secs", 8)
	v.SetDefault("verify.delay_ms", 200)
	v.SetDefault("verify.capture_page", true)
	v.SetDefault("verify.max_text_chars", 8000)
	v.SetDefault("capture.jina_key", "")
	v.SetDefault("capture.jina_base_url", "https://r.jina.ai")
	v.SetDefault("capture.firecrawl_key", "")
	v.SetDefault("capture.firecrawl_base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("classify.rules_path", "")
	v.SetDefault("signal.authority_path", "")
	v.SetDefault("audit.providers", []string{"perplexity"})
	v.SetDefault("audit.concurrency", 3)
	v.SetDefault("pricing.perplexity.per_query", 0.005)
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.recommendation_db", "")
	v.SetDefault("notion.rate_limit", 3)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.hallucination_rate_threshold", 0.5)
	v.SetDefault("monitoring.cost_threshold_usd", 0)
	v.SetDefault("monitoring.min_share_of_voice", 0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "store",
// "analyze", "audit", "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}

	switch mode {
	case "store":
	case "notion":
		if c.Notion.Token == "" {
			problems = append(problems, "notion.token is required")
		}
		if c.Notion.RecommendationDB == "" {
			problems = append(problems, "notion.recommendation_db is required")
		}
	case "analyze", "serve":
		if c.Pipeline.Concurrency < 1 || c.Pipeline.Concurrency > 20 {
			problems = append(problems, "pipeline.concurrency must be between 1 and 20")
		}
		switch c.Analyzer.Provider {
		case "", "none", "claude":
		case "http":
			if c.Analyzer.Endpoint == "" {
				problems = append(problems, "analyzer.endpoint is required for the http analyzer")
			}
		default:
			problems = append(problems, "analyzer.provider must be claude, http or none")
		}
		if c.Pipeline.AnalyzeDelayMaxMs < c.Pipeline.AnalyzeDelayMinMs {
			problems = append(problems, "pipeline.analyze_delay_max_ms must be >= analyze_delay_min_ms")
		}
		if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
	case "audit":
		if len(c.Audit.Providers) == 0 {
			problems = append(problems, "audit.providers must list at least one provider")
		}
		for _, p := range c.Audit.Providers {
			switch p {
			case "perplexity":
				if c.Perplexity.Key == "" {
					problems = append(problems, "perplexity.key is required for the perplexity audit provider")
				}
			case "claude":
				if c.Anthropic.Key == "" {
					problems = append(problems, "anthropic.key is required for the claude audit provider")
				}
			default:
				problems = append(problems, "unknown audit provider "+p)
			}
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// AnalyzeDelays returns the post-analysis pause range.
func (c PipelineConfig) AnalyzeDelays() (time.Duration, time.Duration) {
	return time.Duration(c.AnalyzeDelayMinMs) * time.Millisecond,
		time.Duration(c.AnalyzeDelayMaxMs) * time.Millisecond
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
