// Package cost prices answer-provider calls made during visibility audits.
package cost

import "math"

// Rates holds per-provider pricing configuration.
type Rates struct {
	Anthropic  map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityRate       `yaml:"perplexity" mapstructure:"perplexity"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// PerplexityRate holds Perplexity pricing: a per-request search fee plus
// per-model token rates.
type PerplexityRate struct {
	PerQuery float64              `yaml:"per_query" mapstructure:"per_query"`
	Models   map[string]ModelRate `yaml:"models" mapstructure:"models"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Claude returns the cost of a Claude call. Unknown models cost 0.
func (c *Calculator) Claude(model string, input, output int) float64 {
	rate, ok := c.rates.Anthropic[model]
	if !ok {
		return 0
	}
	return round6(tokens(input, rate.Input) + tokens(output, rate.Output))
}

// Perplexity returns the per-query fee plus token cost for model.
func (c *Calculator) Perplexity(model string, input, output int) float64 {
	total := c.rates.Perplexity.PerQuery
	if rate, ok := c.rates.Perplexity.Models[model]; ok {
		total += tokens(input, rate.Input) + tokens(output, rate.Output)
	}
	return round6(total)
}

func tokens(n int, perMillion float64) float64 {
	return float64(n) / 1e6 * perMillion
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 1.00, Output: 5.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
			"claude-opus-4-6":            {Input: 15.00, Output: 75.00},
		},
		Perplexity: PerplexityRate{
			PerQuery: 0.005,
			Models: map[string]ModelRate{
				"sonar":     {Input: 1.00, Output: 1.00},
				"sonar-pro": {Input: 3.00, Output: 15.00},
			},
		},
	}
}
