package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/audit"
	"github.com/sells-group/citation-intel/internal/cost"
	"github.com/sells-group/citation-intel/internal/monitoring"
	"github.com/sells-group/citation-intel/internal/pipeline"
	anthropicpkg "github.com/sells-group/citation-intel/pkg/anthropic"
	"github.com/sells-group/citation-intel/pkg/perplexity"
)

var (
	auditBrand       brandFlags
	auditPrompts     []string
	auditPromptsFile string
	auditAnalyze     bool
	auditDeep        bool
)

// auditOutput is the audit command's printed result.
type auditOutput struct {
	*audit.Result
	Analysis *pipeline.Result `json:"analysis,omitempty"`
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Ask answer engines a prompt set and report brand visibility",
	Long:  "Queries each configured answer engine with every prompt, scores brand mentions and list rank, and prints a visibility report. With --analyze the cited URLs are fed into the citation pipeline.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("audit"); err != nil {
			return err
		}

		prompts, err := collectPrompts(auditPrompts, auditPromptsFile)
		if err != nil {
			return err
		}

		providers, err := initAuditProviders(costCalculator(cfg.Pricing))
		if err != nil {
			return err
		}

		brand := auditBrand.brand()
		res, err := audit.NewRunner(providers, cfg.Audit.Concurrency).Run(ctx, audit.Request{
			Brand:   brand,
			Prompts: prompts,
		})
		if err != nil {
			return err
		}

		out := auditOutput{Result: res}

		alerter := monitoring.NewAlerter(cfg.Monitoring)
		alerter.Notify(ctx, alerter.EvaluateAudit(brand.Name, res.Report.Summary))

		if auditAnalyze {
			citations := audit.Citations(res.Answers)
			if len(citations) == 0 {
				zap.L().Warn("audit produced no citations to analyze")
				return writeJSON(cmd.OutOrStdout(), out)
			}

			env, err := initApp(ctx, "analyze")
			if err != nil {
				return err
			}
			defer env.Close()

			out.Analysis, err = env.Pipeline.Run(ctx, pipeline.Request{
				Brand:        brand,
				Citations:    citations,
				DeepAnalysis: auditDeep,
			})
			if err != nil {
				return eris.Wrap(err, "analyze audit citations")
			}
			env.alertBatch(ctx, out.Analysis)
		}

		return writeJSON(cmd.OutOrStdout(), out)
	},
}

// initAuditProviders builds one provider per configured answer engine.
func initAuditProviders(calc *cost.Calculator) ([]audit.Provider, error) {
	var providers []audit.Provider
	for _, name := range cfg.Audit.Providers {
		switch name {
		case "perplexity":
			client := perplexity.NewClient(cfg.Perplexity.Key,
				perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
				perplexity.WithModel(cfg.Perplexity.Model))
			providers = append(providers, audit.NewPerplexity(client, cfg.Perplexity.Model, calc))
		case "claude":
			client := anthropicpkg.NewClient(cfg.Anthropic.Key)
			providers = append(providers, audit.NewClaude(client, cfg.Anthropic.AuditModel, cfg.Anthropic.MaxTokens, calc))
		default:
			return nil, eris.Errorf("unsupported audit provider: %s", name)
		}
	}
	return providers, nil
}

// collectPrompts merges --prompt values with the non-blank lines of a
// prompts file.
func collectPrompts(flagPrompts []string, path string) ([]string, error) {
	prompts := append([]string(nil), flagPrompts...)
	if path == "" {
		return prompts, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open prompts file %s", path)
	}
	defer f.Close() //nolint:errcheck

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
			prompts = append(prompts, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "read prompts file %s", path)
	}
	return prompts, nil
}

func init() {
	f := auditCmd.Flags()
	f.StringVar(&auditBrand.name, "brand", "", "tracked brand name")
	f.StringVar(&auditBrand.domain, "domain", "", "brand's own domain")
	f.StringSliceVar(&auditBrand.aliases, "aliases", nil, "alternate brand names")
	f.StringSliceVar(&auditBrand.competitors, "competitors", nil, "competitor names")
	f.StringArrayVar(&auditPrompts, "prompt", nil, "prompt to ask (repeatable)")
	f.StringVar(&auditPromptsFile, "prompts-file", "", "file with one prompt per line")
	f.BoolVar(&auditAnalyze, "analyze", false, "run cited URLs through the citation pipeline")
	f.BoolVar(&auditDeep, "deep", false, "request deep content analysis with --analyze")
	_ = auditCmd.MarkFlagRequired("brand")
	rootCmd.AddCommand(auditCmd)
}
