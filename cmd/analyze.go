package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/pipeline"
)

var (
	analyzeInput string
	analyzeDeep  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a batch of citations",
	Long:  "Reads a JSON request ({brand, citations, deep_analysis}) from --input or stdin, verifies, classifies and analyzes each citation, and prints per-citation results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var req pipeline.Request
		if err := readJSONInput(analyzeInput, &req); err != nil {
			return err
		}
		if analyzeDeep {
			req.DeepAnalysis = true
		}

		env, err := initApp(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Run(ctx, req)
		if err != nil {
			return err
		}

		env.alertBatch(ctx, result)

		zap.L().Info("analysis complete",
			zap.String("run_id", result.RunID),
			zap.Int("total", result.Summary.Total),
			zap.Int("recommendations", result.Summary.Recommendations),
		)

		return writeJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "path to request JSON (default stdin)")
	analyzeCmd.Flags().BoolVar(&analyzeDeep, "deep", false, "request deep content analysis")
	rootCmd.AddCommand(analyzeCmd)
}
