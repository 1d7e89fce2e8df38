package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/export"
	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/internal/store"
)

var (
	intelCategory string
	intelStatus   string
	intelAnswerID string
	intelLimit    int
	intelOffset   int
	intelOut      string
)

var intelligenceCmd = &cobra.Command{
	Use:     "intelligence",
	Aliases: []string{"intel"},
	Short:   "Inspect stored citation intelligence",
}

func intelligenceFilter() store.IntelligenceFilter {
	return store.IntelligenceFilter{
		Category:       model.Category(intelCategory),
		Status:         model.IntelligenceStatus(intelStatus),
		SourceAnswerID: intelAnswerID,
		Limit:          intelLimit,
		Offset:         intelOffset,
	}
}

var intelligenceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List intelligence records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := st.ListIntelligence(ctx, intelligenceFilter())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), records)
	},
}

var intelligenceGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one intelligence record and its recommendation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ci, err := st.GetIntelligence(ctx, args[0])
		if err != nil {
			return err
		}
		rec, err := st.GetRecommendation(ctx, ci.ID)
		if err != nil && !store.IsNotFound(err) {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), intelligenceDetail{CitationIntelligence: ci, Recommendation: rec})
	},
}

var intelligenceSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize stored intelligence by category and status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sum, err := st.SummarizeIntelligence(ctx, intelligenceFilter())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), sum)
	},
}

// intelligenceDetail pairs a record with its live recommendation.
type intelligenceDetail struct {
	*model.CitationIntelligence
	Recommendation *model.Recommendation `json:"recommendation,omitempty"`
}

var intelligenceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write matching intelligence and recommendations to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rows, err := export.Collect(ctx, st, intelligenceFilter())
		if err != nil {
			return err
		}

		f, err := os.Create(intelOut)
		if err != nil {
			return eris.Wrapf(err, "create %s", intelOut)
		}
		if err := export.WriteWorkbook(f, rows); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "close %s", intelOut)
		}

		zap.L().Info("intelligence exported", zap.Int("records", len(rows)), zap.String("file", intelOut))
		return nil
	},
}

// openStore validates store config and opens the backend without running
// migrations.
func openStore(cmd *cobra.Command) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	return initStore(cmd.Context())
}

func init() {
	pf := intelligenceCmd.PersistentFlags()
	pf.StringVar(&intelCategory, "category", "", "filter by category")
	pf.StringVar(&intelStatus, "status", "", "filter by status (pending, analyzing, completed, failed)")
	pf.StringVar(&intelAnswerID, "answer", "", "filter by source answer id")
	intelligenceListCmd.Flags().IntVar(&intelLimit, "limit", 100, "maximum records")
	intelligenceListCmd.Flags().IntVar(&intelOffset, "offset", 0, "records to skip")

	intelligenceExportCmd.Flags().StringVarP(&intelOut, "out", "o", "intelligence.xlsx", "output workbook path")

	intelligenceCmd.AddCommand(intelligenceListCmd, intelligenceGetCmd, intelligenceSummaryCmd, intelligenceExportCmd)
	rootCmd.AddCommand(intelligenceCmd)
}
