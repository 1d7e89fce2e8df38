package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/export"
	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/internal/store"
	"github.com/sells-group/citation-intel/pkg/notion"
)

var (
	recType     string
	recPriority string
	recOpen     bool
	recLimit    int
)

var recommendationsCmd = &cobra.Command{
	Use:     "recommendations",
	Aliases: []string{"recs"},
	Short:   "List and action recommendations",
}

var recommendationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recommendations, highest priority first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter := store.RecommendationFilter{
			Type:     model.RecommendationType(recType),
			Priority: model.Priority(recPriority),
			Limit:    recLimit,
		}
		if recOpen {
			actioned := false
			filter.Actioned = &actioned
		}

		recs, err := st.ListRecommendations(ctx, filter)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), recs)
	},
}

var recommendationsActionCmd = &cobra.Command{
	Use:   "action <id>",
	Short: "Mark a recommendation as actioned",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.MarkActioned(ctx, args[0]); err != nil {
			return err
		}
		zap.L().Info("recommendation actioned", zap.String("id", args[0]))
		fmt.Fprintf(cmd.OutOrStdout(), "recommendation %s actioned\n", args[0])
		return nil
	},
}

var recommendationsSyncNotionCmd = &cobra.Command{
	Use:   "sync-notion",
	Short: "Mirror open recommendations into Notion and pull back completed ones",
	Long:  "Creates a Notion page for every open recommendation not yet in the configured database. Pages whose Status is Done mark their recommendation actioned.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("notion"); err != nil {
			return err
		}
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		client := notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit))
		res, err := export.NewNotionSync(client, st, cfg.Notion.RecommendationDB).Sync(ctx)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	f := recommendationsListCmd.Flags()
	f.StringVar(&recType, "type", "", "filter by recommendation type")
	f.StringVar(&recPriority, "priority", "", "filter by priority (high, medium, low)")
	f.BoolVar(&recOpen, "open", false, "only recommendations not yet actioned")
	f.IntVar(&recLimit, "limit", 100, "maximum recommendations")

	recommendationsCmd.AddCommand(recommendationsListCmd, recommendationsActionCmd, recommendationsSyncNotionCmd)
	rootCmd.AddCommand(recommendationsCmd)
}
