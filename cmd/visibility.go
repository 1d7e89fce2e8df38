package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/internal/visibility"
)

var visibilityInput string

// visibilityRequest is a set of already collected answers to score.
type visibilityRequest struct {
	Brand   model.BrandContext  `json:"brand"`
	Answers []model.AuditAnswer `json:"answers"`
}

var visibilityCmd = &cobra.Command{
	Use:   "visibility",
	Short: "Build a visibility report from collected answers",
	Long:  "Reads {brand, answers} JSON from --input or stdin and prints share of voice, average rank, competitor gap and citation aggregation.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req visibilityRequest
		if err := readJSONInput(visibilityInput, &req); err != nil {
			return err
		}
		report, err := buildVisibilityReport(req)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), report)
	},
}

func buildVisibilityReport(req visibilityRequest) (*visibility.Report, error) {
	if strings.TrimSpace(req.Brand.Name) == "" {
		return nil, eris.New("brand name is required")
	}
	return visibility.BuildReport(req.Answers, req.Brand), nil
}

func init() {
	visibilityCmd.Flags().StringVar(&visibilityInput, "input", "", "path to answers JSON (default stdin)")
	rootCmd.AddCommand(visibilityCmd)
}
