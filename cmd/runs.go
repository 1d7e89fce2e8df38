package main

import (
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect pipeline runs",
}

var runsGetCmd = &cobra.Command{
	Use:   "get <run-id>",
	Short: "Show a run's status and batch summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), run)
	},
}

func init() {
	runsCmd.AddCommand(runsGetCmd)
	rootCmd.AddCommand(runsCmd)
}
