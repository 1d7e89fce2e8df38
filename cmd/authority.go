package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/signal"
)

var authorityFile string

var authorityCmd = &cobra.Command{
	Use:   "authority",
	Short: "Manage the domain-authority table",
}

var authorityLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a YAML domain-authority table into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		table, err := signal.LoadAuthorityTable(authorityFile)
		if err != nil {
			return err
		}
		if len(table) == 0 {
			return eris.Errorf("no domains in %s", authorityFile)
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate")
		}

		n, err := st.LoadDomainAuthorities(ctx, table)
		if err != nil {
			return err
		}
		zap.L().Info("domain authority loaded", zap.Int64("rows", n), zap.String("file", authorityFile))
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %d domains\n", n)
		return nil
	},
}

func init() {
	authorityLoadCmd.Flags().StringVar(&authorityFile, "file", "", "authority table (.yaml with a domains: map, or .csv/.xlsx with domain,score[,bucket,trusted] columns)")
	_ = authorityLoadCmd.MarkFlagRequired("file")
	authorityCmd.AddCommand(authorityLoadCmd)
	rootCmd.AddCommand(authorityCmd)
}
