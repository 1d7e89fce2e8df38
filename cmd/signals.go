package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/internal/signal"
)

var (
	signalsClient string
	signalsInput  string
	signalsLimit  int
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Ingest and list scored content signals",
}

// ingestOutcome reports one item of a signals ingest batch.
type ingestOutcome struct {
	URL       string        `json:"url"`
	Inserted  bool          `json:"inserted"`
	Duplicate bool          `json:"duplicate"`
	Signal    *model.Signal `json:"signal,omitempty"`
	Error     string        `json:"error,omitempty"`
}

var signalsIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Score and store discovered content items",
	Long:  "Reads a JSON array of items ({url, title, text, published_at, freshness, relevance, brand}) from --input or stdin.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var items []signal.Input
		if err := readJSONInput(signalsInput, &items); err != nil {
			return err
		}

		env, err := initApp(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		out := ingestSignals(ctx, env.Signals, signalsClient, items)
		return writeJSON(cmd.OutOrStdout(), out)
	},
}

func ingestSignals(ctx context.Context, sc *signal.Scorer, clientID string, items []signal.Input) []ingestOutcome {
	out := make([]ingestOutcome, 0, len(items))
	var inserted int
	for _, in := range items {
		o := ingestOutcome{URL: in.URL}
		sig, ok, err := sc.Ingest(ctx, clientID, in)
		switch {
		case err != nil:
			o.Error = err.Error()
		case ok:
			o.Inserted = true
			o.Signal = sig
			inserted++
		default:
			o.Duplicate = true
			o.Signal = sig
		}
		out = append(out, o)
	}
	zap.L().Info("signals ingested",
		zap.String("client_id", clientID),
		zap.Int("items", len(items)),
		zap.Int("inserted", inserted),
	)
	return out
}

var signalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored signals for a client, highest influence first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sigs, err := st.ListSignals(ctx, signalsClient, signalsLimit)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), sigs)
	},
}

func init() {
	signalsCmd.PersistentFlags().StringVar(&signalsClient, "client", "", "client id the signals belong to")
	_ = signalsCmd.MarkPersistentFlagRequired("client")
	signalsIngestCmd.Flags().StringVar(&signalsInput, "input", "", "path to items JSON (default stdin)")
	signalsListCmd.Flags().IntVar(&signalsLimit, "limit", 50, "maximum signals to list")

	signalsCmd.AddCommand(signalsIngestCmd, signalsListCmd)
	rootCmd.AddCommand(signalsCmd)
}
