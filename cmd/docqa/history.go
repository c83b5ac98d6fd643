package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/history"
)

func historyCMD(cfgPath *string) *cobra.Command {
	var limit int
	hist := &cobra.Command{
		Use:   "history",
		Short: "Show recently answered questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			store, err := history.Open(cmd.Context(), cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No answers recorded.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s  confidence=%.3f\nQ: %s\nA: %s\n\n",
					e.Result.Timestamp, e.ID, e.Result.Confidence, e.Result.Question, preview(e.Result.Answer, 300))
			}
			return nil
		},
	}
	hist.Flags().IntVarP(&limit, "limit", "n", 10, "number of entries to show")
	return hist
}
