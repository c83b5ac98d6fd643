package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func askCMD(cfgPath *string) *cobra.Command {
	var (
		docPath string
		asJSON  bool
	)
	ask := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var docArgs []string
			if docPath != "" {
				docArgs = []string{docPath}
			}
			s, err := start(cmd.Context(), *cfgPath, docArgs, os.Stderr, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.app.Pipeline.Answer(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintln(out, res.Answer)
			fmt.Fprintf(out, "\nConfidence: %.3f\n", res.Confidence)
			for i, c := range res.Contexts {
				fmt.Fprintf(out, "\n[Chunk %d] score=%.3f source=%s\n%s\n", i+1, c.Score, c.Source, preview(c.Text, 300))
			}
			return nil
		},
	}
	ask.Flags().StringVarP(&docPath, "document", "d", "", "document to load (overrides document.path)")
	ask.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return ask
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
