package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docqa/internal/tui"
)

func chatCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [document]",
		Short: "Interactive question answering in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// console logging would corrupt the screen; file logging still applies
			s, err := start(cmd.Context(), *cfgPath, args, nil, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			m := tui.New(cmd.Context(), s.app.Pipeline, s.cfg.Document.Title, s.app.Pipeline.Summary())
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}
