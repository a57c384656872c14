package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newAuditCommand(app *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "audit <signal-id>",
		Short: "Show the match history recorded for a signal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			store, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.AuditBySignal(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No audit entries for signal %s\n", args[0])
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				created := "no"
				if entry.Created {
					created = "yes"
				}
				rows = append(rows, []string{
					entry.CreatedAt.Format(time.RFC3339),
					entry.CompanyID,
					entry.Kind,
					fmt.Sprintf("%.2f", entry.Confidence),
					created,
					entry.RequestID,
				})
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"When", "Company", "Kind", "Confidence", "Created", "Request"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit audit entries as JSON")
	return cmd
}
