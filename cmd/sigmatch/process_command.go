package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sigmatch/internal/match"
)

func newProcessCommand(app *commandContext) *cobra.Command {
	var (
		limit   int
		workers int
	)
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Match every unassociated signal in the CRM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Processing.SignalLimit
			}
			if !cmd.Flags().Changed("workers") {
				workers = cfg.Processing.Workers
			}

			engine, store, crmClient, err := app.matcher(cmd.Context(), match.Options{
				ConfidenceThreshold: cfg.Matching.ConfidenceThreshold,
			})
			if err != nil {
				return err
			}
			defer store.Close()

			processor := match.NewProcessor(engine, crmClient, app.logger(), workers)
			summary, err := processor.Run(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed:    %d\n", summary.Processed)
			fmt.Fprintf(out, "Matched:      %d\n", summary.Matched)
			fmt.Fprintf(out, "Associations: %d\n", summary.Associations)
			fmt.Fprintf(out, "Errors:       %d\n", summary.Errors)

			if summary.Processed > 0 && summary.Errors == summary.Processed {
				return errors.New("every signal failed to process")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum signals to process (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (default from config)")
	return cmd
}
