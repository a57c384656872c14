package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sigmatch/internal/match"
)

// errNoMatches maps to exit code 2 in main.
var errNoMatches = errors.New("no matches found")

func newMatchCommand(app *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		dryRun     bool
		threshold  float64
	)
	cmd := &cobra.Command{
		Use:   "match <signal-id>",
		Short: "Match one signal to companies and create associations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config()
			if err != nil {
				return err
			}
			opts := match.Options{
				ConfidenceThreshold: cfg.Matching.ConfidenceThreshold,
				DryRun:              dryRun,
			}
			if cmd.Flags().Changed("threshold") {
				if threshold < 0 || threshold > 1 {
					return fmt.Errorf("threshold must be between 0 and 1, got %v", threshold)
				}
				opts.ConfidenceThreshold = threshold
			}
			if dryRun {
				// Dry runs surface every search hit.
				opts.ConfidenceThreshold = 0
			}

			engine, store, _, err := app.matcher(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer store.Close()

			outcome := engine.MatchSignal(cmd.Context(), args[0])
			if jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), outcome); err != nil {
					return err
				}
			} else {
				printOutcome(cmd, outcome, dryRun)
			}
			if outcome.Error != "" {
				return errors.New(outcome.Error)
			}
			if !outcome.Matched() {
				return errNoMatches
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit the outcome as JSON")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show every candidate without writing to the CRM")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "override the confidence threshold")
	return cmd
}

func printOutcome(cmd *cobra.Command, outcome *match.Outcome, dryRun bool) {
	out := cmd.OutOrStdout()
	if outcome.Error != "" {
		fmt.Fprintf(out, "Signal %s failed: %s\n", outcome.SignalID, outcome.Error)
		return
	}
	if len(outcome.ExtractedNames) > 0 {
		fmt.Fprintf(out, "Extracted names: %s\n", strings.Join(outcome.ExtractedNames, ", "))
	}
	if outcome.TotalMatches == 0 {
		fmt.Fprintf(out, "No matches for signal %s\n", outcome.SignalID)
		return
	}

	rows := make([][]string, 0, len(outcome.Candidates))
	for _, candidate := range outcome.Candidates {
		linked := "no"
		if candidate.LinkCreated {
			linked = "yes"
		}
		rows = append(rows, []string{
			candidate.CRMID,
			candidate.Name,
			fmt.Sprintf("%.2f", candidate.Similarity),
			stageLabel(candidate.Stage),
			linked,
		})
	}
	renderTable(out, []string{"CRM ID", "Company", "Score", "Stage", "Linked"}, rows)

	best := outcome.Authoritative
	fmt.Fprintf(out, "\nBest match: %s (%s, %.2f)\n", best.Name, stageLabel(best.Stage), best.Similarity)
	if best.OwnerName != "" {
		fmt.Fprintf(out, "Owner: %s\n", best.OwnerName)
	}
	if len(best.WatcherNames) > 0 {
		fmt.Fprintf(out, "Shared with: %s\n", strings.Join(best.WatcherNames, ", "))
	}
	if dryRun {
		fmt.Fprintln(out, "Dry run: no associations or assignments were written.")
	} else {
		fmt.Fprintf(out, "Associations created: %d\n", outcome.AssociationsCreated)
	}
}

func stageLabel(stage match.Stage) string {
	if stage == match.StageUnknown {
		return "unranked"
	}
	return string(stage)
}
