package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	app := &commandContext{}
	cmd := &cobra.Command{
		Use:           "sigmatch",
		Short:         "Match CRM signals to companies",
		Long:          "sigmatch extracts organization names from CRM signal text, matches them\nagainst the local company reference store, creates associations, and\nassigns owners and watchers based on the company's business stage.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&app.configPath, "config", "", "path to config file")

	cmd.AddCommand(
		newMatchCommand(app),
		newProcessCommand(app),
		newCompaniesCommand(app),
		newAuditCommand(app),
		newConfigCommand(app),
		newTestNotifyCommand(app),
	)
	return cmd
}
