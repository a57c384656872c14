package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sigmatch/internal/refstore"
)

func newCompaniesCommand(app *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Maintain the local company reference store",
	}
	cmd.AddCommand(newCompaniesCountCommand(app), newCompaniesAddCommand(app))
	return cmd
}

func newCompaniesCountCommand(app *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of companies in the reference store",
		Args:  cobra.NoArgs,
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

			count, err := store.CompanyCount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", count)
			return nil
		},
	}
}

func newCompaniesAddCommand(app *commandContext) *cobra.Command {
	var domain string
	cmd := &cobra.Command{
		Use:   "add <crm-id> <name>",
		Short: "Add or refresh one company in the reference store",
		Args:  cobra.ExactArgs(2),
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

			company := refstore.Company{CRMID: args[0], Name: args[1], Domain: domain}
			if err := store.UpsertCompany(cmd.Context(), company); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored company %s (%s)\n", company.Name, company.CRMID)
			return nil
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "", "company domain")
	return cmd
}
