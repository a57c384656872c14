package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newTestNotifyCommand(app *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test message to the configured Slack webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config()
			if err != nil {
				return err
			}
			if !cfg.NotificationsEnabled() {
				return errors.New("no Slack webhook configured")
			}
			notifier, err := app.notifier()
			if err != nil {
				return err
			}
			if err := notifier.Test(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent.")
			return nil
		},
	}
}
