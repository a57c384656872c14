package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"sigmatch/internal/config"
)

func newConfigCommand(app *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize configuration",
	}
	cmd.AddCommand(newConfigShowCommand(app), newConfigInitCommand())
	return cmd
}

func newConfigShowCommand(app *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if app.cfgExists {
				fmt.Fprintf(out, "# config file: %s\n", app.cfgPath)
			} else {
				fmt.Fprintf(out, "# no config file found, showing defaults (looked at %s)\n", app.cfgPath)
			}

			redacted := *cfg
			redacted.CRM.AccessToken = redactSecret(redacted.CRM.AccessToken)
			redacted.LLM.APIKey = redactSecret(redacted.LLM.APIKey)
			redacted.Notifications.SlackWebhookURL = redactSecret(redacted.Notifications.SlackWebhookURL)

			encoded, err := toml.Marshal(redacted)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = out.Write(encoded)
			return err
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var (
		path  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := path
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return err
				}
				target = expanded
			}

			if _, err := os.Stat(target); err == nil && !force {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", target)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("stat config: %w", err)
			}

			if err := config.CreateSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "destination path (default: user config dir)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func redactSecret(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return "<redacted>"
}
