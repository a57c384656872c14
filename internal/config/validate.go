package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for values that would make the engine
// misbehave at runtime. Credentials are not required here so read-only
// commands can run against a partially configured file.
func (c *Config) Validate() error {
	if err := c.validateCRM(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCRM() error {
	if c.CRM.BaseURL == "" {
		return errors.New("crm base_url must not be empty")
	}
	if _, err := url.ParseRequestURI(c.CRM.BaseURL); err != nil {
		return fmt.Errorf("crm base_url: %w", err)
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.ConfidenceThreshold < 0 || c.Matching.ConfidenceThreshold > 1 {
		return fmt.Errorf("matching confidence_threshold must be within [0,1], got %v", c.Matching.ConfidenceThreshold)
	}
	if c.Matching.SearchLimit > 50 {
		return fmt.Errorf("matching search_limit too large: %d", c.Matching.SearchLimit)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.SlackWebhookURL == "" {
		return nil
	}
	parsed, err := url.ParseRequestURI(c.Notifications.SlackWebhookURL)
	if err != nil {
		return fmt.Errorf("notifications slack_webhook_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("notifications slack_webhook_url: unsupported scheme %q", parsed.Scheme)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("logging level unsupported: %q", c.Logging.Level)
	}
	return nil
}
