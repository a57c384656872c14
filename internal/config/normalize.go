package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCRM()
	c.normalizeLLM()
	c.normalizeMatching()
	c.normalizeNotifications()
	c.normalizeLogging()
	c.normalizeProcessing()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Store.Path, err = expandPath(strings.TrimSpace(c.Store.Path)); err != nil {
		return fmt.Errorf("store path: %w", err)
	}
	if dir := strings.TrimSpace(c.Logging.Dir); dir != "" {
		if c.Logging.Dir, err = expandPath(dir); err != nil {
			return fmt.Errorf("log dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeCRM() {
	c.CRM.BaseURL = strings.TrimRight(strings.TrimSpace(c.CRM.BaseURL), "/")
	c.CRM.AccessToken = strings.TrimSpace(c.CRM.AccessToken)
	c.CRM.SignalObject = strings.TrimSpace(c.CRM.SignalObject)
	if c.CRM.SignalObject == "" {
		c.CRM.SignalObject = defaultSignalObject
	}
	if c.CRM.AssociationTypeID <= 0 {
		c.CRM.AssociationTypeID = defaultAssociationTypeID
	}
	if c.CRM.RequestTimeout <= 0 {
		c.CRM.RequestTimeout = defaultCRMRequestTimeout
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.RequestsPerMinute <= 0 {
		c.LLM.RequestsPerMinute = defaultRequestsPerMinute
	}
}

func (c *Config) normalizeMatching() {
	if c.Matching.SearchLimit <= 0 {
		c.Matching.SearchLimit = defaultSearchLimit
	}
	if c.Matching.ExtractCharBudget <= 0 {
		c.Matching.ExtractCharBudget = defaultExtractCharBudget
	}
	stages := make([]string, 0, len(c.Matching.CustomerStages))
	for _, stage := range c.Matching.CustomerStages {
		stage = strings.ToLower(strings.TrimSpace(stage))
		if stage != "" {
			stages = append(stages, stage)
		}
	}
	if len(stages) == 0 {
		stages = []string{"customer", "closedwon"}
	}
	c.Matching.CustomerStages = stages
}

func (c *Config) normalizeNotifications() {
	c.Notifications.SlackWebhookURL = strings.TrimSpace(c.Notifications.SlackWebhookURL)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeProcessing() {
	if c.Processing.Workers <= 0 {
		c.Processing.Workers = defaultWorkers
	}
	if c.Processing.SignalLimit <= 0 {
		c.Processing.SignalLimit = defaultSignalLimit
	}
}
