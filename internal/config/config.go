package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// CRM contains connection settings for the CRM REST API.
type CRM struct {
	BaseURL           string `toml:"base_url"`
	AccessToken       string `toml:"access_token"`
	SignalObject      string `toml:"signal_object"`
	AssociationTypeID int    `toml:"association_type_id"`
	RequestTimeout    int    `toml:"request_timeout"`
}

// Store contains settings for the local company reference store.
type Store struct {
	Path string `toml:"path"`
}

// LLM contains connection settings for the name-extraction provider.
type LLM struct {
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	Model             string `toml:"model"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// Matching contains thresholds and limits for candidate scoring.
type Matching struct {
	ConfidenceThreshold float64  `toml:"confidence_threshold"`
	SearchLimit         int      `toml:"search_limit"`
	ExtractCharBudget   int      `toml:"extract_char_budget"`
	CustomerStages      []string `toml:"customer_stages"`
}

// Notifications contains Slack webhook settings. An empty webhook URL
// disables notifications entirely.
type Notifications struct {
	SlackWebhookURL string `toml:"slack_webhook_url"`
	RequestTimeout  int    `toml:"request_timeout"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"log_dir"`
}

// Processing contains bulk-run settings.
type Processing struct {
	Workers     int `toml:"workers"`
	SignalLimit int `toml:"signal_limit"`
}

// Config encapsulates all configuration values for sigmatch.
//
// Sections by subsystem:
//   - CRM: REST API connection and association type
//   - Store: local sqlite reference store path
//   - LLM: name-extraction provider connection and rate limit
//   - Matching: confidence threshold, search cap, customer stage set
//   - Notifications: Slack webhook
//   - Logging: format, level, log directory
//   - Processing: bulk worker pool and signal listing limit
type Config struct {
	CRM           CRM           `toml:"crm"`
	Store         Store         `toml:"store"`
	LLM           LLM           `toml:"llm"`
	Matching      Matching      `toml:"matching"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Processing    Processing    `toml:"processing"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sigmatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sigmatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Store.Path)}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		dirs = append(dirs, c.Logging.Dir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// NotificationsEnabled reports whether a Slack webhook is configured.
func (c *Config) NotificationsEnabled() bool {
	return strings.TrimSpace(c.Notifications.SlackWebhookURL) != ""
}

// CustomerStageSet returns the configured customer lifecycle stages as a
// lookup set keyed by lower-cased stage value.
func (c *Config) CustomerStageSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Matching.CustomerStages))
	for _, stage := range c.Matching.CustomerStages {
		stage = strings.ToLower(strings.TrimSpace(stage))
		if stage == "" {
			continue
		}
		set[stage] = struct{}{}
	}
	return set
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
