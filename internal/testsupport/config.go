// Package testsupport provides builders shared by package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"sigmatch/internal/config"
)

// NewConfig returns a validated configuration rooted in a per-test temp
// directory, with placeholder credentials filled in.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.CRM.BaseURL = "http://crm.invalid"
	cfg.CRM.AccessToken = "test-token"
	cfg.LLM.APIKey = "test-key"
	cfg.Store.Path = filepath.Join(dir, "companies.db")
	cfg.Logging.Dir = filepath.Join(dir, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}
