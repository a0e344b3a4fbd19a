package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigValidate_RequiresSpreadsheetID(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when sheets.spreadsheet_id is empty")
	}

	cfg.Sheets.SpreadsheetID = "1abcDEF"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}
}

func TestConfigValidate_RejectsMissingAliasFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sheets.SpreadsheetID = "1abcDEF"
	cfg.Cities.AliasFile = filepath.Join(t.TempDir(), "does-not-exist.yaml")

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for missing cities.alias_file")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  address: ":9090"
sheets:
  spreadsheet_id: "1abcDEF"
  requests_per_second: 2
  ranges:
    alerts: "L2 Alerts!A:M"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Address != ":9090" {
		t.Errorf("address = %q, want :9090", cfg.Server.Address)
	}
	if cfg.Sheets.Ranges.Alerts != "L2 Alerts!A:M" {
		t.Errorf("alerts range = %q", cfg.Sheets.Ranges.Alerts)
	}
	// Unset ranges fall back to defaults.
	if cfg.Sheets.Ranges.Issues != "Issues!A:Z" {
		t.Errorf("issues range = %q, want default", cfg.Sheets.Ranges.Issues)
	}
	if cfg.Server.RateLimitPerIP != 60 {
		t.Errorf("rate limit = %d, want default 60", cfg.Server.RateLimitPerIP)
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: ["), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}
