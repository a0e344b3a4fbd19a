// Package main provides the FleetPulse server CLI.
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server  ServerConfig `yaml:"server"`
	Sheets  SheetsConfig `yaml:"sheets"`
	Cities  CitiesConfig `yaml:"cities"`
	Verbose bool         `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address        string `yaml:"address"`           // HTTP listen address (default: :8080)
	RateLimitPerIP int    `yaml:"rate_limit_per_ip"` // requests per minute per client IP
}

// SheetsConfig points at the spreadsheet tabs the reports read from.
type SheetsConfig struct {
	BaseURL       string `yaml:"base_url"` // override for tests; default is the public API
	SpreadsheetID string `yaml:"spreadsheet_id"`
	// RequestsPerSecond caps outbound calls against the Google API quota.
	RequestsPerSecond float64      `yaml:"requests_per_second"`
	Burst             int          `yaml:"burst"`
	Ranges            RangesConfig `yaml:"ranges"`
}

// RangesConfig names the tab range behind each report view.
type RangesConfig struct {
	Alerts        string `yaml:"alerts"`
	Misalignment  string `yaml:"misalignment"`
	Issues        string `yaml:"issues"`
	Movement      string `yaml:"movement"`
	Installations string `yaml:"installations"`
	Offline       string `yaml:"offline"`
}

// CitiesConfig locates the optional external city-alias table.
type CitiesConfig struct {
	AliasFile string `yaml:"alias_file"` // empty means the built-in table
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.RateLimitPerIP == 0 {
		c.Server.RateLimitPerIP = 60
	}
	if c.Sheets.RequestsPerSecond == 0 {
		c.Sheets.RequestsPerSecond = 1
	}
	if c.Sheets.Burst == 0 {
		c.Sheets.Burst = 2
	}
	if c.Sheets.Ranges.Alerts == "" {
		c.Sheets.Ranges.Alerts = "Alerts!A:Z"
	}
	if c.Sheets.Ranges.Misalignment == "" {
		c.Sheets.Ranges.Misalignment = "Misalignment!A:Z"
	}
	if c.Sheets.Ranges.Issues == "" {
		c.Sheets.Ranges.Issues = "Issues!A:Z"
	}
	if c.Sheets.Ranges.Movement == "" {
		c.Sheets.Ranges.Movement = "Device Movement!A:Z"
	}
	if c.Sheets.Ranges.Installations == "" {
		c.Sheets.Ranges.Installations = "Installations!A:Z"
	}
	if c.Sheets.Ranges.Offline == "" {
		c.Sheets.Ranges.Offline = "Offline Vehicles!A:Z"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("sheets.spreadsheet_id is required")
	}
	if c.Sheets.RequestsPerSecond < 0 {
		return fmt.Errorf("sheets.requests_per_second must not be negative")
	}
	if c.Cities.AliasFile != "" {
		if _, err := os.Stat(c.Cities.AliasFile); err != nil {
			return fmt.Errorf("cities.alias_file: %w", err)
		}
	}
	return nil
}
