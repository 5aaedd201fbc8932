// Package config provides configuration loading and management for gelquant.
// It handles loading analysis settings from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Settings are the analysis settings handed to the pipeline on every run
	Settings GelSettings `yaml:"settings"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many lanes are analysed concurrently
		NumCores int `yaml:"numCores"`

		// Verbose enables stage-by-stage progress logging
		Verbose bool `yaml:"verbose"`

		// AutoGeometry runs invert, deskew and ROI detection before analysis
		AutoGeometry bool `yaml:"autoGeometry"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Dir is where reports, overlays and plots are written
		Dir string `yaml:"dir"`

		// CSV enables the per-band CSV report
		CSV bool `yaml:"csv"`

		// Overlay enables the annotated lane overlay PNG
		Overlay bool `yaml:"overlay"`

		// Plots enables one profile plot per lane
		Plots bool `yaml:"plots"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Settings = DefaultSettings()

	// Set default processing parameters
	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.Verbose = false
	cfg.Processing.AutoGeometry = false

	// Set default output parameters
	cfg.Output.Dir = "gelquant_output"
	cfg.Output.CSV = true
	cfg.Output.Overlay = true
	cfg.Output.Plots = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML over the defaults so omitted keys keep their values
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.Settings = cfg.Settings.Normalized()
	if cfg.Processing.NumCores < 1 {
		cfg.Processing.NumCores = 1
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
