package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables understood by the command line tool
const (
	EnvConfig = "GELQUANT_CONFIG"
	EnvOutput = "GELQUANT_OUTPUT"
)

// LoadEnv loads variables from .env (or the given files) into the process
// environment. Missing files are skipped and variables already set win; a
// file that exists but cannot be parsed is an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("error loading env file %s: %w", file, err)
		}
	}
	return nil
}

// ConfigPathFromEnv returns $GELQUANT_CONFIG, or fallback when it is unset
func ConfigPathFromEnv(fallback string) string {
	if v := os.Getenv(EnvConfig); v != "" {
		return v
	}
	return fallback
}

// ApplyEnv overrides configuration values set in the environment
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvOutput); v != "" {
		c.Output.Dir = v
	}
}
