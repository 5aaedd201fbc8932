package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigPathFromEnv(t *testing.T) {
	t.Setenv(EnvConfig, "")
	assert.Equal(t, "gelquant.yaml", ConfigPathFromEnv("gelquant.yaml"))

	t.Setenv(EnvConfig, "/etc/gelquant.yaml")
	assert.Equal(t, "/etc/gelquant.yaml", ConfigPathFromEnv("gelquant.yaml"))
}

func TestLoadEnvFileAndApply(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(EnvOutput+"=from-dotenv\n"), 0644))

	t.Setenv(EnvOutput, "")
	os.Unsetenv(EnvOutput)
	require.NoError(t, LoadEnv(envFile))

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, "from-dotenv", cfg.Output.Dir)
}

func TestLoadEnvMissingFileIsIgnored(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "nope.env")))
}

func TestLoadEnvMissingFileDoesNotSkipOthers(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(envFile, []byte(EnvConfig+"=/srv/gel.yaml\n"), 0644))

	t.Setenv(EnvConfig, "")
	os.Unsetenv(EnvConfig)
	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "/srv/gel.yaml", ConfigPathFromEnv("gelquant.yaml"))
}

func TestLoadEnvReportsMalformedFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BAD-KEY=1\n"), 0644))

	err := LoadEnv(envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), envFile)
}
