package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "cortex-m0", cfg.Device.Name)
	assert.Equal(t, uint32(256*1024), cfg.Device.FlashSize)
	assert.Equal(t, uint32(0x2000_0000), cfg.Device.RAMBase)
	assert.Equal(t, uint64(100_000_000), cfg.Execution.MaxInstructions)
	assert.False(t, cfg.Trace.Enabled)
	assert.Equal(t, "trace.log", cfg.Trace.OutputFile)
	assert.False(t, cfg.Statistics.Enabled)
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()
	require.NotEmpty(t, path)
	assert.Equal(t, "config.toml", filepath.Base(path))

	switch runtime.GOOS {
	case "darwin", "linux":
		dir := filepath.Dir(path)
		if path != "config.toml" {
			assert.Equal(t, "cmsim", filepath.Base(dir))
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test_config.toml")

	cfg := DefaultConfig()
	cfg.Device.Name = "cortex-m4"
	cfg.Execution.MaxInstructions = 42
	cfg.Trace.Enabled = true
	cfg.Trace.StartAt = 10

	require.NoError(t, cfg.SaveTo(configPath))
	_, err := os.Stat(configPath)
	require.NoError(t, err, "config file should exist after SaveTo")

	loaded, err := LoadFrom(configPath)
	require.NoError(t, err)
	assert.Equal(t, "cortex-m4", loaded.Device.Name)
	assert.Equal(t, uint64(42), loaded.Execution.MaxInstructions)
	assert.True(t, loaded.Trace.Enabled)
	assert.Equal(t, uint64(10), loaded.Trace.StartAt)
}

func TestLoadNonExistent(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	require.NoError(t, err, "a missing file falls back to defaults")
	assert.Equal(t, "cortex-m0", cfg.Device.Name)
}

func TestLoadInvalidTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.toml")

	invalidTOML := `
[execution]
max_instructions = "not a number"
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidTOML), 0o644))

	_, err := LoadFrom(configPath)
	assert.Error(t, err)
}

func TestSaveCreatesDirectory(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	require.NoError(t, cfg.SaveTo(configPath))
	_, err := os.Stat(configPath)
	assert.NoError(t, err)
}
