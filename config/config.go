// Package config loads and saves simulator configuration from TOML files
// under the user's platform config directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the simulator's persisted configuration.
type Config struct {
	Device struct {
		// Name records the device profile: "cortex-m0" (ARMv6-M, the
		// mandatory baseline) or "cortex-m4" (ARMv7-M hooks). The decoder
		// and executor do not read it; every profile decodes the same
		// instruction set.
		Name         string `toml:"name"`
		FlashBase    uint32 `toml:"flash_base"`
		FlashSize    uint32 `toml:"flash_size"`
		RAMBase      uint32 `toml:"ram_base"`
		RAMSize      uint32 `toml:"ram_size"`
	} `toml:"device"`

	Execution struct {
		MaxInstructions uint64 `toml:"max_instructions"`
		SemihostingRoot string `toml:"semihosting_root"`
	} `toml:"execution"`

	Trace struct {
		Enabled    bool   `toml:"enabled"`
		OutputFile string `toml:"output_file"`
		StartAt    uint64 `toml:"start_at"`
	} `toml:"trace"`

	Statistics struct {
		Enabled    bool   `toml:"enabled"`
		OutputFile string `toml:"output_file"`
	} `toml:"statistics"`
}

// DefaultConfig returns the configuration a fresh install starts with: an
// ARMv6-M cortex-m0 device with a 256K/64K flash/RAM split typical of that
// class of part, tracing and statistics both off.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Device.Name = "cortex-m0"
	cfg.Device.FlashBase = 0x0000_0000
	cfg.Device.FlashSize = 256 * 1024
	cfg.Device.RAMBase = 0x2000_0000
	cfg.Device.RAMSize = 64 * 1024

	cfg.Execution.MaxInstructions = 100_000_000
	cfg.Execution.SemihostingRoot = ""

	cfg.Trace.Enabled = false
	cfg.Trace.OutputFile = "trace.log"
	cfg.Trace.StartAt = 0

	cfg.Statistics.Enabled = false
	cfg.Statistics.OutputFile = "stats.json"

	return cfg
}

// GetConfigPath returns the platform-specific config file path, creating
// its directory if necessary.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "cmsim")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "cmsim")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return "config.toml"
	}
	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, falling back to defaults when the
// file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
