// Package config handles configuration loading and validation for localhist.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"
)

// DefaultMaxFileEntries is the retention limit applied when the config
// file does not set one.
const DefaultMaxFileEntries = 50

// Config holds the application configuration.
type Config struct {
	// MaxFileEntries is the per-resource retention limit applied at
	// shutdown. Zero or negative disables eviction.
	MaxFileEntries int `yaml:"max_file_entries"`
	// Exclude lists doublestar patterns of resources never recorded.
	Exclude []string    `yaml:"exclude"`
	Watch   WatchConfig `yaml:"watch"`
	DataDir string      `yaml:"-"` // set by caller, not from config file
}

// WatchConfig configures the save watcher daemon.
type WatchConfig struct {
	// Paths are directories watched for saves when none are passed on
	// the command line.
	Paths []string `yaml:"paths"`
	// DebounceMS coalesces write bursts into a single entry.
	DebounceMS int `yaml:"debounce_ms"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxFileEntries: DefaultMaxFileEntries,
		Exclude:        []string{},
		Watch: WatchConfig{
			DebounceMS: 100,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the
// provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Watch.DebounceMS == 0 {
		c.Watch.DebounceMS = defaults.Watch.DebounceMS
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.DataDir == "" {
		errs = errs.Append("data_dir", fmt.Errorf("cannot be empty"))
	}

	for i, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			errs = errs.Append(fmt.Sprintf("exclude[%d]", i), fmt.Errorf("invalid pattern %q", pattern))
		}
	}

	if c.Watch.DebounceMS < 0 {
		errs = errs.Append("watch.debounce_ms", fmt.Errorf("cannot be negative"))
	}

	for i, path := range c.Watch.Paths {
		if path == "" {
			errs = errs.Append(fmt.Sprintf("watch.paths[%d]", i), fmt.Errorf("cannot be empty"))
		}
	}

	return errs.ToError()
}

// HistoryDir returns the root directory holding per-resource history.
func (c *Config) HistoryDir() string {
	return filepath.Join(c.DataDir, "history")
}

// RegistryFile returns the path of the tracked-resource registry.
func (c *Config) RegistryFile() string {
	return filepath.Join(c.HistoryDir(), "resources.json")
}
