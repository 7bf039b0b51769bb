package commands

import (
	"os"
	"path/filepath"

	"github.com/localhist/localhist/internal/core/config"
	"github.com/localhist/localhist/internal/core/lifecycle"
	"github.com/localhist/localhist/internal/localhist"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// Service is the history service for all store operations
	Service *localhist.Service

	// Lifecycle runs shutdown participants (index flush, retention) after
	// the command returns
	Lifecycle *lifecycle.Coordinator
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "localhist", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "localhist")
}
