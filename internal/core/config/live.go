package config

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Settings exposes hot-readable tuning values. Callers read these at use
// time rather than caching them at construction.
type Settings interface {
	// MaxFileEntries returns the current per-resource retention limit.
	MaxFileEntries() int
}

// Static is a fixed Settings implementation, mainly for tests.
type Static struct {
	Max int
}

func (s Static) MaxFileEntries() int { return s.Max }

// Live re-reads the config file whenever its modification time changes,
// so edits take effect without restarting.
type Live struct {
	path    string
	dataDir string
	log     zerolog.Logger

	mu      sync.Mutex
	modTime time.Time
	current *Config
}

// NewLive creates a live settings provider seeded with the given config.
func NewLive(path, dataDir string, seed *Config, log zerolog.Logger) *Live {
	l := &Live{
		path:    path,
		dataDir: dataDir,
		log:     log,
		current: seed,
	}
	if info, err := os.Stat(path); err == nil {
		l.modTime = info.ModTime()
	}
	return l
}

// MaxFileEntries returns the retention limit from the freshest readable
// config. A missing or invalid file keeps the last good value.
func (l *Live) MaxFileEntries() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refresh()
	if l.current == nil {
		return DefaultMaxFileEntries
	}
	return l.current.MaxFileEntries
}

func (l *Live) refresh() {
	info, err := os.Stat(l.path)
	if err != nil {
		return
	}
	if !info.ModTime().After(l.modTime) {
		return
	}

	cfg, err := Load(l.path, l.dataDir)
	if err != nil {
		l.log.Warn().Err(err).Str("path", l.path).Msg("config reload failed, keeping previous settings")
		return
	}

	l.modTime = info.ModTime()
	l.current = cfg
	l.log.Debug().Int("max_file_entries", cfg.MaxFileEntries).Msg("config reloaded")
}
