package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "/data")
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxFileEntries, cfg.MaxFileEntries)
	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, 100, cfg.Watch.DebounceMS)
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
max_file_entries: 5
exclude:
  - "**/*.log"
watch:
  paths:
    - /tmp/watched
  debounce_ms: 250
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, "/data")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxFileEntries)
	assert.Equal(t, []string{"**/*.log"}, cfg.Exclude)
	assert.Equal(t, []string{"/tmp/watched"}, cfg.Watch.Paths)
	assert.Equal(t, 250, cfg.Watch.DebounceMS)
	assert.Equal(t, "/data", cfg.DataDir)
}

func TestLoad_InvalidExcludePattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exclude:\n  - \"[bad\"\n"), 0o644))

	_, err := Load(path, "/data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exclude[0]")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "empty data dir", mutate: func(c *Config) { c.DataDir = "" }, wantErr: true},
		{name: "negative debounce", mutate: func(c *Config) { c.Watch.DebounceMS = -1 }, wantErr: true},
		{name: "empty watch path", mutate: func(c *Config) { c.Watch.Paths = []string{""} }, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = "/data"
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"

	assert.Equal(t, filepath.Join("/data", "history"), cfg.HistoryDir())
	assert.Equal(t, filepath.Join("/data", "history", "resources.json"), cfg.RegistryFile())
}

func TestLive_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_file_entries: 10\n"), 0o644))

	seed, err := Load(path, dir)
	require.NoError(t, err)

	live := NewLive(path, dir, seed, zerolog.Nop())
	assert.Equal(t, 10, live.MaxFileEntries())

	require.NoError(t, os.WriteFile(path, []byte("max_file_entries: 3\n"), 0o644))
	// Make sure the mtime moves even on coarse-grained filesystems.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Equal(t, 3, live.MaxFileEntries())
}

func TestLive_KeepsLastGoodOnBrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_file_entries: 10\n"), 0o644))

	seed, err := Load(path, dir)
	require.NoError(t, err)

	live := NewLive(path, dir, seed, zerolog.Nop())
	assert.Equal(t, 10, live.MaxFileEntries())

	require.NoError(t, os.WriteFile(path, []byte(":::not yaml"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Equal(t, 10, live.MaxFileEntries())
}

func TestLive_DefaultWithoutConfig(t *testing.T) {
	live := NewLive(filepath.Join(t.TempDir(), "nope.yaml"), "/data", nil, zerolog.Nop())
	assert.Equal(t, DefaultMaxFileEntries, live.MaxFileEntries())
}
