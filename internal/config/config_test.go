package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "saves.db", cfg.Database.Path)
	assert.Equal(t, "5s", cfg.Database.BusyTimeout)
	assert.False(t, cfg.Database.ReadOnly)
	assert.Equal(t, "*.zip", cfg.Import.Glob)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[database]
path = "/var/lib/importer/saves.db"
busy_timeout = "10s"

[import]
archive_dir = "/srv/saves"
overrides_path = "/srv/overrides.toml"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/importer/saves.db", cfg.Database.Path)
	assert.Equal(t, "10s", cfg.Database.BusyTimeout)
	assert.Equal(t, "/srv/saves", cfg.Import.ArchiveDir)
	assert.Equal(t, "/srv/overrides.toml", cfg.Import.OverridesPath)
	// Unset fields keep their defaults
	assert.Equal(t, "*.zip", cfg.Import.Glob)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [ valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Database.Path = "tournament.db"
	cfg.Import.ArchiveDir = "/saves"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty database path", func(c *Config) { c.Database.Path = "" }, true},
		{"bad busy timeout", func(c *Config) { c.Database.BusyTimeout = "soon" }, true},
		{"empty glob", func(c *Config) { c.Import.Glob = "" }, true},
		{"bad glob", func(c *Config) { c.Import.Glob = "[" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetBusyTimeout(t *testing.T) {
	cfg := DefaultConfig()
	d, err := cfg.GetBusyTimeout()
	require.NoError(t, err)
	assert.Equal(t, "5s", d.String())
}
