package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Database configuration
	Database DatabaseConfig `toml:"database"`

	// Save archive import configuration
	Import ImportConfig `toml:"import"`

	// General application configuration
	App AppConfig `toml:"app"`
}

// DatabaseConfig contains the embedded database settings.
type DatabaseConfig struct {
	Path        string `toml:"path"`         // Path to the SQLite database file
	BusyTimeout string `toml:"busy_timeout"` // Lock wait timeout (e.g., "5s")
	ReadOnly    bool   `toml:"read_only"`    // Open without write access
}

// ImportConfig contains the batch import settings.
type ImportConfig struct {
	ArchiveDir    string `toml:"archive_dir"`    // Directory scanned for save archives
	Glob          string `toml:"glob"`           // Archive file pattern
	OverridesPath string `toml:"overrides_path"` // Winner overrides TOML, empty disables
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "saves.db",
			BusyTimeout: "5s",
			ReadOnly:    false,
		},
		Import: ImportConfig{
			ArchiveDir:    ".",
			Glob:          "*.zip",
			OverridesPath: "",
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// Load loads the configuration from the given path. Returns the defaults if
// the file doesn't exist; an empty path means defaults only.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save saves the configuration to the given path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if _, err := time.ParseDuration(c.Database.BusyTimeout); err != nil {
		return fmt.Errorf("invalid busy timeout %q: %w", c.Database.BusyTimeout, err)
	}

	if c.Import.Glob == "" {
		return fmt.Errorf("import glob cannot be empty")
	}
	if _, err := filepath.Match(c.Import.Glob, "probe.zip"); err != nil {
		return fmt.Errorf("invalid import glob %q: %w", c.Import.Glob, err)
	}

	return nil
}

// GetBusyTimeout returns the database busy timeout as a duration.
func (c *Config) GetBusyTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Database.BusyTimeout)
}
