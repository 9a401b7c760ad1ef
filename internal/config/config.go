package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	CacheDir string `toml:"cache_dir"`
}

// Remote contains configuration for the remote sound catalog source.
type Remote struct {
	BaseURL        string `toml:"base_url" env:"SOUNDSCAPE_REMOTE_URL"`
	APIKey         string `toml:"api_key" env:"SOUNDSCAPE_API_KEY"`
	Table          string `toml:"table"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Mixer contains tunables for the layer mixer and playback backend.
type Mixer struct {
	// Warmth maps onto a low-pass cutoff interpolated in log space
	// between these two bounds.
	LowCutoffHz  float64 `toml:"low_cutoff_hz"`
	HighCutoffHz float64 `toml:"high_cutoff_hz"`
	MasterVolume float64 `toml:"master_volume"`
	SampleRate   int     `toml:"sample_rate"`
	ChannelCount int     `toml:"channel_count"`
}

// Catalog contains tunables for catalog synchronization and hydration.
type Catalog struct {
	HydrateWorkers    int `toml:"hydrate_workers"`
	ReadyPollInterval int `toml:"ready_poll_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for soundscape.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Remote  Remote  `toml:"remote"`
	Mixer   Mixer   `toml:"mixer"`
	Catalog Catalog `toml:"catalog"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/soundscape/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The reported bool is
// true when a config file was actually read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, "", false, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return err
	}
	c.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.BaseURL), "/")
	c.Remote.APIKey = strings.TrimSpace(c.Remote.APIKey)
	c.Remote.Table = strings.TrimSpace(c.Remote.Table)
	return nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// SnapshotPath is the on-disk location of the catalog snapshot file.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.Paths.DataDir, "sound_data.json")
}

// DatabasePath is the SQLite database holding the persisted scene and favorites.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "soundscape.db")
}

// LockPath is the file lock guarding single-instance access to the data dir.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "soundscape.lock")
}

// ImagesDir is the cache directory for artwork assets.
func (c *Config) ImagesDir() string {
	return filepath.Join(c.Paths.CacheDir, "images")
}

// AudioDir is the cache directory for audio assets.
func (c *Config) AudioDir() string {
	return filepath.Join(c.Paths.CacheDir, "audio")
}

// EnsureDirectories creates the data and cache directories when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.ImagesDir(), c.AudioDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
