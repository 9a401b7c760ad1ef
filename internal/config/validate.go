package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateMixer(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.CacheDir == "" {
		return errors.New("paths.cache_dir must be set")
	}
	return nil
}

func (c *Config) validateRemote() error {
	if c.Remote.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/soundscape/config.toml"
		}
		return fmt.Errorf("remote.base_url is required. Set SOUNDSCAPE_REMOTE_URL env var or edit %s (create with 'soundscape config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Remote.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("remote.base_url is not a valid URL: %q", c.Remote.BaseURL)
	}
	if c.Remote.Table == "" {
		return errors.New("remote.table must be set")
	}
	if c.Remote.RequestTimeout <= 0 {
		return errors.New("remote.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateMixer() error {
	if c.Mixer.LowCutoffHz <= 0 {
		return errors.New("mixer.low_cutoff_hz must be positive")
	}
	if c.Mixer.HighCutoffHz <= c.Mixer.LowCutoffHz {
		return errors.New("mixer.high_cutoff_hz must be greater than mixer.low_cutoff_hz")
	}
	if c.Mixer.MasterVolume < 0 || c.Mixer.MasterVolume > 1 {
		return errors.New("mixer.master_volume must be between 0 and 1")
	}
	if c.Mixer.SampleRate <= 0 {
		return errors.New("mixer.sample_rate must be positive")
	}
	if c.Mixer.ChannelCount != 1 && c.Mixer.ChannelCount != 2 {
		return errors.New("mixer.channel_count must be 1 or 2")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.HydrateWorkers < 1 {
		return errors.New("catalog.hydrate_workers must be at least 1")
	}
	if c.Catalog.ReadyPollInterval < 1 {
		return errors.New("catalog.ready_poll_interval must be at least 1 second")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
