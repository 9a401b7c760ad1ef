package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[remote]
base_url = "https://example.supabase.co"
api_key = "anon"
`)

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Error("config file should be reported as existing")
	}
	if resolved != path {
		t.Errorf("resolved path mismatch: %s", resolved)
	}
	if cfg.Remote.Table != "sounds" {
		t.Errorf("default table not applied: %q", cfg.Remote.Table)
	}
	if cfg.Mixer.LowCutoffHz != 200 || cfg.Mixer.HighCutoffHz != 8000 {
		t.Errorf("default cutoff bounds not applied: %v/%v", cfg.Mixer.LowCutoffHz, cfg.Mixer.HighCutoffHz)
	}
	if cfg.Catalog.HydrateWorkers != 4 {
		t.Errorf("default hydrate workers not applied: %d", cfg.Catalog.HydrateWorkers)
	}
}

func TestLoadRequiresRemoteURL(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "debug"
`)

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("missing remote.base_url should fail validation")
	} else if !strings.Contains(err.Error(), "remote.base_url") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
[remote]
base_url = "https://example.supabase.co"
api_key = "from-file"
`)
	t.Setenv("SOUNDSCAPE_API_KEY", "from-env")

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Remote.APIKey != "from-env" {
		t.Errorf("env override not applied: %q", cfg.Remote.APIKey)
	}
}

func TestNormalizeTrimsBaseURL(t *testing.T) {
	path := writeConfig(t, `
[remote]
base_url = "https://example.supabase.co/"
`)

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if strings.HasSuffix(cfg.Remote.BaseURL, "/") {
		t.Errorf("trailing slash should be trimmed: %q", cfg.Remote.BaseURL)
	}
}

func TestValidateMixerBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"low cutoff zero", func(c *Config) { c.Mixer.LowCutoffHz = 0 }},
		{"high below low", func(c *Config) { c.Mixer.HighCutoffHz = 100 }},
		{"master volume above one", func(c *Config) { c.Mixer.MasterVolume = 1.5 }},
		{"bad channel count", func(c *Config) { c.Mixer.ChannelCount = 5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Remote.BaseURL = "https://example.supabase.co"
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.DataDir = "/data"
	cfg.Paths.CacheDir = "/cache"

	if got := cfg.SnapshotPath(); got != filepath.Join("/data", "sound_data.json") {
		t.Errorf("SnapshotPath: %s", got)
	}
	if got := cfg.DatabasePath(); got != filepath.Join("/data", "soundscape.db") {
		t.Errorf("DatabasePath: %s", got)
	}
	if got := cfg.ImagesDir(); got != filepath.Join("/cache", "images") {
		t.Errorf("ImagesDir: %s", got)
	}
	if got := cfg.AudioDir(); got != filepath.Join("/cache", "audio") {
		t.Errorf("AudioDir: %s", got)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("first WriteSample failed: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Error("second WriteSample should refuse to overwrite")
	}
}
