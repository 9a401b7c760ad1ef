package config

const (
	defaultDataDir           = "~/.local/share/soundscape"
	defaultCacheDir          = "~/.cache/soundscape"
	defaultRemoteTable       = "sounds"
	defaultRequestTimeout    = 30
	defaultLowCutoffHz       = 200
	defaultHighCutoffHz      = 8000
	defaultMasterVolume      = 1.0
	defaultSampleRate        = 44100
	defaultChannelCount      = 2
	defaultHydrateWorkers    = 4
	defaultReadyPollInterval = 2
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			CacheDir: defaultCacheDir,
		},
		Remote: Remote{
			Table:          defaultRemoteTable,
			RequestTimeout: defaultRequestTimeout,
		},
		Mixer: Mixer{
			LowCutoffHz:  defaultLowCutoffHz,
			HighCutoffHz: defaultHighCutoffHz,
			MasterVolume: defaultMasterVolume,
			SampleRate:   defaultSampleRate,
			ChannelCount: defaultChannelCount,
		},
		Catalog: Catalog{
			HydrateWorkers:    defaultHydrateWorkers,
			ReadyPollInterval: defaultReadyPollInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
