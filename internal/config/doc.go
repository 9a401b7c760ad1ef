// Package config loads, validates, and normalizes soundscape configuration.
//
// Configuration lives in a TOML file (default ~/.config/soundscape/config.toml)
// decoded over repository defaults, then overlaid with environment variables
// for secrets such as the remote API key. All path fields are expanded and
// absolute after Load returns.
package config
