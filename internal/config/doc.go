// Package config loads, normalizes, and validates the rostersync TOML
// configuration. Defaults come first, the config file overrides them, and a
// small set of environment variables override the file.
package config
