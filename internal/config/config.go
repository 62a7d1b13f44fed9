package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Store contains configuration for the roster store and its change feed.
type Store struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
}

// Directory contains configuration for the member-directory service.
type Directory struct {
	BaseURL               string `toml:"base_url"`
	Token                 string `toml:"token"`
	ActorID               string `toml:"actor_id"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	TagTTLSeconds         int    `toml:"tag_ttl_seconds"`
	JoinPollSeconds       int    `toml:"join_poll_seconds"`
}

// Scheduler contains per-entity scheduling configuration.
type Scheduler struct {
	DebounceMS int `toml:"debounce_ms"`
}

// Audit contains configuration for the unresolved-record audit.
type Audit struct {
	IntervalMinutes int `toml:"interval_minutes"`
	SampleSize      int `toml:"sample_size"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyServer            string `toml:"ntfy_server"`
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Catalog describes the managed-attribute catalog: the tags the engine is
// permitted to add and remove, keyed by category value.
type Catalog struct {
	BaselineTag     string            `toml:"baseline_tag"`
	CaptainTag      string            `toml:"captain_tag"`
	Tiers           map[string]string `toml:"tiers"`
	Positions       map[string]string `toml:"positions"`
	Squads          map[string]string `toml:"squads"`
	PositionAliases map[string]string `toml:"position_aliases"`
}

// Config encapsulates all configuration values for rostersync.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Store: roster store change-feed polling
//   - Directory: member-directory service connection and caching
//   - Scheduler: per-entity debounce window
//   - Audit: unresolved-record audit interval and report sample size
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
//   - Catalog: managed tag mappings per record category
type Config struct {
	Paths         Paths         `toml:"paths"`
	Store         Store         `toml:"store"`
	Directory     Directory     `toml:"directory"`
	Scheduler     Scheduler     `toml:"scheduler"`
	Audit         Audit         `toml:"audit"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Catalog       Catalog       `toml:"catalog"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/rostersync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
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
		_, err = os.Stat(expanded)
		if err != nil {
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

	projectPath, err := filepath.Abs("rostersync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
