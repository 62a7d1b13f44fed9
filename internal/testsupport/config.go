package testsupport

import (
	"path/filepath"
	"testing"

	"rostersync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Directory.BaseURL = "https://directory.test"
	cfgVal.Directory.Token = "test-token"
	cfgVal.Directory.ActorID = "test-actor"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDirectoryURL points the directory client at the given base URL.
func WithDirectoryURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Directory.BaseURL = url
	}
}

// WithDebounceMS overrides the scheduler debounce window.
func WithDebounceMS(ms int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scheduler.DebounceMS = ms
	}
}

// WithNtfyTopic enables notifications against the given server and topic.
func WithNtfyTopic(server, topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyServer = server
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
