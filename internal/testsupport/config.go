package testsupport

import (
	"path/filepath"
	"testing"

	"partscope/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The classifier defaults to the remote backend pointed at a closed port, so
// tests that classify must inject their own classifier.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.ImagesDir = filepath.Join(base, "data", "images")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "data", "inventory.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Classifier.Endpoint = "http://127.0.0.1:1/v1/classify"
	cfgVal.Insights.CacheTTLSeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithInsightTimeout overrides the per-item insight timeout.
func WithInsightTimeout(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Insights.TimeoutSeconds = seconds
	}
}

// WithStatusUpdates toggles whether classification moves item statuses.
func WithStatusUpdates(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Classifier.UpdateStatus = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
