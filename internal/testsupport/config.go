package testsupport

import (
	"path/filepath"
	"testing"

	"groove/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields, applies any provided options, and creates the
// directory layout.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate test config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return &cfg
}

// WithOverwriteImports toggles the import overwrite policy on the test config.
func WithOverwriteImports(overwrite bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Library.OverwriteImports = overwrite
	}
}

// WithSweepOnClose toggles the close-time sweep on the test config.
func WithSweepOnClose(sweep bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Library.SweepOnClose = sweep
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
