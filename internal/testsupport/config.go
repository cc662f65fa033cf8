// Package testsupport provides shared fixtures for deckpatch tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"deckpatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithSofficeBinary overrides the conversion binary on the test config.
func WithSofficeBinary(path string) ConfigOption {
	return func(c *config.Config) {
		c.Soffice.Binary = path
	}
}
