package testsupport

import (
	"path/filepath"
	"testing"

	"cadence/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithNeighbourCount overrides the neighbour index size on the test config.
func WithNeighbourCount(n int) ConfigOption {
	return func(c *config.Config) {
		c.Similarity.NeighbourCount = n
	}
}

// WithSouthernHemisphere flips the seasonal peaks on the test config.
func WithSouthernHemisphere() ConfigOption {
	return func(c *config.Config) {
		c.Context.SouthernHemisphere = true
	}
}
