package testsupport

import (
	"path/filepath"
	"testing"

	"collectord/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.LLM.APIKey = "test"
	cfg.Retrieval.APIToken = "test"
	cfg.Retrieval.PacingSeconds = 0
	cfg.Classify.RetryBaseDelayMS = 1
	cfg.Classify.RetryMaxDelayMS = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithRetrievalStrategy overrides the retrieval strategy on the test config.
func WithRetrievalStrategy(strategy string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Retrieval.Strategy = strategy
	}
}

// WithDatasetURL points the publisher at a test dataset endpoint.
func WithDatasetURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Dataset.APIURL = url
	}
}
