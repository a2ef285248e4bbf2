package testsupport

import (
	"path/filepath"
	"testing"

	"slakhprep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test:
// a dataset root and an output directory under one base dir. The dataset
// directories are not created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Dataset.Root = filepath.Join(base, "slakh")
	cfgVal.Output.Dir = filepath.Join(base, "out")
	cfgVal.Output.MinFreeMiB = 0
	cfgVal.Workers.Count = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithWorkers overrides the worker pool size.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workers.Count = n
	}
}

// WithStemExtension changes the stem extension used in label listings and
// stem discovery.
func WithStemExtension(ext string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dataset.StemExtension = ext
	}
}

// WithSampleRate sets the analysis rate for activity detection and features.
func WithSampleRate(rate int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Activity.SampleRate = rate
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Output.Dir)
}
