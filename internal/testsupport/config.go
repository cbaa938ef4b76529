package testsupport

import (
	"path/filepath"
	"testing"

	"labeller/internal/config"
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
	cfgVal.Paths.DatasetRoot = filepath.Join(base, "dataset")
	cfgVal.Paths.OutputFile = filepath.Join(base, "out", "labels.csv")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Session.Annotator = "Tester"
	cfgVal.Session.BannerSeconds = 0

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

// WithVariant selects the taxonomy variant on the test config.
func WithVariant(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Session.Variant = name
	}
}

// WithDatasetRoot points the test config at an existing dataset tree.
func WithDatasetRoot(root string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.DatasetRoot = root
	}
}

// WithCompanions enables the Parquet and YAML export companions.
func WithCompanions() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.Parquet = true
		b.cfg.Export.YAMLSummary = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
