package testsupport

import (
	"path/filepath"
	"testing"

	"myonorm/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a validated-shape config whose directories live under a
// per-test temp directory. Options run after the defaults are applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ExportDir = filepath.Join(base, "exports")
	cfgVal.Aggregation.Workers = 2
	cfgVal.Logging.Format = "json"

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithFixedPoses switches calibration to the fixed policy.
func WithFixedPoses(poses ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Calibration.Policy = config.PolicyFixed
		b.cfg.Calibration.PoseNames = poses
	}
}

// WithoutNotch disables mains suppression.
func WithoutNotch() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.MainsFrequency = 0
	}
}

// WithMetricsTextfile enables the Prometheus textfile under the temp dir.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Textfile = filepath.Join(b.baseDir, "metrics", "myonorm.prom")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
