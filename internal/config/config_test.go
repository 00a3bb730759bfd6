package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myonorm/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MYONORM_SAMPLING_FREQUENCY", "")
	t.Setenv("MYONORM_MAINS_FREQUENCY", "")
	return home
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, path, resolved)

	assert.Equal(t, filepath.Join(home, ".local/share/myonorm"), cfg.Paths.StateDir)
	assert.Equal(t, 2000.0, cfg.Pipeline.SamplingFrequency)
	assert.Equal(t, config.PolicyAutomatic, cfg.Calibration.Policy)
	assert.Equal(t, config.ReductionMaxWindowMean, cfg.Calibration.Reduction)
	assert.Equal(t, "auto", cfg.Logging.Format)
	assert.GreaterOrEqual(t, cfg.Aggregation.Workers, 1)
	assert.Equal(t, filepath.Join(cfg.Paths.StateDir, "myonorm.db"), cfg.DatabasePath())

	chain := cfg.PipelineConfig()
	assert.Equal(t, 2000.0, chain.SampleRate)
	assert.Equal(t, 1.0, chain.TrimSeconds)
	assert.Equal(t, 5, chain.Bandpass.Order)
	assert.True(t, chain.NotchEnabled())
	assert.Equal(t, 50.0, chain.Notch.Freq)
}

func TestLoadAppliesFileOverrides(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
[pipeline]
sampling_frequency = 1000.0
bandpass_high = 400.0
mains_frequency = 60.0

[calibration]
policy = "Fixed"
pose_names = ["curl", " extension ", ""]
reduction = "global_max"

[aggregation]
workers = 3
stable_window_source = "ACTIVATION"

[logging]
format = "json"
level = "debug"
`)

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)

	assert.Equal(t, 1000.0, cfg.Pipeline.SamplingFrequency)
	assert.Equal(t, 400.0, cfg.Pipeline.BandpassHigh)
	assert.Equal(t, 20.0, cfg.Pipeline.BandpassLow)
	assert.Equal(t, config.PolicyFixed, cfg.Calibration.Policy)
	assert.Equal(t, []string{"curl", "extension"}, cfg.Calibration.PoseNames)
	assert.Equal(t, config.ReductionGlobalMax, cfg.Calibration.Reduction)
	assert.Equal(t, 3, cfg.Aggregation.Workers)
	assert.Equal(t, config.StableSourceActivation, cfg.Aggregation.StableWindowSource)
	assert.Equal(t, 60.0, cfg.PipelineConfig().Notch.Freq)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("MYONORM_SAMPLING_FREQUENCY", "4000")
	t.Setenv("MYONORM_MAINS_FREQUENCY", "0")
	path := writeConfig(t, "[pipeline]\nsampling_frequency = 1000.0\n")

	cfg, _, _, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, cfg.Pipeline.SamplingFrequency)
	assert.False(t, cfg.PipelineConfig().NotchEnabled())
}

func TestLoadRejectsMalformedEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("MYONORM_SAMPLING_FREQUENCY", "fast")

	_, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MYONORM_SAMPLING_FREQUENCY")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"band above nyquist", "[pipeline]\nbandpass_high = 1200.0\n", "pipeline.bandpass_low/bandpass_high"},
		{"inverted band", "[pipeline]\nbandpass_low = 500.0\nbandpass_high = 100.0\n", "pipeline.bandpass_low/bandpass_high"},
		{"zero order", "[pipeline]\nlowpass_order = 0\n", "pipeline.lowpass_order"},
		{"negative trim", "[pipeline]\ntrim_seconds = -1.0\n", "pipeline.trim_seconds"},
		{"zero sampling", "[pipeline]\nsampling_frequency = 0.0\n", "pipeline.sampling_frequency"},
		{"bad notch q", "[pipeline]\nnotch_q = 0.0\n", "pipeline.notch_q"},
		{"unknown policy", "[calibration]\npolicy = \"random\"\n", "calibration.policy"},
		{"fixed without poses", "[calibration]\npolicy = \"fixed\"\n", "calibration.pose_names"},
		{"bad reduction", "[calibration]\nreduction = \"median\"\n", "calibration.reduction"},
		{"zero window", "[calibration]\nwindow_seconds = 0.0\n", "calibration.window_seconds"},
		{"bad step", "[aggregation]\nstable_window_step = 0\n", "aggregation.stable_window_step"},
		{"bad source", "[aggregation]\nstable_window_source = \"spectrum\"\n", "aggregation.stable_window_source"},
		{"bad format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"unknown key", "[pipeline]\nsample_rate = 2000.0\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, _, _, err := config.Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	require.NoError(t, config.CreateSample(path))
	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, config.Default().Pipeline, cfg.Pipeline)

	err = config.CreateSample(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Paths.StateDir)
	assert.DirExists(t, cfg.Paths.LogDir)
}
