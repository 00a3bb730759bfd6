package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"myonorm/internal/config"
	"myonorm/internal/recording"
	"myonorm/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	sessionDir string
	baseDir    string
}

var testChannels = recording.ChannelSet{"biceps", "triceps"}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithMetricsTextfile()}, opts...)...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	dir := testsupport.SessionDir(t, testChannels,
		testsupport.Recording(t, "P01_biceps_curl_01_03_2024_rep1.npz", testsupport.Burst(1, 4), testsupport.Burst(0.5, 4)),
		testsupport.Recording(t, "P01_biceps_curl_01_03_2024_rep2.npz", testsupport.Burst(0.8, 4), testsupport.Burst(0.4, 4)),
		testsupport.Recording(t, "P01_triceps_press_01_03_2024_rep1.npz", testsupport.Burst(0.3, 4), testsupport.Burst(0.6, 4)),
	)
	bad := [][]float64{testsupport.Burst(1, 4), testsupport.Burst(1, 4)}
	if err := recording.WriteNPZ(filepath.Join(dir, "P01_biceps_curl_01_03_2024.npz"), bad); err != nil {
		t.Fatalf("write rejected recording: %v", err)
	}

	return &cliTestEnv{cfg: cfg, configPath: configPath, sessionDir: dir, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
