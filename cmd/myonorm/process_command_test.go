package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myonorm/internal/recording"
)

func TestProcessJSONReportsProfileSummariesAndFailures(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"process", env.sessionDir, "--json"}, env.configPath)
	require.NoError(t, err)

	var view processJSONView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.NotEmpty(t, view.RunID)
	assert.Equal(t, 4, view.Files)

	require.Len(t, view.Profile.Channels, 2)
	assert.Equal(t, "automatic", view.Profile.Policy)
	assert.InDelta(t, 1.0, view.Profile.Channels[0].Value, 0.05)
	assert.Equal(t, "biceps_curl", view.Profile.Channels[0].Exercise)
	assert.InDelta(t, 0.6, view.Profile.Channels[1].Value, 0.03)
	assert.Equal(t, "triceps_press", view.Profile.Channels[1].Exercise)

	require.Len(t, view.Summaries, 4)
	assert.Equal(t, "biceps_curl", view.Summaries[0].Exercise)
	assert.Equal(t, "biceps", view.Summaries[0].ChannelName)
	assert.Equal(t, 2, view.Summaries[0].Repetitions)
	for _, s := range view.Summaries {
		assert.Greater(t, s.Mean, 0.0)
		assert.LessOrEqual(t, s.Mean, 1.0)
	}

	require.Len(t, view.Failures, 1)
	assert.Equal(t, "P01_biceps_curl_01_03_2024.npz", view.Failures[0].Source)
	assert.Equal(t, "metadata_parse", view.Failures[0].Kind)
	assert.Equal(t, -1, view.Failures[0].Channel)

	_, err = os.Stat(env.cfg.Metrics.Textfile)
	assert.NoError(t, err)
}

func TestProcessFixedPolicyUsesPoseFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Calibration.Policy = "fixed"
	env.cfg.Calibration.PoseNames = []string{"biceps_curl", "triceps_press"}
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"process", env.sessionDir, "--json", "--no-store", "--no-stable-window"}, env.configPath)
	require.NoError(t, err)

	var view processJSONView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Empty(t, view.RunID)
	require.Len(t, view.Profile.Channels, 2)
	assert.Equal(t, "fixed", view.Profile.Policy)
	assert.Equal(t, "P01_biceps_curl_01_03_2024_rep1.npz", view.Profile.Channels[0].Source)
	assert.Equal(t, "P01_triceps_press_01_03_2024_rep1.npz", view.Profile.Channels[1].Source)
	assert.InDelta(t, 0.6, view.Profile.Channels[1].Value, 0.03)
}

func TestProcessExportsActivations(t *testing.T) {
	env := setupCLITestEnv(t)
	exportDir := filepath.Join(env.baseDir, "out")

	out, _, err := runCLI(t, []string{"process", env.sessionDir, "--export-dir", exportDir, "--no-store"}, env.configPath)
	require.NoError(t, err)
	requireContains(t, out, "Biceps Curl")
	requireContains(t, out, "metadata_parse")

	path := filepath.Join(exportDir, "P01_biceps_curl_01_03_2024_rep1.npz")
	requireContains(t, out, path)
	rec, err := recording.ReadFile(path, env.cfg.Pipeline.SamplingFrequency)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Channels())
	assert.Equal(t, 4000, rec.Samples())
	ch0, err := rec.Channel(0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ch0[len(ch0)-1], 0.05)
}

func TestRunsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"runs", "list"}, env.configPath)
	require.NoError(t, err)
	requireContains(t, out, "No runs recorded")

	out, _, err = runCLI(t, []string{"process", env.sessionDir, "--json"}, env.configPath)
	require.NoError(t, err)
	var view processJSONView
	require.NoError(t, json.Unmarshal([]byte(out), &view))

	out, _, err = runCLI(t, []string{"runs", "list"}, env.configPath)
	require.NoError(t, err)
	requireContains(t, out, view.RunID[:8])
	requireContains(t, out, "P01")

	out, _, err = runCLI(t, []string{"runs", "show", view.RunID[:8]}, env.configPath)
	require.NoError(t, err)
	requireContains(t, out, "Run "+view.RunID)
	requireContains(t, out, "Triceps Press")
	requireContains(t, out, "metadata_parse")

	out, _, err = runCLI(t, []string{"runs", "delete", view.RunID}, env.configPath)
	require.NoError(t, err)
	requireContains(t, out, "Deleted run")

	_, _, err = runCLI(t, []string{"runs", "show", view.RunID}, env.configPath)
	assert.ErrorContains(t, err, "not found")
}
