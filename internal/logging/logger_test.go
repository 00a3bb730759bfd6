package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myonorm/internal/config"
	"myonorm/internal/logging"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestConsoleHandlerFormatsComponentAndFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)

	mvcLogger := logging.NewComponentLogger(logger, "mvc")
	mvcLogger.Info("channel calibrated",
		logging.Int(logging.FieldChannel, 2),
		logging.String("source", "p01 curl.npz"),
		logging.Float64("value", 1.25))
	mvcLogger.Debug("hidden")

	content := readLog(t, path)
	assert.Contains(t, content, "INFO  mvc: channel calibrated")
	assert.Contains(t, content, "channel=2")
	assert.Contains(t, content, `source="p01 curl.npz"`)
	assert.Contains(t, content, "value=1.25")
	assert.NotContains(t, content, "hidden")
	assert.NotContains(t, content, ".go:")
}

func TestConsoleHandlerIncludesSourceForDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Debug("with source")
	assert.Contains(t, readLog(t, path), "logger_test.go:")
}

func TestConsoleHandlerGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.WithGroup("filter").Info("designed", logging.Int("sections", 5))
	logger.Info("summary", slogGroup("window", logging.Float64("seconds", 0.05)))

	content := readLog(t, path)
	assert.Contains(t, content, "filter.sections=5")
	assert.Contains(t, content, "window.seconds=0.05")
}

func TestJSONHandlerShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	logging.NewComponentLogger(logger, "activation").Warn("file failed", logging.Error(errors.New("too short")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(readLog(t, path))), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "file failed", entry["msg"])
	assert.Equal(t, "activation", entry["component"])
	assert.Equal(t, "too short", entry["error"])
	assert.Contains(t, entry, "ts")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported value")
}

func TestWithContextAddsFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctx.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	ctx := logging.WithRunID(context.Background(), "run-1")
	ctx = logging.WithSession(ctx, "/data/p01")
	ctx = logging.WithExercise(ctx, "curl")
	ctx = logging.WithChannel(ctx, 3)
	logging.WithContext(ctx, logger).Info("processed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(readLog(t, path))), &entry))
	assert.Equal(t, "run-1", entry[logging.FieldRunID])
	assert.Equal(t, "/data/p01", entry[logging.FieldSession])
	assert.Equal(t, "curl", entry[logging.FieldExercise])
	assert.Equal(t, float64(3), entry[logging.FieldChannel])

	id, ok := logging.RunIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "run-1", id)
	_, ok = logging.RunIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	require.NoError(t, err)
	logger.Info("hello")

	assert.Contains(t, readLog(t, filepath.Join(cfg.Paths.LogDir, "myonorm.log")), `"msg":"hello"`)
}

func TestNopLoggerIsSilent(t *testing.T) {
	logger := logging.NewNop()
	assert.False(t, logger.Enabled(context.Background(), 12))
	logging.NewComponentLogger(nil, "x").Error("ignored")
	logging.WithContext(context.Background(), nil).Info("ignored")
}
