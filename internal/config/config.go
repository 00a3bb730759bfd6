package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"myonorm/internal/envelope"
	"myonorm/internal/filter"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state, log, and export directories.
type Paths struct {
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
	ExportDir string `toml:"export_dir"`
}

// Pipeline contains the signal-conditioning chain parameters.
type Pipeline struct {
	SamplingFrequency float64 `toml:"sampling_frequency"`
	TrimSeconds       float64 `toml:"trim_seconds"`
	BandpassLow       float64 `toml:"bandpass_low"`
	BandpassHigh      float64 `toml:"bandpass_high"`
	BandpassOrder     int     `toml:"bandpass_order"`
	LowpassCutoff     float64 `toml:"lowpass_cutoff"`
	LowpassOrder      int     `toml:"lowpass_order"`
	// MainsFrequency of 0 disables the notch stage.
	MainsFrequency float64 `toml:"mains_frequency"`
	NotchQ         float64 `toml:"notch_q"`
}

// Calibration selects how the per-channel MVC reference is derived.
type Calibration struct {
	Policy        string   `toml:"policy"`
	PoseNames     []string `toml:"pose_names"`
	WindowSeconds float64  `toml:"window_seconds"`
	Reduction     string   `toml:"reduction"`
}

// Aggregation contains batch execution and stable-window search settings.
type Aggregation struct {
	// Workers of 0 means one per CPU.
	Workers               int     `toml:"workers"`
	StableWindowStep      int     `toml:"stable_window_step"`
	StableWindowTolerance float64 `toml:"stable_window_tolerance"`
	StableWindowSource    string  `toml:"stable_window_source"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics controls the optional Prometheus textfile export.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Config encapsulates all configuration values for myonorm.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Pipeline    Pipeline    `toml:"pipeline"`
	Calibration Calibration `toml:"calibration"`
	Aggregation Aggregation `toml:"aggregation"`
	Logging     Logging     `toml:"logging"`
	Metrics     Metrics     `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/myonorm/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded. The second and third results are the
// resolved path and whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("myonorm.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// PipelineConfig converts the [pipeline] section into the explicit chain
// configuration consumed by the envelope extractor.
func (c *Config) PipelineConfig() envelope.Config {
	p := c.Pipeline
	cfg := envelope.Config{
		SampleRate:  p.SamplingFrequency,
		TrimSeconds: p.TrimSeconds,
		Bandpass:    filter.Bandpass{Low: p.BandpassLow, High: p.BandpassHigh, Order: p.BandpassOrder},
		Lowpass:     filter.Lowpass{Cutoff: p.LowpassCutoff, Order: p.LowpassOrder},
	}
	if p.MainsFrequency != 0 {
		cfg.Notch = filter.Notch{Freq: p.MainsFrequency, Q: p.NotchQ}
	}
	return cfg
}

// DatabasePath returns the location of the results database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "myonorm.db")
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the commented sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the sample configuration to path, creating parent
// directories as needed. An existing file is never overwritten.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("config already exists at %s", path)
		}
		return fmt.Errorf("create config: %w", err)
	}
	defer file.Close()
	if _, err := file.WriteString(sampleConfig); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
