package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

const (
	envSamplingFrequency = "MYONORM_SAMPLING_FREQUENCY"
	envMainsFrequency    = "MYONORM_MAINS_FREQUENCY"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizePipeline(); err != nil {
		return err
	}
	c.normalizeCalibration()
	c.normalizeAggregation()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	if strings.TrimSpace(c.Metrics.Textfile) != "" {
		if c.Metrics.Textfile, err = expandPath(c.Metrics.Textfile); err != nil {
			return fmt.Errorf("metrics.textfile: %w", err)
		}
	}
	return nil
}

// Environment values take precedence over the file.
func (c *Config) normalizePipeline() error {
	if value, ok, err := envFloat(envSamplingFrequency); err != nil {
		return err
	} else if ok {
		c.Pipeline.SamplingFrequency = value
	}
	if value, ok, err := envFloat(envMainsFrequency); err != nil {
		return err
	} else if ok {
		c.Pipeline.MainsFrequency = value
	}
	return nil
}

func envFloat(key string) (float64, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, false, nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

func (c *Config) normalizeCalibration() {
	c.Calibration.Policy = strings.ToLower(strings.TrimSpace(c.Calibration.Policy))
	c.Calibration.Reduction = strings.ToLower(strings.TrimSpace(c.Calibration.Reduction))
	if c.Calibration.Reduction == "" {
		c.Calibration.Reduction = defaultCalibrationReduction
	}
	poses := c.Calibration.PoseNames[:0]
	for _, pose := range c.Calibration.PoseNames {
		pose = strings.TrimSpace(pose)
		if pose != "" {
			poses = append(poses, pose)
		}
	}
	c.Calibration.PoseNames = poses
}

func (c *Config) normalizeAggregation() {
	if c.Aggregation.Workers == 0 {
		c.Aggregation.Workers = runtime.NumCPU()
	}
	c.Aggregation.StableWindowSource = strings.ToLower(strings.TrimSpace(c.Aggregation.StableWindowSource))
	if c.Aggregation.StableWindowSource == "" {
		c.Aggregation.StableWindowSource = defaultStableWindowSource
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
