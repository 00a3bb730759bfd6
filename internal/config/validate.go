package config

import (
	"errors"
	"fmt"
	"math"

	"myonorm/internal/envelope"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateCalibration(); err != nil {
		return err
	}
	if err := c.validateAggregation(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	p := c.Pipeline
	if !positive(p.SamplingFrequency) {
		return fmt.Errorf("pipeline.sampling_frequency must be positive, got %g", p.SamplingFrequency)
	}
	if !(p.TrimSeconds >= 0) || math.IsInf(p.TrimSeconds, 0) {
		return fmt.Errorf("pipeline.trim_seconds must be >= 0, got %g", p.TrimSeconds)
	}
	nyquist := p.SamplingFrequency / 2
	if !positive(p.BandpassLow) || !(p.BandpassLow < p.BandpassHigh) || !(p.BandpassHigh < nyquist) {
		return fmt.Errorf("pipeline.bandpass_low/bandpass_high must satisfy 0 < low < high < %g, got [%g, %g]",
			nyquist, p.BandpassLow, p.BandpassHigh)
	}
	if p.BandpassOrder < 1 {
		return errors.New("pipeline.bandpass_order must be >= 1")
	}
	if !positive(p.LowpassCutoff) || !(p.LowpassCutoff < nyquist) {
		return fmt.Errorf("pipeline.lowpass_cutoff must be in (0, %g), got %g", nyquist, p.LowpassCutoff)
	}
	if p.LowpassOrder < 1 {
		return errors.New("pipeline.lowpass_order must be >= 1")
	}
	if p.MainsFrequency != 0 {
		if !positive(p.MainsFrequency) || !(p.MainsFrequency < nyquist) {
			return fmt.Errorf("pipeline.mains_frequency must be 0 or in (0, %g), got %g", nyquist, p.MainsFrequency)
		}
		if !positive(p.NotchQ) {
			return fmt.Errorf("pipeline.notch_q must be positive, got %g", p.NotchQ)
		}
	}
	if _, err := envelope.New(c.PipelineConfig()); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

func (c *Config) validateCalibration() error {
	switch c.Calibration.Policy {
	case PolicyAutomatic:
	case PolicyFixed:
		if len(c.Calibration.PoseNames) == 0 {
			return errors.New("calibration.pose_names must list one pose per channel when policy is fixed")
		}
	default:
		return fmt.Errorf("calibration.policy must be %q or %q, got %q", PolicyFixed, PolicyAutomatic, c.Calibration.Policy)
	}
	switch c.Calibration.Reduction {
	case ReductionMaxWindowMean:
		if !positive(c.Calibration.WindowSeconds) {
			return fmt.Errorf("calibration.window_seconds must be positive, got %g", c.Calibration.WindowSeconds)
		}
	case ReductionGlobalMax:
	default:
		return fmt.Errorf("calibration.reduction must be %q or %q, got %q",
			ReductionMaxWindowMean, ReductionGlobalMax, c.Calibration.Reduction)
	}
	return nil
}

func (c *Config) validateAggregation() error {
	if c.Aggregation.Workers < 1 {
		return fmt.Errorf("aggregation.workers must be >= 0, got %d", c.Aggregation.Workers)
	}
	if c.Aggregation.StableWindowStep < 1 {
		return errors.New("aggregation.stable_window_step must be >= 1")
	}
	if !(c.Aggregation.StableWindowTolerance >= 0) {
		return errors.New("aggregation.stable_window_tolerance must be >= 0")
	}
	switch c.Aggregation.StableWindowSource {
	case StableSourceRaw, StableSourceActivation:
	default:
		return fmt.Errorf("aggregation.stable_window_source must be %q or %q, got %q",
			StableSourceRaw, StableSourceActivation, c.Aggregation.StableWindowSource)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format must be console, json, or auto, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
