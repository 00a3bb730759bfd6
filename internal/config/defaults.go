package config

const (
	defaultStateDir              = "~/.local/share/myonorm"
	defaultLogDir                = "~/.local/share/myonorm/logs"
	defaultExportDir             = "~/.local/share/myonorm/exports"
	defaultSamplingFrequency     = 2000.0
	defaultTrimSeconds           = 1.0
	defaultBandpassLow           = 20.0
	defaultBandpassHigh          = 450.0
	defaultBandpassOrder         = 5
	defaultLowpassCutoff         = 5.0
	defaultLowpassOrder          = 5
	defaultMainsFrequency        = 50.0
	defaultNotchQ                = 30.0
	defaultCalibrationPolicy     = PolicyAutomatic
	defaultCalibrationWindow     = 0.5
	defaultCalibrationReduction  = ReductionMaxWindowMean
	defaultStableWindowStep      = 100
	defaultStableWindowTolerance = 0.1
	defaultStableWindowSource    = StableSourceRaw
	defaultLogFormat             = "auto"
	defaultLogLevel              = "info"
)

// Calibration policy names.
const (
	PolicyFixed     = "fixed"
	PolicyAutomatic = "automatic"
)

// Calibration reduction names.
const (
	ReductionMaxWindowMean = "max_window_mean"
	ReductionGlobalMax     = "global_max"
)

// Stable window sources.
const (
	StableSourceRaw        = "raw"
	StableSourceActivation = "activation"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
		},
		Pipeline: Pipeline{
			SamplingFrequency: defaultSamplingFrequency,
			TrimSeconds:       defaultTrimSeconds,
			BandpassLow:       defaultBandpassLow,
			BandpassHigh:      defaultBandpassHigh,
			BandpassOrder:     defaultBandpassOrder,
			LowpassCutoff:     defaultLowpassCutoff,
			LowpassOrder:      defaultLowpassOrder,
			MainsFrequency:    defaultMainsFrequency,
			NotchQ:            defaultNotchQ,
		},
		Calibration: Calibration{
			Policy:        defaultCalibrationPolicy,
			WindowSeconds: defaultCalibrationWindow,
			Reduction:     defaultCalibrationReduction,
		},
		Aggregation: Aggregation{
			StableWindowStep:      defaultStableWindowStep,
			StableWindowTolerance: defaultStableWindowTolerance,
			StableWindowSource:    defaultStableWindowSource,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
