// Package config loads, normalizes, and validates myonorm configuration.
//
// Configuration is TOML. Load starts from Default, overlays the file (when one
// exists), applies environment fallbacks, expands paths, and validates every
// section before returning. The signal-chain parameters are converted into an
// explicit envelope.Config by PipelineConfig so that no processing package
// reads global state.
package config
