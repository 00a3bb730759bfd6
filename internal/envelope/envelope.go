// Package envelope turns one raw EMG channel into its amplitude envelope.
//
// The conditioning chain is fixed: trim, band-pass, notch, rectify, low-pass.
// Every consumer of raw EMG goes through Extract so that envelopes from
// calibration and exercise recordings stay comparable.
package envelope

import (
	"fmt"
	"math"

	"myonorm/internal/emgerr"
	"myonorm/internal/filter"
)

// Config describes the conditioning chain for one sampling frequency.
// A Notch with Freq == 0 disables mains suppression.
type Config struct {
	SampleRate  float64
	TrimSeconds float64
	Bandpass    filter.Bandpass
	Notch       filter.Notch
	Lowpass     filter.Lowpass
}

// DefaultConfig returns the EMG-conventional chain at sampleRate: 1 s trim,
// 20-450 Hz order-5 band-pass, 50 Hz Q30 notch, 5 Hz order-5 low-pass.
func DefaultConfig(sampleRate float64) Config {
	return Config{
		SampleRate:  sampleRate,
		TrimSeconds: 1,
		Bandpass:    filter.Bandpass{Low: 20, High: 450, Order: 5},
		Notch:       filter.Notch{Freq: 50, Q: 30},
		Lowpass:     filter.Lowpass{Cutoff: 5, Order: 5},
	}
}

// NotchEnabled reports whether the chain includes a mains notch.
func (c Config) NotchEnabled() bool { return c.Notch.Freq != 0 }

// Extractor applies a pre-designed chain. It holds no mutable state and may
// be shared between goroutines.
type Extractor struct {
	cfg      Config
	trim     int
	bandpass *filter.Cascade
	notch    *filter.Cascade
	lowpass  *filter.Cascade
}

// New designs every filter in cfg so that invalid parameters fail before any
// signal is processed.
func New(cfg Config) (*Extractor, error) {
	if !(cfg.TrimSeconds >= 0) || math.IsInf(cfg.TrimSeconds, 0) {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "envelope", "configure",
			fmt.Sprintf("trim seconds must be >= 0, got %g", cfg.TrimSeconds), nil)
	}
	bandpass, err := cfg.Bandpass.Design(cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	var notch *filter.Cascade
	if cfg.NotchEnabled() {
		if notch, err = cfg.Notch.Design(cfg.SampleRate); err != nil {
			return nil, err
		}
	}
	lowpass, err := cfg.Lowpass.Design(cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		cfg:      cfg,
		trim:     int(cfg.TrimSeconds * cfg.SampleRate),
		bandpass: bandpass,
		notch:    notch,
		lowpass:  lowpass,
	}, nil
}

// Config returns the chain configuration.
func (e *Extractor) Config() Config { return e.cfg }

// TrimSamples is the number of samples dropped from each end of the input.
func (e *Extractor) TrimSamples() int { return e.trim }

// MinSamples is the shortest input Extract accepts.
func (e *Extractor) MinSamples() int { return 2*e.trim + 1 }

// Extract returns the envelope of signal. The output has
// len(signal) - 2*TrimSamples() samples.
func (e *Extractor) Extract(signal []float64) ([]float64, error) {
	trimmed, err := e.Trim(signal)
	if err != nil {
		return nil, err
	}
	filtered := e.bandpass.Apply(trimmed)
	if e.notch != nil {
		filtered = e.notch.Apply(filtered)
	}
	return e.lowpass.Apply(Rectify(filtered)), nil
}

// Trim drops TrimSamples() from both ends and returns a copy.
func (e *Extractor) Trim(signal []float64) ([]float64, error) {
	if len(signal) < e.MinSamples() {
		return nil, emgerr.Wrap(emgerr.ErrInsufficientData, "envelope", "trim",
			fmt.Sprintf("need at least %d samples, got %d", e.MinSamples(), len(signal)), nil)
	}
	out := make([]float64, len(signal)-2*e.trim)
	copy(out, signal[e.trim:len(signal)-e.trim])
	return out, nil
}

// Rectify returns the element-wise absolute value of x.
func Rectify(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Abs(v)
	}
	return out
}
