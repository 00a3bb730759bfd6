package mvc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"myonorm/internal/emgerr"
)

// Reduction names a strategy for collapsing an envelope to one value.
type Reduction string

const (
	// ReductionMaxWindowMean is the largest mean over any contiguous window.
	ReductionMaxWindowMean Reduction = "max_window_mean"
	// ReductionGlobalMax is the largest single sample.
	ReductionGlobalMax Reduction = "global_max"
)

// DefaultWindowSeconds is the sliding window used by ReductionMaxWindowMean.
const DefaultWindowSeconds = 0.5

// Reducer turns a candidate envelope into its MVC score.
type Reducer struct {
	Kind          Reduction
	WindowSeconds float64
}

// DefaultReducer is a 0.5 s max-window-mean.
func DefaultReducer() Reducer {
	return Reducer{Kind: ReductionMaxWindowMean, WindowSeconds: DefaultWindowSeconds}
}

// WindowSamples converts the window length to samples, truncating.
func (r Reducer) WindowSamples(sampleRate float64) int {
	return int(r.WindowSeconds * sampleRate)
}

// Validate checks the reducer against a sampling frequency.
func (r Reducer) Validate(sampleRate float64) error {
	switch r.Kind {
	case ReductionGlobalMax:
		return nil
	case ReductionMaxWindowMean:
		if math.IsNaN(r.WindowSeconds) || math.IsInf(r.WindowSeconds, 0) || r.WindowSamples(sampleRate) < 1 {
			return emgerr.Wrap(emgerr.ErrConfiguration, "mvc", "reducer",
				fmt.Sprintf("window of %gs at %g Hz is shorter than one sample", r.WindowSeconds, sampleRate), nil)
		}
		return nil
	default:
		return emgerr.Wrap(emgerr.ErrConfiguration, "mvc", "reducer",
			fmt.Sprintf("unknown reduction %q", r.Kind), nil)
	}
}

// Reduce applies the configured strategy to envelope.
func (r Reducer) Reduce(envelope []float64, sampleRate float64) (float64, error) {
	if err := r.Validate(sampleRate); err != nil {
		return 0, err
	}
	if r.Kind == ReductionGlobalMax {
		return PeakValue(envelope)
	}
	return MaxWindowMean(envelope, r.WindowSamples(sampleRate))
}

func (r Reducer) String() string {
	if r.Kind == ReductionMaxWindowMean {
		return fmt.Sprintf("%s(%gs)", r.Kind, r.WindowSeconds)
	}
	return string(r.Kind)
}

// MaxWindowMean returns the maximum mean over every contiguous run of window
// samples, advancing one sample at a time. All len(x)-window+1 windows are
// considered; the earliest window wins ties.
func MaxWindowMean(x []float64, window int) (float64, error) {
	if window < 1 {
		return 0, emgerr.Wrap(emgerr.ErrConfiguration, "mvc", "max window mean",
			fmt.Sprintf("window must be at least 1 sample, got %d", window), nil)
	}
	if len(x) < window {
		return 0, emgerr.Wrap(emgerr.ErrInsufficientData, "mvc", "max window mean",
			fmt.Sprintf("envelope has %d samples, window needs %d", len(x), window), nil)
	}

	sum := floats.Sum(x[:window])
	best, bestStart := sum, 0
	for start := 1; start+window <= len(x); start++ {
		sum += x[start+window-1] - x[start-1]
		if sum > best {
			best, bestStart = sum, start
		}
	}
	// The running sum drifts; the reported value is recomputed from the window.
	return windowMean(x[bestStart : bestStart+window]), nil
}

// windowMean is stat.Mean except that a flat window returns its level
// exactly, where sum/n would round.
func windowMean(w []float64) float64 {
	if lo := floats.Min(w); lo == floats.Max(w) {
		return lo
	}
	return stat.Mean(w, nil)
}

// PeakValue returns the largest sample of x.
func PeakValue(x []float64) (float64, error) {
	if len(x) == 0 {
		return 0, emgerr.Wrap(emgerr.ErrInsufficientData, "mvc", "peak", "envelope is empty", nil)
	}
	return floats.Max(x), nil
}
