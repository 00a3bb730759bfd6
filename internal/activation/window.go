package activation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"myonorm/internal/emgerr"
)

// Defaults for the stable window search.
const (
	DefaultStableStep      = 100
	DefaultStableTolerance = 0.1
	stableAbsTolerance     = 1e-8
)

// Source selects the signal the stable window search runs on.
type Source string

const (
	SourceRaw        Source = "raw"
	SourceActivation Source = "activation"
)

// StableOptions configures the search performed during aggregation.
type StableOptions struct {
	Step      int
	Tolerance float64
	Source    Source
}

// DefaultStableOptions searches the raw signal in 100-sample steps with 10%
// relative tolerance.
func DefaultStableOptions() StableOptions {
	return StableOptions{Step: DefaultStableStep, Tolerance: DefaultStableTolerance, Source: SourceRaw}
}

func (o StableOptions) validate() error {
	if o.Step < 1 {
		return emgerr.Wrap(emgerr.ErrConfiguration, "activation", "stable window",
			fmt.Sprintf("step must be >= 1, got %d", o.Step), nil)
	}
	if !(o.Tolerance >= 0) || math.IsInf(o.Tolerance, 0) {
		return emgerr.Wrap(emgerr.ErrConfiguration, "activation", "stable window",
			fmt.Sprintf("tolerance must be >= 0, got %g", o.Tolerance), nil)
	}
	switch o.Source {
	case SourceRaw, SourceActivation:
		return nil
	default:
		return emgerr.Wrap(emgerr.ErrConfiguration, "activation", "stable window",
			fmt.Sprintf("unknown source %q", o.Source), nil)
	}
}

// StableWindow finds the smallest window size w in 2, 2+step, ... <= len(signal)
// such that the population standard deviation of every length-w window is
// within tolerance of the mean of those deviations:
//
//	|s - m| <= 1e-8 + tolerance*|m|
//
// It reports false when no size qualifies.
func StableWindow(signal []float64, sampleRate float64, step int, tolerance float64) (Window, bool, error) {
	if err := (StableOptions{Step: step, Tolerance: tolerance, Source: SourceRaw}).validate(); err != nil {
		return Window{}, false, err
	}
	if !(sampleRate > 0) {
		return Window{}, false, emgerr.Wrap(emgerr.ErrConfiguration, "activation", "stable window",
			fmt.Sprintf("sampling frequency must be positive, got %g", sampleRate), nil)
	}
	n := len(signal)
	if n < 2 {
		return Window{}, false, nil
	}

	// Prefix sums of the mean-centred signal limit cancellation in the
	// variance computation.
	offset := floats.Sum(signal) / float64(n)
	sum := make([]float64, n+1)
	sumSq := make([]float64, n+1)
	for i, v := range signal {
		d := v - offset
		sum[i+1] = sum[i] + d
		sumSq[i+1] = sumSq[i] + d*d
	}

	stds := make([]float64, 0, n)
	for w := 2; w <= n; w += step {
		stds = stds[:0]
		fw := float64(w)
		for start := 0; start+w <= n; start++ {
			s1 := sum[start+w] - sum[start]
			s2 := sumSq[start+w] - sumSq[start]
			variance := (s2 - s1*s1/fw) / fw
			if variance < 0 {
				variance = 0
			}
			stds = append(stds, math.Sqrt(variance))
		}
		if allClose(stds, tolerance) {
			return Window{Samples: w, Seconds: fw / sampleRate}, true, nil
		}
	}
	return Window{}, false, nil
}

func allClose(values []float64, rtol float64) bool {
	m := floats.Sum(values) / float64(len(values))
	limit := stableAbsTolerance + rtol*math.Abs(m)
	for _, v := range values {
		if !(math.Abs(v-m) <= limit) {
			return false
		}
	}
	return true
}
