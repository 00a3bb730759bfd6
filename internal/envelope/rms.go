package envelope

import (
	"fmt"
	"math"

	"myonorm/internal/emgerr"
)

// RMS returns the moving root-mean-square of x over window samples, keeping
// only positions where the window fits entirely ("valid" mode). It is an
// inspection aid; the canonical chain uses the low-pass envelope.
func RMS(x []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "envelope", "rms",
			fmt.Sprintf("window must be at least 1 sample, got %d", window), nil)
	}
	if len(x) < window {
		return nil, emgerr.Wrap(emgerr.ErrInsufficientData, "envelope", "rms",
			fmt.Sprintf("need at least %d samples, got %d", window, len(x)), nil)
	}
	out := make([]float64, len(x)-window+1)
	var sum float64
	for i := 0; i < window; i++ {
		sum += x[i] * x[i]
	}
	out[0] = math.Sqrt(math.Max(sum, 0) / float64(window))
	for i := 1; i < len(out); i++ {
		leaving := x[i-1]
		entering := x[i+window-1]
		sum += entering*entering - leaving*leaving
		out[i] = math.Sqrt(math.Max(sum, 0) / float64(window))
	}
	return out, nil
}
