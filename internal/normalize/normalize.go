// Package normalize expresses an envelope as a fraction of a channel's
// maximum voluntary contraction.
package normalize

import (
	"fmt"
	"math"

	"myonorm/internal/emgerr"
)

// Normalize returns envelope[i] / mvc for every sample. A zero or
// non-finite reference is rejected rather than producing Inf or NaN.
func Normalize(envelope []float64, mvc float64) ([]float64, error) {
	if mvc == 0 || math.IsNaN(mvc) || math.IsInf(mvc, 0) {
		return nil, emgerr.Wrap(emgerr.ErrDivisionByZero, "normalize", "normalize",
			fmt.Sprintf("mvc reference must be finite and non-zero, got %g", mvc), nil)
	}
	out := make([]float64, len(envelope))
	for i, v := range envelope {
		out[i] = v / mvc
	}
	return out, nil
}
