package activation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"myonorm/internal/emgerr"
)

// Agreement is an average pairwise similarity between repetition vectors.
type Agreement struct {
	Value float64
	// Pairs is the number of vector pairs that contributed.
	Pairs int
	// Skipped counts vectors left out for holding NaN or Inf.
	Skipped int
}

// MeanPearson averages the Pearson correlation over every pair of vectors of
// equal length. Vectors with non-finite entries are skipped, as are pairs
// whose correlation is undefined (a constant vector).
func MeanPearson(vectors [][]float64) Agreement {
	return meanPairwise(vectors, func(a, b []float64) float64 {
		return stat.Correlation(a, b, nil)
	})
}

// MeanCosine averages the cosine similarity over every pair of vectors of
// equal length. A zero vector has similarity 0 with everything.
func MeanCosine(vectors [][]float64) Agreement {
	return meanPairwise(vectors, func(a, b []float64) float64 {
		na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
		if na == 0 || nb == 0 {
			return 0
		}
		return floats.Dot(a, b) / (na * nb)
	})
}

func meanPairwise(vectors [][]float64, metric func(a, b []float64) float64) Agreement {
	var usable [][]float64
	var agreement Agreement
	for _, v := range vectors {
		if !finite(v) {
			agreement.Skipped++
			continue
		}
		usable = append(usable, v)
	}
	var total float64
	for i := range usable {
		for j := i + 1; j < len(usable); j++ {
			if len(usable[i]) != len(usable[j]) {
				continue
			}
			value := metric(usable[i], usable[j])
			if math.IsNaN(value) || math.IsInf(value, 0) {
				continue
			}
			total += value
			agreement.Pairs++
		}
	}
	if agreement.Pairs == 0 {
		agreement.Value = math.NaN()
		return agreement
	}
	agreement.Value = total / float64(agreement.Pairs)
	return agreement
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// ICC2 is the two-way random effects, absolute agreement, single rater
// intraclass correlation, ICC(2,1). ratings[r][t] is rater r's score for
// target t; here raters are repetitions and targets are channels.
func ICC2(ratings [][]float64) (float64, error) {
	k := len(ratings)
	if k < 2 {
		return 0, emgerr.Wrap(emgerr.ErrInsufficientData, "activation", "icc",
			fmt.Sprintf("need at least 2 repetitions, got %d", k), nil)
	}
	n := len(ratings[0])
	if n < 2 {
		return 0, emgerr.Wrap(emgerr.ErrInsufficientData, "activation", "icc",
			fmt.Sprintf("need at least 2 channels, got %d", n), nil)
	}
	for r, row := range ratings {
		if len(row) != n {
			return 0, emgerr.Wrap(emgerr.ErrConfiguration, "activation", "icc",
				fmt.Sprintf("repetition %d has %d channels, expected %d", r, len(row), n), nil)
		}
		if !finite(row) {
			return 0, emgerr.Wrap(emgerr.ErrInsufficientData, "activation", "icc",
				fmt.Sprintf("repetition %d has missing or non-finite values", r), nil)
		}
	}

	var grand float64
	targetMeans := make([]float64, n)
	raterMeans := make([]float64, k)
	for r, row := range ratings {
		for t, y := range row {
			grand += y
			targetMeans[t] += y
			raterMeans[r] += y
		}
	}
	grand /= float64(n * k)
	floats.Scale(1/float64(k), targetMeans)
	floats.Scale(1/float64(n), raterMeans)

	var ssTotal, ssTargets, ssRaters float64
	for r, row := range ratings {
		for _, y := range row {
			ssTotal += (y - grand) * (y - grand)
		}
		ssRaters += (raterMeans[r] - grand) * (raterMeans[r] - grand)
	}
	for _, m := range targetMeans {
		ssTargets += (m - grand) * (m - grand)
	}
	ssTargets *= float64(k)
	ssRaters *= float64(n)
	ssError := ssTotal - ssTargets - ssRaters

	msTargets := ssTargets / float64(n-1)
	msRaters := ssRaters / float64(k-1)
	msError := ssError / float64((n-1)*(k-1))

	denominator := msTargets + float64(k-1)*msError + float64(k)*(msRaters-msError)/float64(n)
	if denominator == 0 {
		return 0, emgerr.Wrap(emgerr.ErrDivisionByZero, "activation", "icc",
			"ratings have no variance", nil)
	}
	return (msTargets - msError) / denominator, nil
}
