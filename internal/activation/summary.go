package activation

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Summary reduces one (exercise, channel) series across repetitions.
type Summary struct {
	Key
	ChannelName string
	Repetitions int
	// Mean is the mean of the repetition means.
	Mean float64
	// Std is the population standard deviation of the repetition means.
	Std float64
	// CV is Std/Mean, or 0 when Mean is 0.
	CV float64
	// StableWindows counts repetitions for which a stable window was found;
	// MaxStableSeconds is the longest of them.
	StableWindows    int
	MaxStableSeconds float64
}

// ExerciseSummary is the mean activation of one exercise across channels.
type ExerciseSummary struct {
	Exercise string
	Channels int
	// Mean is the mean over channels of each channel's mean of repetition means.
	Mean float64
}

// Summaries returns one Summary per key in series order.
func (r *Result) Summaries() []Summary {
	keys := r.Series.Keys()
	out := make([]Summary, 0, len(keys))
	for _, key := range keys {
		reps := r.Series.Repetitions(key)
		means := make([]float64, len(reps))
		s := Summary{Key: key, ChannelName: r.Channels.Name(key.Channel), Repetitions: len(reps)}
		for i, rep := range reps {
			means[i] = rep.Mean
			if rep.StableWindow != nil {
				s.StableWindows++
				s.MaxStableSeconds = math.Max(s.MaxStableSeconds, rep.StableWindow.Seconds)
			}
		}
		mean, variance := stat.PopMeanVariance(means, nil)
		s.Mean = mean
		s.Std = math.Sqrt(variance)
		if mean != 0 {
			s.CV = s.Std / mean
		}
		out = append(out, s)
	}
	return out
}

// ExerciseSummaries returns one entry per exercise in first-seen order.
func (r *Result) ExerciseSummaries() []ExerciseSummary {
	byExercise := make(map[string][]float64)
	for _, s := range r.Summaries() {
		byExercise[s.Exercise] = append(byExercise[s.Exercise], s.Mean)
	}
	exercises := r.Series.Exercises()
	out := make([]ExerciseSummary, 0, len(exercises))
	for _, ex := range exercises {
		means := byExercise[ex]
		out = append(out, ExerciseSummary{Exercise: ex, Channels: len(means), Mean: stat.Mean(means, nil)})
	}
	return out
}

// RepetitionVectors returns, for exercise, one vector per repetition
// holding each channel's mean activation, ordered by repetition index.
// Channels that lack a repetition are NaN in that vector.
func (r *Result) RepetitionVectors(exercise string) [][]float64 {
	type slot struct {
		index  int
		source string
	}
	channels := len(r.Channels)
	var order []slot
	means := make(map[slot][]float64)
	for ch := range channels {
		for _, rep := range r.Series.Repetitions(Key{Exercise: exercise, Channel: ch}) {
			key := slot{index: rep.Index, source: rep.Source}
			vec, ok := means[key]
			if !ok {
				vec = make([]float64, channels)
				for i := range vec {
					vec[i] = math.NaN()
				}
				means[key] = vec
				order = append(order, key)
			}
			vec[ch] = rep.Mean
		}
	}
	slices.SortStableFunc(order, func(a, b slot) int { return cmp.Compare(a.index, b.index) })
	vectors := make([][]float64, len(order))
	for i, key := range order {
		vectors[i] = means[key]
	}
	return vectors
}
