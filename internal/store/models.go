package store

import "time"

// Run summarizes one processed session.
type Run struct {
	ID          string
	SessionDir  string
	Participant string
	Policy      string
	Reducer     string
	SampleRate  float64
	Files       int
	Failures    int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Duration is the wall time the run took.
func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// ProfileEntry is one channel's calibrated reference.
type ProfileEntry struct {
	Channel    int
	Name       string
	Value      float64
	Source     string
	Exercise   string
	Repetition int
}

// ActivationEntry is the mean normalized activation of one repetition.
type ActivationEntry struct {
	Exercise   string
	Channel    int
	Repetition int
	Source     string
	Mean       float64
	// StableSeconds is nil when no stable window was searched or found.
	StableSeconds *float64
}

// FailureEntry is a persisted per-file or per-channel failure.
type FailureEntry struct {
	Source  string
	Channel int
	Kind    string
	Message string
}

// RunRecord is everything written for a run in one transaction.
type RunRecord struct {
	Run         Run
	Profiles    []ProfileEntry
	Activations []ActivationEntry
	Failures    []FailureEntry
}
