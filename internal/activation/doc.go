// Package activation applies the calibrated pipeline to every recording of a
// session and reduces the normalized envelopes to per-exercise, per-channel
// statistics.
//
// Results are kept in a Series keyed by (exercise, channel). Key order is
// first-seen order and repetitions stay in input order, so the same session
// always produces the same report. Per-file failures are collected rather
// than aborting the batch. The package also hosts the secondary analyses
// built on those results: the minimum stable window search and the
// repetition similarity metrics.
package activation
