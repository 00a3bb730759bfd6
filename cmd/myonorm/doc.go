// Package main hosts the myonorm CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the
// conditioning chain from it, and hands sessions to the calibration and
// aggregation packages. Results are rendered as tables or JSON, persisted to
// the run store, and optionally exported as npz files and Prometheus
// textfile metrics.
//
// Keep this package thin: new behaviour belongs in internal packages first.
package main
