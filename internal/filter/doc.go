// Package filter designs and applies the IIR filters used to condition EMG.
//
// Three designs are available, each described by a Spec value that fully
// determines the coefficients for a given sampling frequency:
//
//   - Bandpass: Butterworth band-pass (default 20-450 Hz, order 5) removing DC
//     offset, motion artifact, and high-frequency noise.
//   - Lowpass: Butterworth low-pass (default 5 Hz, order 5) smoothing a
//     rectified signal into its envelope.
//   - Notch: second-order notch removing mains interference (50 or 60 Hz).
//
// Designs are realized as a Cascade of second-order sections in transposed
// direct form II. Filtering is causal with a zero initial state: no future
// samples are used and the output carries the filter's start-up transient, the
// same behaviour as a single-pass lfilter. Invalid bounds are rejected with an
// emgerr.ErrConfiguration error when the Spec is designed, before any signal
// is touched.
package filter
