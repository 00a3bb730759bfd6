// Package mvc derives the per-channel maximum voluntary contraction (MVC)
// reference that every envelope of a session is normalized against.
//
// A Calibrator combines three choices: a Policy decides which recordings are
// candidates for each channel, the envelope.Extractor conditions the raw
// channel, and a Reducer collapses each candidate envelope to one scalar.
// The strongest candidate wins. Calibration either produces a complete
// Profile or fails; it never substitutes a default value for a channel.
package mvc
