package testsupport

import (
	"math"
	"testing"

	"myonorm/internal/recording"
)

// SampleRate is the sampling frequency used by synthetic recordings.
const SampleRate = 2000.0

// InBandFrequency sits well inside the default 20-450 Hz pass band.
const InBandFrequency = 100.0

// Sine returns amplitude*sin(2*pi*freq*t) sampled at fs for seconds.
func Sine(amplitude, freq, seconds, fs float64) []float64 {
	n := int(seconds * fs)
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/fs)
	}
	return out
}

// Burst is an in-band sine whose rectified mean equals level. A level of 1
// therefore yields an envelope that settles at 1.
func Burst(level, seconds float64) []float64 {
	return Sine(level*math.Pi/2, InBandFrequency, seconds, SampleRate)
}

// Constant returns n copies of value.
func Constant(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// Recording builds an in-memory recording sampled at SampleRate. The name
// must follow the session filename convention.
func Recording(t testing.TB, name string, channels ...[]float64) *recording.Recording {
	t.Helper()
	meta, err := recording.ParseFilename(name)
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	rec, err := recording.New(name, meta, SampleRate, channels)
	if err != nil {
		t.Fatalf("build %s: %v", name, err)
	}
	return rec
}

// MemorySession wraps recordings, in order, into a session.
func MemorySession(channels recording.ChannelSet, recs ...*recording.Recording) *recording.Session {
	handles := make([]recording.Handle, len(recs))
	for i, rec := range recs {
		handles[i] = recording.MemoryHandle(rec)
	}
	return recording.NewSession("memory", SampleRate, channels, handles...)
}
