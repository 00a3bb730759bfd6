// Package recording holds the in-memory recording model and the file
// formats around it: NumPy archives for signal data, channel_config.txt for
// channel names, and the session filename convention for metadata.
package recording

import (
	"fmt"
	"math"

	"myonorm/internal/emgerr"
)

// Recording is an immutable channel x sample matrix captured during one
// repetition of one exercise.
type Recording struct {
	name       string
	meta       Metadata
	sampleRate float64
	data       [][]float64
}

// New validates and copies data into a Recording. Every channel must have
// the same number of samples.
func New(name string, meta Metadata, sampleRate float64, data [][]float64) (*Recording, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "recording", "new",
			fmt.Sprintf("%s: sampling frequency must be positive, got %g", name, sampleRate), nil)
	}
	if len(data) == 0 {
		return nil, emgerr.Wrap(emgerr.ErrInsufficientData, "recording", "new",
			fmt.Sprintf("%s: no channels", name), nil)
	}
	samples := len(data[0])
	copied := make([][]float64, len(data))
	for i, ch := range data {
		if len(ch) != samples {
			return nil, emgerr.Wrap(emgerr.ErrConfiguration, "recording", "new",
				fmt.Sprintf("%s: channel %d has %d samples, channel 0 has %d", name, i, len(ch), samples), nil)
		}
		copied[i] = append([]float64(nil), ch...)
	}
	return &Recording{name: name, meta: meta, sampleRate: sampleRate, data: copied}, nil
}

// Name is the source file name (without directory).
func (r *Recording) Name() string { return r.name }

func (r *Recording) Metadata() Metadata { return r.meta }

func (r *Recording) SampleRate() float64 { return r.sampleRate }

func (r *Recording) Channels() int { return len(r.data) }

func (r *Recording) Samples() int { return len(r.data[0]) }

// Duration is the recording length in seconds.
func (r *Recording) Duration() float64 { return float64(r.Samples()) / r.sampleRate }

// Channel returns a copy of one channel's samples.
func (r *Recording) Channel(index int) ([]float64, error) {
	if index < 0 || index >= len(r.data) {
		return nil, emgerr.Wrap(emgerr.ErrSelection, "recording", "channel",
			fmt.Sprintf("%s: channel %d out of range [0, %d)", r.name, index, len(r.data)), nil)
	}
	return append([]float64(nil), r.data[index]...), nil
}

// Rows returns a copy of the full matrix.
func (r *Recording) Rows() [][]float64 {
	out := make([][]float64, len(r.data))
	for i, ch := range r.data {
		out[i] = append([]float64(nil), ch...)
	}
	return out
}
