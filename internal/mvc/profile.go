package mvc

import (
	"fmt"

	"myonorm/internal/emgerr"
)

// Score is one candidate's reduced envelope value.
type Score struct {
	Source     string
	Exercise   string
	Repetition int
	Value      float64
	// Err is set when the candidate could not be scored and was left out of
	// the maximum.
	Err error
}

// ChannelProfile is the calibrated reference for one channel together with
// the recording it came from.
type ChannelProfile struct {
	Channel    int
	Name       string
	Value      float64
	Source     string
	Exercise   string
	Repetition int
	// Candidates lists every score considered, in input order.
	Candidates []Score
}

// Excluded returns the candidates that failed to score, in input order.
func (c ChannelProfile) Excluded() []Score {
	var out []Score
	for _, s := range c.Candidates {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Profile is the complete calibration of a session. It is built once and
// only read afterwards.
type Profile struct {
	Policy   string
	Reducer  Reducer
	Channels []ChannelProfile
}

// Value returns the MVC of channel.
func (p *Profile) Value(channel int) (float64, error) {
	if p == nil || channel < 0 || channel >= len(p.Channels) {
		size := 0
		if p != nil {
			size = len(p.Channels)
		}
		return 0, emgerr.Wrap(emgerr.ErrSelection, "mvc", "profile",
			fmt.Sprintf("channel %d out of range [0, %d)", channel, size), nil)
	}
	return p.Channels[channel].Value, nil
}

// Values returns the MVC of every channel in channel order.
func (p *Profile) Values() []float64 {
	out := make([]float64, len(p.Channels))
	for i, ch := range p.Channels {
		out[i] = ch.Value
	}
	return out
}
