package filter

import (
	"fmt"
	"math"

	"myonorm/internal/emgerr"
)

// Spec fully determines a filter once a sampling frequency is known.
type Spec interface {
	Design(sampleRate float64) (*Cascade, error)
	String() string
}

// Bandpass is a Butterworth band-pass specification.
type Bandpass struct {
	Low   float64
	High  float64
	Order int
}

// Lowpass is a Butterworth low-pass specification.
type Lowpass struct {
	Cutoff float64
	Order  int
}

// Notch is a second-order mains-interference notch.
type Notch struct {
	Freq float64
	Q    float64
}

func (b Bandpass) String() string {
	return fmt.Sprintf("bandpass %g-%g Hz order %d", b.Low, b.High, b.Order)
}

func (l Lowpass) String() string {
	return fmt.Sprintf("lowpass %g Hz order %d", l.Cutoff, l.Order)
}

func (n Notch) String() string {
	return fmt.Sprintf("notch %g Hz Q %g", n.Freq, n.Q)
}

// Validate checks the bounds against the Nyquist frequency of sampleRate.
func (b Bandpass) Validate(sampleRate float64) error {
	nyquist, err := nyquistOf(sampleRate, "bandpass")
	if err != nil {
		return err
	}
	if err := checkOrder(b.Order, "bandpass"); err != nil {
		return err
	}
	if !(b.Low > 0) || !(b.Low < b.High) || !(b.High < nyquist) {
		return emgerr.Wrap(emgerr.ErrConfiguration, "filter", "bandpass",
			fmt.Sprintf("require 0 < low < high < nyquist, got low=%g high=%g nyquist=%g", b.Low, b.High, nyquist), nil)
	}
	return nil
}

// Validate checks the bounds against the Nyquist frequency of sampleRate.
func (l Lowpass) Validate(sampleRate float64) error {
	nyquist, err := nyquistOf(sampleRate, "lowpass")
	if err != nil {
		return err
	}
	if err := checkOrder(l.Order, "lowpass"); err != nil {
		return err
	}
	if !(l.Cutoff > 0) || !(l.Cutoff < nyquist) {
		return emgerr.Wrap(emgerr.ErrConfiguration, "filter", "lowpass",
			fmt.Sprintf("require 0 < cutoff < nyquist, got cutoff=%g nyquist=%g", l.Cutoff, nyquist), nil)
	}
	return nil
}

// Validate checks the bounds against the Nyquist frequency of sampleRate.
func (n Notch) Validate(sampleRate float64) error {
	nyquist, err := nyquistOf(sampleRate, "notch")
	if err != nil {
		return err
	}
	if !(n.Freq > 0) || !(n.Freq < nyquist) {
		return emgerr.Wrap(emgerr.ErrConfiguration, "filter", "notch",
			fmt.Sprintf("require 0 < freq < nyquist, got freq=%g nyquist=%g", n.Freq, nyquist), nil)
	}
	if !(n.Q > 0) || math.IsInf(n.Q, 0) {
		return emgerr.Wrap(emgerr.ErrConfiguration, "filter", "notch",
			fmt.Sprintf("quality factor must be positive, got %g", n.Q), nil)
	}
	return nil
}

// Design returns the band-pass cascade for sampleRate.
func (b Bandpass) Design(sampleRate float64) (*Cascade, error) {
	if err := b.Validate(sampleRate); err != nil {
		return nil, err
	}
	return &Cascade{spec: b, sampleRate: sampleRate, sections: designBandpass(b.Low, b.High, b.Order, sampleRate)}, nil
}

// Design returns the low-pass cascade for sampleRate.
func (l Lowpass) Design(sampleRate float64) (*Cascade, error) {
	if err := l.Validate(sampleRate); err != nil {
		return nil, err
	}
	return &Cascade{spec: l, sampleRate: sampleRate, sections: designLowpass(l.Cutoff, l.Order, sampleRate)}, nil
}

// Design returns the notch cascade for sampleRate.
func (n Notch) Design(sampleRate float64) (*Cascade, error) {
	if err := n.Validate(sampleRate); err != nil {
		return nil, err
	}
	return &Cascade{spec: n, sampleRate: sampleRate, sections: designNotch(n.Freq, n.Q, sampleRate)}, nil
}

// Apply designs spec for sampleRate and filters x in one call.
func Apply(spec Spec, sampleRate float64, x []float64) ([]float64, error) {
	c, err := spec.Design(sampleRate)
	if err != nil {
		return nil, err
	}
	return c.Apply(x), nil
}

func nyquistOf(sampleRate float64, op string) (float64, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return 0, emgerr.Wrap(emgerr.ErrConfiguration, "filter", op,
			fmt.Sprintf("sampling frequency must be positive, got %g", sampleRate), nil)
	}
	return sampleRate / 2, nil
}

func checkOrder(order int, op string) error {
	if order < 1 {
		return emgerr.Wrap(emgerr.ErrConfiguration, "filter", op,
			fmt.Sprintf("order must be at least 1, got %d", order), nil)
	}
	return nil
}
