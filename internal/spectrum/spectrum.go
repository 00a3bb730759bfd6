// Package spectrum computes single-sided amplitude spectra of raw channels.
// It backs the spectrum command, which is used to check where a recording's
// energy sits relative to the band-pass and notch settings.
package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"

	"myonorm/internal/emgerr"
)

// Options controls preprocessing before the transform.
type Options struct {
	// Hann applies a Hann window, with the amplitude corrected for the
	// window's coherent gain.
	Hann bool
	// Detrend removes the mean before the transform.
	Detrend bool
}

// Spectrum is the single-sided amplitude spectrum 2/N*|FFT| for bins
// 0 <= k < N/2.
type Spectrum struct {
	SampleRate  float64
	Frequencies []float64
	Magnitudes  []float64
}

// Compute transforms signal sampled at sampleRate.
func Compute(signal []float64, sampleRate float64, opts Options) (*Spectrum, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "spectrum", "compute",
			fmt.Sprintf("sampling frequency must be positive, got %g", sampleRate), nil)
	}
	n := len(signal)
	if n < 2 {
		return nil, emgerr.Wrap(emgerr.ErrInsufficientData, "spectrum", "compute",
			fmt.Sprintf("need at least 2 samples, got %d", n), nil)
	}

	x := append([]float64(nil), signal...)
	if opts.Detrend {
		floats.AddConst(-floats.Sum(x)/float64(n), x)
	}
	gain := 1.0
	if opts.Hann {
		w := window.Hann(n)
		floats.Mul(x, w)
		gain = floats.Sum(w) / float64(n)
	}

	coeffs := fft.FFTReal(x)
	bins := n / 2
	s := &Spectrum{
		SampleRate:  sampleRate,
		Frequencies: make([]float64, bins),
		Magnitudes:  make([]float64, bins),
	}
	scale := 2 / (float64(n) * gain)
	for k := range bins {
		s.Frequencies[k] = float64(k) * sampleRate / float64(n)
		s.Magnitudes[k] = scale * cmplx.Abs(coeffs[k])
	}
	return s, nil
}

// Resolution is the bin spacing in Hz.
func (s *Spectrum) Resolution() float64 {
	if len(s.Frequencies) < 2 {
		return 0
	}
	return s.Frequencies[1]
}

// Dominant returns the frequency and magnitude of the largest non-DC bin.
func (s *Spectrum) Dominant() (float64, float64) {
	if len(s.Magnitudes) < 2 {
		return 0, 0
	}
	k := 1 + floats.MaxIdx(s.Magnitudes[1:])
	return s.Frequencies[k], s.Magnitudes[k]
}

func (s *Spectrum) power() []float64 {
	p := make([]float64, len(s.Magnitudes))
	for i, m := range s.Magnitudes {
		p[i] = m * m
	}
	return p
}

// MeanFrequency is the power-weighted mean frequency.
func (s *Spectrum) MeanFrequency() float64 {
	p := s.power()
	total := floats.Sum(p)
	if total == 0 {
		return 0
	}
	return floats.Dot(p, s.Frequencies) / total
}

// MedianFrequency is the lowest frequency at which the cumulative power
// reaches half of the total.
func (s *Spectrum) MedianFrequency() float64 {
	p := s.power()
	total := floats.Sum(p)
	if total == 0 {
		return 0
	}
	var cumulative float64
	for k, v := range p {
		cumulative += v
		if cumulative >= total/2 {
			return s.Frequencies[k]
		}
	}
	return s.Frequencies[len(s.Frequencies)-1]
}

// PowerFraction is the share of total power in [low, high] Hz.
func (s *Spectrum) PowerFraction(low, high float64) float64 {
	p := s.power()
	total := floats.Sum(p)
	if total == 0 {
		return 0
	}
	var band float64
	for k, f := range s.Frequencies {
		if f >= low && f <= high {
			band += p[k]
		}
	}
	return band / total
}
