package filter

import (
	"math"
	"math/cmplx"
)

// Section is one second-order IIR stage normalized so that A[0] == 1.
// A first-order stage is expressed with B[2] == A[2] == 0.
type Section struct {
	B [3]float64
	A [3]float64
}

// response evaluates the complex transfer function at z = e^{jw}.
func (s Section) response(w float64) complex128 {
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1
	num := complex(s.B[0], 0) + complex(s.B[1], 0)*z1 + complex(s.B[2], 0)*z2
	den := complex(s.A[0], 0) + complex(s.A[1], 0)*z1 + complex(s.A[2], 0)*z2
	return num / den
}

func (s *Section) scale(k float64) {
	for i := range s.B {
		s.B[i] *= k
	}
}

// sectionState is the delay line of one stage.
type sectionState struct {
	z1, z2 float64
}

func (st *sectionState) process(s *Section, in float64) float64 {
	out := s.B[0]*in + st.z1
	st.z1 = s.B[1]*in - s.A[1]*out + st.z2
	st.z2 = s.B[2]*in - s.A[2]*out
	return out
}

// Cascade is an ordered chain of sections designed for one sampling
// frequency. A Cascade is immutable and safe for concurrent use; Apply keeps
// its delay lines local to the call.
type Cascade struct {
	spec       Spec
	sampleRate float64
	sections   []Section
}

// Apply filters x causally from a zero initial state and returns a new slice
// of the same length.
func (c *Cascade) Apply(x []float64) []float64 {
	out := make([]float64, len(x))
	states := make([]sectionState, len(c.sections))
	for i, v := range x {
		for j := range c.sections {
			v = states[j].process(&c.sections[j], v)
		}
		out[i] = v
	}
	return out
}

// Response returns the magnitude response at freq Hz.
func (c *Cascade) Response(freq float64) float64 {
	w := 2 * math.Pi * freq / c.sampleRate
	h := complex(1, 0)
	for _, s := range c.sections {
		h *= s.response(w)
	}
	return cmplx.Abs(h)
}

// Sections returns a copy of the designed stages.
func (c *Cascade) Sections() []Section {
	out := make([]Section, len(c.sections))
	copy(out, c.sections)
	return out
}

// Spec returns the specification the cascade was designed from.
func (c *Cascade) Spec() Spec { return c.spec }

// SampleRate returns the sampling frequency the cascade was designed for.
func (c *Cascade) SampleRate() float64 { return c.sampleRate }

// normalizeAt scales every section to unit magnitude at w radians/sample so
// the cascade's passband gain is exactly one at the reference frequency.
func normalizeAt(sections []Section, w float64) {
	for i := range sections {
		mag := cmplx.Abs(sections[i].response(w))
		if mag > 0 && !math.IsInf(mag, 0) && !math.IsNaN(mag) {
			sections[i].scale(1 / mag)
		}
	}
}
