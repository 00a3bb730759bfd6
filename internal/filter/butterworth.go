package filter

import (
	"math"
	"math/cmplx"
	"sort"
)

// imagTolerance decides when a designed pole is treated as real.
const imagTolerance = 1e-10

// prototypePoles returns the left half-plane poles of the unit-cutoff analog
// Butterworth prototype of the given order.
func prototypePoles(order int) []complex128 {
	poles := make([]complex128, order)
	for k := 0; k < order; k++ {
		theta := math.Pi * (2.0*float64(k) + 1.0) / (2.0 * float64(order))
		poles[k] = complex(-math.Sin(theta), math.Cos(theta))
	}
	return poles
}

// prewarp maps a digital frequency in Hz to the analog frequency (rad/s) that
// the bilinear transform sends back onto it.
func prewarp(freq, sampleRate float64) float64 {
	return 2.0 * sampleRate * math.Tan(math.Pi*freq/sampleRate)
}

// bilinear maps an analog pole to the z-plane.
func bilinear(s complex128, sampleRate float64) complex128 {
	k := complex(2.0*sampleRate, 0)
	return (k + s) / (k - s)
}

// pairPoles groups digital poles into conjugate pairs and real pairs. A
// leftover real pole is returned separately.
func pairPoles(poles []complex128) (pairs [][2]complex128, single *complex128) {
	var reals []float64
	for _, p := range poles {
		switch {
		case math.Abs(imag(p)) <= imagTolerance:
			reals = append(reals, real(p))
		case imag(p) > 0:
			pairs = append(pairs, [2]complex128{p, cmplx.Conj(p)})
		}
	}
	sort.Float64s(reals)
	for i := 0; i+1 < len(reals); i += 2 {
		pairs = append(pairs, [2]complex128{complex(reals[i], 0), complex(reals[i+1], 0)})
	}
	if len(reals)%2 == 1 {
		last := complex(reals[len(reals)-1], 0)
		single = &last
	}
	return pairs, single
}

func denominator(p1, p2 complex128) [3]float64 {
	return [3]float64{1, -real(p1 + p2), real(p1 * p2)}
}

func designLowpass(cutoff float64, order int, sampleRate float64) []Section {
	wc := prewarp(cutoff, sampleRate)
	digital := make([]complex128, 0, order)
	for _, p := range prototypePoles(order) {
		digital = append(digital, bilinear(p*complex(wc, 0), sampleRate))
	}

	pairs, single := pairPoles(digital)
	sections := make([]Section, 0, len(pairs)+1)
	for _, pair := range pairs {
		// Two zeros at z = -1.
		sections = append(sections, Section{B: [3]float64{1, 2, 1}, A: denominator(pair[0], pair[1])})
	}
	if single != nil {
		sections = append(sections, Section{B: [3]float64{1, 1, 0}, A: [3]float64{1, -real(*single), 0}})
	}
	normalizeAt(sections, 0)
	return sections
}

func designBandpass(low, high float64, order int, sampleRate float64) []Section {
	wl := prewarp(low, sampleRate)
	wh := prewarp(high, sampleRate)
	bw := wh - wl
	w0 := math.Sqrt(wl * wh)

	digital := make([]complex128, 0, 2*order)
	for _, p := range prototypePoles(order) {
		a := p * complex(bw/2, 0)
		d := cmplx.Sqrt(a*a - complex(w0*w0, 0))
		digital = append(digital, bilinear(a+d, sampleRate), bilinear(a-d, sampleRate))
	}

	pairs, _ := pairPoles(digital)
	sections := make([]Section, 0, len(pairs))
	for _, pair := range pairs {
		// One zero at z = +1 (analog DC) and one at z = -1 (analog infinity).
		sections = append(sections, Section{B: [3]float64{1, 0, -1}, A: denominator(pair[0], pair[1])})
	}
	center := 2 * math.Atan(w0/(2*sampleRate))
	normalizeAt(sections, center)
	return sections
}

func designNotch(freq, q, sampleRate float64) []Section {
	w0 := 2 * math.Pi * freq / sampleRate
	bw := w0 / q
	beta := math.Tan(bw / 2)
	gain := 1 / (1 + beta)
	c := math.Cos(w0)
	return []Section{{
		B: [3]float64{gain, -2 * gain * c, gain},
		A: [3]float64{1, -2 * gain * c, 2*gain - 1},
	}}
}
