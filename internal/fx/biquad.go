// ABOUTME: Second-order recursive filters for the radio band shape
// ABOUTME: RBJ cookbook low-pass/high-pass with Butterworth Q, direct form 1
package fx

import "math"

// butterworthQ gives a maximally flat passband for a single biquad stage.
const butterworthQ = 1.0 / math.Sqrt2

// biquad is a direct-form-1 second-order filter. The delay line persists
// across blocks so consecutive blocks join without discontinuities.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64
	y1, y2 float64
}

// newLowPass creates a low-pass biquad with the given cutoff.
func newLowPass(cutoffHz, sampleRate float64) *biquad {
	w0 := 2 * math.Pi * cutoffHz / sampleRate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * butterworthQ)

	a0 := 1 + alpha
	return &biquad{
		b0: (1 - cosW0) / 2 / a0,
		b1: (1 - cosW0) / a0,
		b2: (1 - cosW0) / 2 / a0,
		a1: -2 * cosW0 / a0,
		a2: (1 - alpha) / a0,
	}
}

// newHighPass creates a high-pass biquad with the given cutoff.
func newHighPass(cutoffHz, sampleRate float64) *biquad {
	w0 := 2 * math.Pi * cutoffHz / sampleRate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * butterworthQ)

	a0 := 1 + alpha
	return &biquad{
		b0: (1 + cosW0) / 2 / a0,
		b1: -(1 + cosW0) / a0,
		b2: (1 + cosW0) / 2 / a0,
		a1: -2 * cosW0 / a0,
		a2: (1 - alpha) / a0,
	}
}

// run filters one sample and updates the delay line.
func (f *biquad) run(x float32) float32 {
	in := float64(x)
	out := f.b0*in + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2

	f.x2, f.x1 = f.x1, in
	f.y2, f.y1 = f.y1, out

	return float32(out)
}
