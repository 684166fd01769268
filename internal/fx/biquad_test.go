// ABOUTME: Tests for the biquad filter stages
// ABOUTME: DC and high-frequency behavior of the band shape
package fx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowPassPassesDC(t *testing.T) {
	f := newLowPass(8000, 44100)

	var out float32
	for i := 0; i < 4000; i++ {
		out = f.run(0.5)
	}
	assert.InDelta(t, 0.5, out, 0.01)
}

func TestHighPassBlocksDC(t *testing.T) {
	f := newHighPass(400, 44100)

	var out float32
	for i := 0; i < 4000; i++ {
		out = f.run(0.5)
	}
	assert.InDelta(t, 0.0, out, 0.01)
}

func TestLowPassAttenuatesAboveCutoff(t *testing.T) {
	f := newLowPass(8000, 44100)

	// 18 kHz tone, well above the 8 kHz cutoff.
	freq := 18000.0
	var peak float32
	for i := 0; i < 8000; i++ {
		in := float32(math.Sin(2 * math.Pi * freq * float64(i) / 44100))
		out := f.run(in)
		if i > 4000 && abs32(out) > peak {
			peak = abs32(out)
		}
	}
	assert.Less(t, float64(peak), 0.4)
}
