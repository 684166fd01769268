// ABOUTME: Tests for the linear resampler
// ABOUTME: Rate conversion length, interpolation and passthrough
package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Squelch-Radio/squelch-go/pkg/audio"
)

func TestInvalidRates(t *testing.T) {
	_, err := New(0, 44100)
	assert.Error(t, err)
	_, err = New(44100, -1)
	assert.Error(t, err)
}

func TestSameRatePassthrough(t *testing.T) {
	r, err := New(44100, 44100)
	require.NoError(t, err)

	in := []float32{0.1, 0.2, 0.3}
	assert.Equal(t, in, r.Process(in))
}

func TestUpsampleDoubles(t *testing.T) {
	r, err := New(22050, 44100)
	require.NoError(t, err)

	out := r.Process([]float32{0, 1, 0, -1})
	assert.Len(t, out, 8)

	// Interpolated midpoints sit halfway between neighbors.
	assert.InDelta(t, 0.5, out[1], 0.001)
	assert.InDelta(t, 1.0, out[2], 0.001)
	assert.InDelta(t, 0.5, out[3], 0.001)
}

func TestDownsampleHalves(t *testing.T) {
	r, err := New(44100, 22050)
	require.NoError(t, err)

	in := make([]float32, 100)
	for i := range in {
		in[i] = float32(i)
	}
	out := r.Process(in)

	assert.Len(t, out, 50)
	assert.Equal(t, float32(0), out[0])
	assert.InDelta(t, 2.0, out[1], 0.001)
}

func TestToNative(t *testing.T) {
	clip := &audio.Clip{Samples: []float32{0, 1, 0, -1}, SampleRate: 22050}

	native, err := ToNative(clip, 44100)
	require.NoError(t, err)
	assert.Equal(t, 44100, native.SampleRate)
	assert.Len(t, native.Samples, 8)

	same, err := ToNative(clip, 22050)
	require.NoError(t, err)
	assert.Same(t, clip, same)
}
