// ABOUTME: Sample rate conversion using linear interpolation
// ABOUTME: Converts decoded clips to the radio's native rate
package resample

import (
	"fmt"

	"github.com/Squelch-Radio/squelch-go/pkg/audio"
)

// Resampler converts mono audio between sample rates by linear
// interpolation. Good enough for voice; not meant for hi-fi material.
type Resampler struct {
	inputRate  int
	outputRate int
	ratio      float64
}

// New creates a resampler for the given rate pair.
func New(inputRate, outputRate int) (*Resampler, error) {
	if inputRate <= 0 || outputRate <= 0 {
		return nil, fmt.Errorf("resample: invalid rates %d -> %d", inputRate, outputRate)
	}
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		ratio:      float64(inputRate) / float64(outputRate),
	}, nil
}

// Process resamples a mono buffer in one shot.
func (r *Resampler) Process(input []float32) []float32 {
	if r.inputRate == r.outputRate || len(input) == 0 {
		out := make([]float32, len(input))
		copy(out, input)
		return out
	}

	outLen := int(float64(len(input)) / r.ratio)
	output := make([]float32, 0, outLen)

	pos := 0.0
	for i := 0; i < outLen; i++ {
		idx := int(pos)
		if idx >= len(input)-1 {
			output = append(output, input[len(input)-1])
		} else {
			frac := float32(pos - float64(idx))
			output = append(output, input[idx]*(1-frac)+input[idx+1]*frac)
		}
		pos += r.ratio
	}

	return output
}

// ToNative resamples a clip to the given rate, reusing the clip when the
// rate already matches.
func ToNative(clip *audio.Clip, rate int) (*audio.Clip, error) {
	if clip.SampleRate == rate {
		return clip, nil
	}

	r, err := New(clip.SampleRate, rate)
	if err != nil {
		return nil, err
	}
	return &audio.Clip{Samples: r.Process(clip.Samples), SampleRate: rate}, nil
}
