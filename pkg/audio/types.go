// ABOUTME: Audio type definitions
// ABOUTME: Mono float32 clips and PCM sample conversion helpers
package audio

import "time"

// Clip is a fully decoded mono recording in the [-1, 1] float range.
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Duration reports the clip length in wall time.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// SampleFromInt16 converts a 16-bit PCM sample to float.
func SampleFromInt16(sample int16) float32 {
	return float32(sample) / 32768
}

// SampleToInt16 converts a [-1, 1] float sample to 16-bit PCM.
func SampleToInt16(sample float32) int16 {
	if sample > 1 {
		sample = 1
	}
	if sample < -1 {
		sample = -1
	}
	return int16(sample * 32767)
}

// SampleFromInt converts an integer PCM sample of the given bit depth
// (8, 16, 24 or 32) to float.
func SampleFromInt(sample int, bitDepth int) float32 {
	scale := float32(int64(1) << (bitDepth - 1))
	return float32(sample) / scale
}

// MixToMono averages interleaved multi-channel samples down to one channel.
// Mono input is returned unchanged.
func MixToMono(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}

	frames := len(interleaved) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += interleaved[i*channels+ch]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}
