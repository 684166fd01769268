// ABOUTME: Fractal noise source for synthetic radio static
// ABOUTME: fBm octave stack over OpenSimplex with a monotonic coordinate
package fx

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

const (
	noiseOctaves     = 6
	noiseLacunarity  = 2.0
	noisePersistence = 0.5
)

// noiseSource produces continuous fractal noise by walking a single
// coordinate through fractional-Brownian-motion layered OpenSimplex.
// The coordinate only ever advances; resetting it mid-session would cause
// an audible discontinuity in the static bed.
type noiseSource struct {
	simplex opensimplex.Noise
	idx     float64
	norm    float64
}

func newNoiseSource(seed int64) *noiseSource {
	// Normalization factor so the octave sum stays within [-1, 1].
	norm := 0.0
	amp := 1.0
	for i := 0; i < noiseOctaves; i++ {
		norm += amp
		amp *= noisePersistence
	}

	return &noiseSource{
		simplex: opensimplex.New(seed),
		norm:    norm,
	}
}

// next returns one noise sample and advances the coordinate by step.
func (n *noiseSource) next(step float64) float32 {
	sum := 0.0
	freq := 1.0
	amp := 1.0
	for i := 0; i < noiseOctaves; i++ {
		sum += amp * n.simplex.Eval2(n.idx*freq, n.idx*freq)
		freq *= noiseLacunarity
		amp *= noisePersistence
	}
	n.idx += step

	return float32(sum / n.norm)
}
