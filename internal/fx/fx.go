// ABOUTME: Radio effects engine applied to received sample blocks
// ABOUTME: Distortion, fractal static and band filtering plus squelch tails
package fx

import (
	"github.com/sirupsen/logrus"

	"github.com/Squelch-Radio/squelch-go/internal/protocol"
)

const (
	// Cutoffs shaping the narrow-band "radio" channel.
	lowPassCutoffHz  = 8000
	highPassCutoffHz = 400

	// Noise coordinate step during normal processing and during squelch
	// generation; the larger squelch step makes the tail hiss brighter.
	runNoiseStep     = 0.005
	squelchNoiseStep = 0.03

	// Fixed-proportion static mixed under every processed sample.
	noiseMix = 0.3

	// squelchBlocks is the length of the release static burst.
	squelchBlocks = 8

	// squelchLevel scales raw noise before it is sent through Run to
	// synthesize the tail.
	squelchLevel = 0.1
)

// Config carries the tunable effect parameters. Values are clamped at use;
// validation belongs to the layer that produced them.
type Config struct {
	Enabled    bool
	Gain       float32 // incoming-signal gain multiplier
	Distortion float32 // clipping threshold, (0, 1]
}

// Unit conditions received audio so it sounds like a radio transmission.
// Filter and noise state persist across calls; a Unit must only ever be
// driven from a single goroutine.
type Unit struct {
	cfg Config

	noise    *noiseSource
	lowpass  *biquad
	highpass *biquad
}

// New creates an effects unit for one receive session.
func New(cfg Config) *Unit {
	logrus.WithFields(logrus.Fields{
		"enabled":    cfg.Enabled,
		"gain":       cfg.Gain,
		"distortion": cfg.Distortion,
	}).Debug("fx: unit created")

	return &Unit{
		cfg:      cfg,
		noise:    newNoiseSource(0),
		lowpass:  newLowPass(lowPassCutoffHz, protocol.SampleRate),
		highpass: newHighPass(highPassCutoffHz, protocol.SampleRate),
	}
}

// Run transforms one just-received block in place.
//
// Enabled path: clamp to the distortion threshold and rescale toward full
// range (simulated clipping), apply gain, mix in fractal static, clamp to
// [-1, 1], then low-pass and high-pass the block. Disabled path: gain and
// clamp only.
func (u *Unit) Run(b *protocol.Block) {
	if !u.cfg.Enabled {
		for i := range b {
			b[i] = clamp(b[i] * u.cfg.Gain)
		}
		return
	}

	dist := u.cfg.Distortion
	if dist <= 0 {
		dist = 1
	}

	for i := range b {
		n := u.noise.next(runNoiseStep)

		s := clampTo(b[i], dist) * (0.4 / dist)
		s *= u.cfg.Gain
		s += n * noiseMix
		b[i] = clamp(s)
	}

	for i := range b {
		b[i] = u.highpass.run(u.lowpass.run(b[i]))
	}
}

// Squelch synthesizes the release static tail: a fixed count of noise
// blocks pushed through the same Run path as live audio, with the noise
// coordinate advancing at the coarser squelch step. Returns nil when
// effects are disabled.
func (u *Unit) Squelch() []protocol.Block {
	if !u.cfg.Enabled {
		return nil
	}

	blocks := make([]protocol.Block, 0, squelchBlocks)
	for i := 0; i < squelchBlocks; i++ {
		var b protocol.Block
		for j := range b {
			b[j] = u.noise.next(squelchNoiseStep) * squelchLevel
		}
		u.Run(&b)
		blocks = append(blocks, b)
	}

	return blocks
}

func clamp(s float32) float32 {
	return clampTo(s, 1)
}

func clampTo(s, limit float32) float32 {
	if s > limit {
		return limit
	}
	if s < -limit {
		return -limit
	}
	return s
}
