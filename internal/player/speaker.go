// ABOUTME: Speaker pipeline from session blocks to the audio device
// ABOUTME: Pacing buffer feeds a thread-safe sample queue read by oto
package player

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"github.com/Squelch-Radio/squelch-go/internal/jitter"
	"github.com/Squelch-Radio/squelch-go/internal/protocol"
)

// Speaker plays received blocks. Blocks pass through the pacing buffer so
// irregular network arrival turns into burst writes against the steady
// pull of the audio device; the device reads silence whenever the queue
// runs dry, exactly like a real receiver between transmissions.
type Speaker struct {
	log    *logrus.Entry
	pacing *jitter.Buffer[protocol.Block]
	queue  *sampleQueue

	otoCtx *oto.Context
	player *oto.Player
}

// NewSpeaker creates a speaker with the given pacing capacity in blocks.
func NewSpeaker(pacingBlocks int) *Speaker {
	return &Speaker{
		log:    logrus.WithField("component", "speaker"),
		pacing: jitter.New[protocol.Block](pacingBlocks),
		queue:  newSampleQueue(),
	}
}

// Start opens the audio device. Must be called once, before Run.
func (s *Speaker) Start() error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   protocol.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("player: open audio device: %w", err)
	}
	<-ready

	s.otoCtx = ctx
	s.player = ctx.NewPlayer(s.queue)
	s.player.Play()

	s.log.WithField("sample_rate", protocol.SampleRate).Info("audio output started")
	return nil
}

// Run consumes blocks from in until ctx is cancelled or in closes.
func (s *Speaker) Run(ctx context.Context, in <-chan protocol.Block) {
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-in:
			if !ok {
				return
			}
			s.feed(b)
		}
	}
}

// feed pushes one block through the pacing buffer, flushing the drained
// batch into the sample queue once the bound trips.
func (s *Speaker) feed(b protocol.Block) {
	if drained := s.pacing.PushAndDrain(b); drained != nil {
		for _, d := range drained {
			s.queue.append(d[:])
		}
	}
}

// Close stops playback.
func (s *Speaker) Close() {
	if s.player != nil {
		_ = s.player.Close()
	}
	if s.otoCtx != nil {
		_ = s.otoCtx.Suspend()
	}
}

// sampleQueue is the io.Reader handed to oto. The device goroutine reads
// int16 little-endian; the session side appends float32 samples. When the
// queue is empty the reader emits silence instead of blocking, which keeps
// the device clock running.
type sampleQueue struct {
	mu      sync.Mutex
	samples []float32
}

func newSampleQueue() *sampleQueue {
	return &sampleQueue{}
}

func (q *sampleQueue) append(samples []float32) {
	q.mu.Lock()
	q.samples = append(q.samples, samples...)
	q.mu.Unlock()
}

func (q *sampleQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.samples)
}

// Read fills p with int16 LE audio, zero-filling past the queued samples.
func (q *sampleQueue) Read(p []byte) (int, error) {
	n := len(p) / 2 // samples that fit

	q.mu.Lock()
	take := n
	if take > len(q.samples) {
		take = len(q.samples)
	}
	for i := 0; i < take; i++ {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(sampleToInt16(q.samples[i])))
	}
	q.samples = q.samples[:copy(q.samples, q.samples[take:])]
	q.mu.Unlock()

	for i := take; i < n; i++ {
		binary.LittleEndian.PutUint16(p[i*2:], 0)
	}

	return n * 2, nil
}

// sampleToInt16 converts a [-1, 1] float sample to 16-bit PCM.
func sampleToInt16(s float32) int16 {
	if s > 1 {
		s = 1
	}
	if s < -1 {
		s = -1
	}
	return int16(s * 32767)
}
