// ABOUTME: Client session loop driving transmit/receive over the relay socket
// ABOUTME: PTT state machine, mic chunking, receive effects and squelch timing
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Squelch-Radio/squelch-go/internal/fx"
	"github.com/Squelch-Radio/squelch-go/internal/protocol"
)

// silenceTimeout is how long the receive side waits after the last Audio
// packet before it declares the remote carrier gone and plays a squelch
// tail. Seven block intervals rides out normal network jitter while still
// reacting quickly when the remote release burst itself was lost.
const silenceTimeout = 7

// Fatal session conditions. The session cannot continue without its audio
// or network leg; the supervising layer decides shutdown policy.
var (
	ErrMicClosed = errors.New("client: microphone channel closed")
	ErrPTTClosed = errors.New("client: push-to-talk channel closed")
)

// Config holds the session parameters supplied by the configuration layer.
type Config struct {
	RelayAddr *net.UDPAddr
	MicGain   float32
	FX        fx.Config
}

// Stats is a snapshot of session counters, safe to read from other
// goroutines (the TUI polls it).
type Stats struct {
	BlocksSent     uint64
	BlocksReceived uint64
	DecodeErrors   uint64
	SquelchBursts  uint64
	SpeakerDrops   uint64
	Transmitting   bool
	SignalPresent  bool
}

// Session owns the relay socket and runs the push-to-talk state machine.
// Microphone capture and speaker playback live on the far side of plain
// channels; the session neither owns nor touches audio hardware.
type Session struct {
	cfg  Config
	conn *net.UDPConn
	fx   *fx.Unit
	log  *logrus.Entry

	mic <-chan []float32
	ptt <-chan bool
	spk chan protocol.Block

	micBuf  []float32
	recvBuf [protocol.MaxPacketSize]byte

	sent         atomic.Uint64
	received     atomic.Uint64
	decodeErrs   atomic.Uint64
	squelches    atomic.Uint64
	speakerDrops atomic.Uint64
	transmitting atomic.Bool
	signal       atomic.Bool
}

// New creates a session bound to an ephemeral local port. mic delivers raw
// capture sample runs of arbitrary length; ptt delivers the transmit
// signal. Playback blocks are read from Speaker().
func New(cfg Config, mic <-chan []float32, ptt <-chan bool) (*Session, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("client: bind: %w", err)
	}

	return &Session{
		cfg:    cfg,
		conn:   conn,
		fx:     fx.New(cfg.FX),
		log:    logrus.WithField("component", "session"),
		mic:    mic,
		ptt:    ptt,
		spk:    make(chan protocol.Block, 64),
		micBuf: make([]float32, 0, 4*protocol.BlockSize),
	}, nil
}

// Speaker returns the channel of blocks ready for playback.
func (s *Session) Speaker() <-chan protocol.Block {
	return s.spk
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	return Stats{
		BlocksSent:     s.sent.Load(),
		BlocksReceived: s.received.Load(),
		DecodeErrors:   s.decodeErrs.Load(),
		SquelchBursts:  s.squelches.Load(),
		SpeakerDrops:   s.speakerDrops.Load(),
		Transmitting:   s.transmitting.Load(),
		SignalPresent:  s.signal.Load(),
	}
}

// Run executes the session loop until ctx is cancelled or a fatal error
// occurs. It registers with the relay, then alternates between the
// Transmitting and Idle states as driven by the PTT stream.
func (s *Session) Run(ctx context.Context) error {
	defer s.conn.Close()

	if err := s.sendPacket(protocol.Ping()); err != nil {
		return fmt.Errorf("client: register with relay: %w", err)
	}
	s.log.WithField("relay", s.cfg.RelayAddr).Info("registered with relay")

	ptt := false
	lastRx := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		newPTT, err := s.pollPTT(ptt)
		if err != nil {
			return err
		}
		if ptt && !newPTT {
			// Release edge: synthesize our own squelch tail locally.
			s.playSquelch()
		}
		ptt = newPTT
		s.transmitting.Store(ptt)

		if ptt {
			if err := s.transmitOnce(); err != nil {
				return err
			}
			continue
		}

		got, err := s.receiveOnce(&lastRx)
		if err != nil {
			return err
		}
		if !got && s.signal.Load() &&
			time.Since(lastRx) >= silenceTimeout*protocol.BlockInterval {
			// The remote release burst never arrived; the carrier is
			// gone, close the channel ourselves.
			s.signal.Store(false)
			s.playSquelch()
		}
	}
}

// pollPTT samples the push-to-talk stream without blocking.
func (s *Session) pollPTT(current bool) (bool, error) {
	select {
	case v, ok := <-s.ptt:
		if !ok {
			return false, ErrPTTClosed
		}
		return v, nil
	default:
		return current, nil
	}
}

// transmitOnce drains newly captured mic samples and sends every complete
// block that has accumulated.
func (s *Session) transmitOnce() error {
	select {
	case samples, ok := <-s.mic:
		if !ok {
			return ErrMicClosed
		}
		s.micBuf = append(s.micBuf, samples...)
	default:
		return nil
	}

	sent := 0
	for len(s.micBuf)-sent*protocol.BlockSize >= protocol.BlockSize {
		var b protocol.Block
		copy(b[:], s.micBuf[sent*protocol.BlockSize:])

		for i := range b {
			b[i] = clamp(b[i] * s.cfg.MicGain)
		}

		if err := s.sendPacket(protocol.Audio(b)); err != nil {
			return err
		}
		s.sent.Add(1)
		sent++
	}
	if sent > 0 {
		s.micBuf = s.micBuf[:copy(s.micBuf, s.micBuf[sent*protocol.BlockSize:])]
	}

	return nil
}

// receiveOnce performs a single non-blocking receive. It reports whether a
// valid Audio packet arrived; decode failures are logged and dropped.
func (s *Session) receiveOnce(lastRx *time.Time) (bool, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return false, fmt.Errorf("client: set read deadline: %w", err)
	}

	n, _, err := s.conn.ReadFromUDP(s.recvBuf[:])
	if err != nil {
		if isWouldBlock(err) {
			return false, nil
		}
		return false, fmt.Errorf("client: receive: %w", err)
	}

	pkt, err := protocol.Decode(s.recvBuf[:n])
	if err != nil {
		s.decodeErrs.Add(1)
		s.log.WithError(err).Warn("dropping undecodable packet")
		return false, nil
	}

	switch pkt.Type {
	case protocol.PacketAudio:
		*lastRx = time.Now()
		s.signal.Store(true)
		s.received.Add(1)

		s.fx.Run(&pkt.Block)
		s.play(pkt.Block)
		return true, nil

	case protocol.PacketPing:
		// The relay never pings clients; noted and dropped.
		s.log.Warn("unexpected ping from relay")
		return false, nil
	}

	return false, nil
}

// playSquelch queues one release static burst for playback.
func (s *Session) playSquelch() {
	burst := s.fx.Squelch()
	for _, b := range burst {
		s.play(b)
	}
	if len(burst) > 0 {
		s.squelches.Add(1)
	}
}

// play hands a block to the playback side without ever blocking the
// session loop; if playback has stalled the block is dropped.
func (s *Session) play(b protocol.Block) {
	select {
	case s.spk <- b:
	default:
		s.speakerDrops.Add(1)
	}
}

// sendPacket writes one packet to the relay. A would-block result counts
// as success; anything else is fatal for the session.
func (s *Session) sendPacket(p protocol.Packet) error {
	_, err := s.conn.WriteToUDP(protocol.Encode(p), s.cfg.RelayAddr)
	if err != nil && !isWouldBlock(err) {
		return fmt.Errorf("client: send: %w", err)
	}
	return nil
}

// isWouldBlock reports whether err is the non-blocking "nothing available"
// case rather than a real socket failure.
func isWouldBlock(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func clamp(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
