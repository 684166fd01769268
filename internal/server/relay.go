// ABOUTME: UDP relay that queues per-client audio and mixes it on a fixed tick
// ABOUTME: Ingress decodes datagrams; the mixer sums one block per client and broadcasts
package server

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Squelch-Radio/squelch-go/internal/protocol"
)

// Config holds relay configuration.
type Config struct {
	Port int

	// EchoToSender controls whether the mixed block also goes back to the
	// clients whose audio contributed to it. The original behavior is
	// true: an active talker hears themselves mixed in.
	EchoToSender bool

	// MonitorAddr, when non-empty, serves live relay stats over HTTP/
	// WebSocket on that address.
	MonitorAddr string
}

// clientEntry tracks one registered client: its address and the FIFO of
// audio blocks waiting to be mixed. Entries are created on the first
// packet from an address and live for the relay's lifetime; LastSeen is
// recorded so an eviction sweep could be added, but none runs.
type clientEntry struct {
	ID       string
	Addr     *net.UDPAddr
	Queue    []protocol.Block
	LastSeen time.Time
}

// inbound is one decoded datagram handed from ingress to the mixer.
type inbound struct {
	pkt  protocol.Packet
	addr *net.UDPAddr
}

// Relay fans audio between clients. The ingress goroutine performs
// blocking receive-and-decode; the mixer goroutine owns the registry and
// runs the fixed-period mix/broadcast cycle. The registry is never touched
// from anywhere else.
type Relay struct {
	cfg  Config
	conn *net.UDPConn
	log  *logrus.Entry

	ingress chan inbound
	clients map[string]*clientEntry

	received   atomic.Uint64
	decodeErrs atomic.Uint64
	ticks      atomic.Uint64
	mixed      atomic.Uint64
	broadcasts atomic.Uint64
	numClients atomic.Int64
}

// Stats is a snapshot of relay counters for logs and the monitor.
type Stats struct {
	Clients      int64  `json:"clients"`
	Received     uint64 `json:"received"`
	DecodeErrors uint64 `json:"decode_errors"`
	Ticks        uint64 `json:"ticks"`
	MixedBlocks  uint64 `json:"mixed_blocks"`
	Broadcasts   uint64 `json:"broadcasts"`
}

// New creates a relay listening on cfg.Port.
func New(cfg Config) (*Relay, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: cfg.Port})
	if err != nil {
		return nil, fmt.Errorf("server: bind port %d: %w", cfg.Port, err)
	}

	return &Relay{
		cfg:     cfg,
		conn:    conn,
		log:     logrus.WithField("component", "relay"),
		ingress: make(chan inbound, 256),
		clients: make(map[string]*clientEntry),
	}, nil
}

// Addr returns the bound UDP address.
func (r *Relay) Addr() *net.UDPAddr {
	return r.conn.LocalAddr().(*net.UDPAddr)
}

// Stats returns a snapshot of the relay counters.
func (r *Relay) Stats() Stats {
	return Stats{
		Clients:      r.numClients.Load(),
		Received:     r.received.Load(),
		DecodeErrors: r.decodeErrs.Load(),
		Ticks:        r.ticks.Load(),
		MixedBlocks:  r.mixed.Load(),
		Broadcasts:   r.broadcasts.Load(),
	}
}

// Run starts ingress and the monitor (if configured) and then runs the mix
// loop until ctx is cancelled or the socket fails.
func (r *Relay) Run(ctx context.Context) error {
	r.log.WithField("addr", r.Addr()).Info("relay listening")

	ingressErr := make(chan error, 1)
	go func() { ingressErr <- r.runIngress(ctx) }()

	if r.cfg.MonitorAddr != "" {
		go r.runMonitor(ctx)
	}

	ticker := time.NewTicker(protocol.BlockInterval)
	defer ticker.Stop()
	defer r.conn.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-ingressErr:
			return err
		case <-ticker.C:
			r.drainIngress()
			r.mixAndBroadcast()
			r.ticks.Add(1)
		}
	}
}

// runIngress blocks on the socket, decodes datagrams and forwards them to
// the mixer. Decode failures are logged and dropped; socket errors other
// than deadline noise are fatal.
func (r *Relay) runIngress(ctx context.Context) error {
	buf := make([]byte, protocol.MaxPacketSize)

	for {
		n, addr, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fmt.Errorf("server: receive: %w", err)
		}

		pkt, err := protocol.Decode(buf[:n])
		if err != nil {
			r.decodeErrs.Add(1)
			r.log.WithError(err).WithField("from", addr).Warn("dropping undecodable packet")
			continue
		}
		r.received.Add(1)

		select {
		case r.ingress <- inbound{pkt: pkt, addr: addr}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drainIngress applies every queued inbound packet to the registry without
// blocking the tick.
func (r *Relay) drainIngress() {
	for {
		select {
		case in := <-r.ingress:
			r.apply(in)
		default:
			return
		}
	}
}

// apply upserts the sender's registry entry; Audio payloads join the
// sender's pending queue.
func (r *Relay) apply(in inbound) {
	key := in.addr.String()
	entry, ok := r.clients[key]
	if !ok {
		entry = &clientEntry{
			ID:   uuid.New().String(),
			Addr: in.addr,
		}
		r.clients[key] = entry
		r.numClients.Store(int64(len(r.clients)))
		r.log.WithFields(logrus.Fields{
			"client": entry.ID,
			"addr":   key,
		}).Info("client registered")
	}
	entry.LastSeen = time.Now()

	if in.pkt.Type == protocol.PacketAudio {
		entry.Queue = append(entry.Queue, in.pkt.Block)
	}
}

// mixAndBroadcast pops at most one pending block per client, sums them
// sample-wise with clamping, and broadcasts the mix unless it is silent.
func (r *Relay) mixAndBroadcast() {
	var mix protocol.Block
	contributors := make(map[string]bool)

	for key, entry := range r.clients {
		if len(entry.Queue) == 0 {
			continue
		}
		block := entry.Queue[0]
		entry.Queue = entry.Queue[1:]
		contributors[key] = true

		for i := range mix {
			mix[i] = clamp(mix[i] + block[i])
		}
	}

	if len(contributors) == 0 || isSilent(&mix) {
		// Idle clients are not flooded with silence.
		return
	}
	r.mixed.Add(1)

	data := protocol.Encode(protocol.Audio(mix))
	for key, entry := range r.clients {
		if !r.cfg.EchoToSender && contributors[key] {
			continue
		}
		if _, err := r.conn.WriteToUDP(data, entry.Addr); err != nil {
			r.log.WithError(err).WithField("client", entry.ID).Warn("broadcast failed")
			continue
		}
		r.broadcasts.Add(1)
	}
}

func isSilent(b *protocol.Block) bool {
	for _, s := range b {
		if s != 0 {
			return false
		}
	}
	return true
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
