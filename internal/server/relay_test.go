// ABOUTME: Tests for the relay registry, mixer and broadcast paths
// ABOUTME: Deterministic mixer unit tests plus a loopback end-to-end pass
package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Squelch-Radio/squelch-go/internal/protocol"
)

// testClient is a loopback UDP socket posing as a radio client.
type testClient struct {
	conn *net.UDPConn
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testClient{conn: conn}
}

func (c *testClient) addr() *net.UDPAddr {
	a := c.conn.LocalAddr().(*net.UDPAddr)
	// The relay sees loopback sources as 127.0.0.1.
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: a.Port}
}

func (c *testClient) recvAudio(t *testing.T, timeout time.Duration) (protocol.Block, bool) {
	t.Helper()
	buf := make([]byte, protocol.MaxPacketSize)
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(timeout)))
	n, _, err := c.conn.ReadFromUDP(buf)
	if err != nil {
		return protocol.Block{}, false
	}
	pkt, err := protocol.Decode(buf[:n])
	require.NoError(t, err)
	require.Equal(t, protocol.PacketAudio, pkt.Type)
	return pkt.Block, true
}

func newTestRelay(t *testing.T, cfg Config) *Relay {
	t.Helper()
	r, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { r.conn.Close() })
	return r
}

func uniformBlock(v float32) protocol.Block {
	var b protocol.Block
	for i := range b {
		b[i] = v
	}
	return b
}

func TestApplyRegistersOnFirstPacket(t *testing.T) {
	r := newTestRelay(t, Config{EchoToSender: true})
	a := newTestClient(t)

	r.apply(inbound{pkt: protocol.Ping(), addr: a.addr()})
	require.Len(t, r.clients, 1)

	entry := r.clients[a.addr().String()]
	assert.NotEmpty(t, entry.ID)
	assert.Empty(t, entry.Queue)
	assert.False(t, entry.LastSeen.IsZero())

	// Audio from an unseen address registers too, queueing the block.
	b := newTestClient(t)
	r.apply(inbound{pkt: protocol.Audio(uniformBlock(0.1)), addr: b.addr()})
	require.Len(t, r.clients, 2)
	assert.Len(t, r.clients[b.addr().String()].Queue, 1)
}

func TestMixClampsSimultaneousTalkers(t *testing.T) {
	r := newTestRelay(t, Config{EchoToSender: true})
	a := newTestClient(t)
	b := newTestClient(t)

	r.apply(inbound{pkt: protocol.Audio(uniformBlock(0.6)), addr: a.addr()})
	r.apply(inbound{pkt: protocol.Audio(uniformBlock(0.6)), addr: b.addr()})

	r.mixAndBroadcast()

	// 0.6 + 0.6 clamps to 1.0, delivered to both contributors.
	for _, c := range []*testClient{a, b} {
		got, ok := c.recvAudio(t, time.Second)
		require.True(t, ok)
		assert.Equal(t, uniformBlock(1.0), got)
	}
}

func TestMixPopsOneBlockPerClientPerTick(t *testing.T) {
	r := newTestRelay(t, Config{EchoToSender: true})
	a := newTestClient(t)

	r.apply(inbound{pkt: protocol.Audio(uniformBlock(0.2)), addr: a.addr()})
	r.apply(inbound{pkt: protocol.Audio(uniformBlock(0.4)), addr: a.addr()})

	r.mixAndBroadcast()
	got, ok := a.recvAudio(t, time.Second)
	require.True(t, ok)
	assert.Equal(t, uniformBlock(0.2), got)

	r.mixAndBroadcast()
	got, ok = a.recvAudio(t, time.Second)
	require.True(t, ok)
	assert.Equal(t, uniformBlock(0.4), got)
}

func TestSilentMixIsNotBroadcast(t *testing.T) {
	r := newTestRelay(t, Config{EchoToSender: true})
	a := newTestClient(t)

	r.apply(inbound{pkt: protocol.Audio(protocol.Block{}), addr: a.addr()})
	r.mixAndBroadcast()

	_, ok := a.recvAudio(t, 100*time.Millisecond)
	assert.False(t, ok, "all-zero mix must not be broadcast")
	assert.Zero(t, r.Stats().Broadcasts)
}

func TestIdleTickBroadcastsNothing(t *testing.T) {
	r := newTestRelay(t, Config{EchoToSender: true})
	a := newTestClient(t)

	r.apply(inbound{pkt: protocol.Ping(), addr: a.addr()})
	r.mixAndBroadcast()

	_, ok := a.recvAudio(t, 100*time.Millisecond)
	assert.False(t, ok)
}

// Self-echo is an open design point: the original relay echoes the mix
// back to active talkers. Both settings are pinned down here.
func TestEchoToSenderConfigurable(t *testing.T) {
	t.Run("echo enabled sends to contributor", func(t *testing.T) {
		r := newTestRelay(t, Config{EchoToSender: true})
		a := newTestClient(t)

		r.apply(inbound{pkt: protocol.Audio(uniformBlock(0.5)), addr: a.addr()})
		r.mixAndBroadcast()

		_, ok := a.recvAudio(t, time.Second)
		assert.True(t, ok)
	})

	t.Run("echo disabled skips contributor", func(t *testing.T) {
		r := newTestRelay(t, Config{EchoToSender: false})
		a := newTestClient(t)
		b := newTestClient(t)

		r.apply(inbound{pkt: protocol.Ping(), addr: b.addr()})
		r.apply(inbound{pkt: protocol.Audio(uniformBlock(0.5)), addr: a.addr()})
		r.mixAndBroadcast()

		_, ok := a.recvAudio(t, 100*time.Millisecond)
		assert.False(t, ok, "contributor must not hear itself")

		got, ok := b.recvAudio(t, time.Second)
		require.True(t, ok)
		assert.Equal(t, uniformBlock(0.5), got)
	})
}

func TestEndToEndOverLoopback(t *testing.T) {
	r := newTestRelay(t, Config{EchoToSender: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	relayAddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: r.Addr().Port}
	a := newTestClient(t)

	// Register, then talk.
	_, err := a.conn.WriteToUDP(protocol.Encode(protocol.Ping()), relayAddr)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return r.Stats().Clients == 1
	}, time.Second, 5*time.Millisecond)

	_, err = a.conn.WriteToUDP(protocol.Encode(protocol.Audio(uniformBlock(0.3))), relayAddr)
	require.NoError(t, err)

	got, ok := a.recvAudio(t, time.Second)
	require.True(t, ok)
	assert.Equal(t, uniformBlock(0.3), got)

	// An all-zero transmission is mixed but never broadcast.
	_, err = a.conn.WriteToUDP(protocol.Encode(protocol.Audio(protocol.Block{})), relayAddr)
	require.NoError(t, err)
	_, ok = a.recvAudio(t, 200*time.Millisecond)
	assert.False(t, ok)
}

func TestIngressDropsUndecodablePackets(t *testing.T) {
	r := newTestRelay(t, Config{EchoToSender: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	relayAddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: r.Addr().Port}
	a := newTestClient(t)

	_, err := a.conn.WriteToUDP([]byte{0x99, 0x01}, relayAddr)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return r.Stats().DecodeErrors == 1
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, r.Stats().Clients, "bad packet must not register a client")
}
