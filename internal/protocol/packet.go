// ABOUTME: Radio wire protocol packet definitions and binary codec
// ABOUTME: Fixed-size float32 sample blocks framed as UDP datagrams
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// BlockSize is the number of float32 samples carried by one Audio
	// packet. Every component frames, mixes and processes whole blocks;
	// partial blocks never cross a boundary.
	BlockSize = 256

	// SampleRate is the shared mono sample rate in Hz.
	SampleRate = 44100

	// MaxPacketSize bounds the encoded size of any packet so receivers
	// can use a fixed buffer: tag byte plus the largest payload, with a
	// little slack for transports that pad.
	MaxPacketSize = 4*BlockSize + 8

	// DefaultPort is the relay's well-known UDP port.
	DefaultPort = 1837
)

// BlockInterval is the nominal wall-clock time between consecutive Audio
// packets of a continuous transmission: BlockSize samples at SampleRate.
var BlockInterval = time.Second * BlockSize / SampleRate

// PacketType identifies the kind of a radio packet.
type PacketType byte

const (
	// PacketPing registers the sender's address with the relay. No payload.
	PacketPing PacketType = 0

	// PacketAudio carries exactly one Block of samples.
	PacketAudio PacketType = 1
)

// Block is one fixed-length chunk of mono float32 samples, the atomic
// unit of transport and processing.
type Block [BlockSize]float32

// Packet is the tagged union sent over the wire: a Ping or one Audio block.
type Packet struct {
	Type  PacketType
	Block Block // valid only when Type == PacketAudio
}

// Decode errors. Callers log and discard; a bad datagram never affects
// session or registry state.
var (
	ErrEmptyPacket   = errors.New("protocol: empty packet")
	ErrShortPacket   = errors.New("protocol: truncated audio payload")
	ErrUnknownPacket = errors.New("protocol: unknown packet type")
)

// Ping returns a Ping packet.
func Ping() Packet {
	return Packet{Type: PacketPing}
}

// Audio returns an Audio packet carrying the given block.
func Audio(b Block) Packet {
	return Packet{Type: PacketAudio, Block: b}
}

// Encode serializes a packet for transmission.
//
// Layout: [tag (1 byte)][BlockSize x float32 little-endian, Audio only].
func Encode(p Packet) []byte {
	if p.Type == PacketPing {
		return []byte{byte(PacketPing)}
	}

	buf := make([]byte, 1+4*BlockSize)
	buf[0] = byte(PacketAudio)
	for i, s := range p.Block {
		binary.LittleEndian.PutUint32(buf[1+4*i:], math.Float32bits(s))
	}
	return buf
}

// Decode parses a received datagram back into a Packet.
//
// Malformed or truncated input yields an error, never a panic. Trailing
// bytes beyond a full frame are ignored so receivers can pass their whole
// fixed buffer for a datagram of known length n via data[:n].
func Decode(data []byte) (Packet, error) {
	if len(data) == 0 {
		return Packet{}, ErrEmptyPacket
	}

	switch PacketType(data[0]) {
	case PacketPing:
		return Ping(), nil

	case PacketAudio:
		if len(data) < 1+4*BlockSize {
			return Packet{}, fmt.Errorf("%w: got %d bytes, need %d",
				ErrShortPacket, len(data), 1+4*BlockSize)
		}
		var b Block
		for i := range b {
			b[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[1+4*i:]))
		}
		return Audio(b), nil

	default:
		return Packet{}, fmt.Errorf("%w: tag %d", ErrUnknownPacket, data[0])
	}
}
