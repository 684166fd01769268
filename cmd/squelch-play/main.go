// ABOUTME: Entry point for the file playback tool
// ABOUTME: Streams an audio file into a relay at the block rate
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Squelch-Radio/squelch-go/internal/protocol"
	"github.com/Squelch-Radio/squelch-go/pkg/audio/decode"
	"github.com/Squelch-Radio/squelch-go/pkg/audio/resample"
)

var (
	relayAddr = flag.String("relay", fmt.Sprintf("127.0.0.1:%d", protocol.DefaultPort), "Relay address as host:port")
	gain      = flag.Float64("gain", 1.0, "Playback gain applied before sending")
	loop      = flag.Bool("loop", false, "Restart the file when it ends")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logrus.WithField("component", "play")

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file.wav|file.mp3|file.flac>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	clip, err := decode.Open(path)
	if err != nil {
		log.WithError(err).Fatal("failed to decode file")
	}

	clip, err = resample.ToNative(clip, protocol.SampleRate)
	if err != nil {
		log.WithError(err).Fatal("failed to resample")
	}

	log.WithFields(logrus.Fields{
		"file":     path,
		"duration": clip.Duration().Round(time.Millisecond),
		"samples":  len(clip.Samples),
	}).Info("decoded")

	addr, err := net.ResolveUDPAddr("udp", *relayAddr)
	if err != nil {
		log.WithError(err).Fatal("bad relay address")
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		log.WithError(err).Fatal("failed to dial relay")
	}
	defer conn.Close()

	if _, err := conn.Write(protocol.Encode(protocol.Ping())); err != nil {
		log.WithError(err).Fatal("failed to register with relay")
	}
	log.WithField("relay", addr).Info("streaming")

	for {
		if err := stream(conn, clip.Samples, float32(*gain)); err != nil {
			log.WithError(err).Fatal("stream failed")
		}
		if !*loop {
			break
		}
	}

	log.Info("done")
}

// stream sends the samples as audio blocks, paced at the block interval so
// the relay's per-tick queues never back up.
func stream(conn *net.UDPConn, samples []float32, gain float32) error {
	ticker := time.NewTicker(protocol.BlockInterval)
	defer ticker.Stop()

	for off := 0; off < len(samples); off += protocol.BlockSize {
		var block protocol.Block
		for i := 0; i < protocol.BlockSize && off+i < len(samples); i++ {
			s := samples[off+i] * gain
			if s > 1 {
				s = 1
			}
			if s < -1 {
				s = -1
			}
			block[i] = s
		}

		if _, err := conn.Write(protocol.Encode(protocol.Audio(block))); err != nil {
			return fmt.Errorf("send block: %w", err)
		}
		<-ticker.C
	}
	return nil
}
