// ABOUTME: Entry point for the channel recording tool
// ABOUTME: Captures relay traffic into a WAV file until interrupted
package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Squelch-Radio/squelch-go/internal/protocol"
	"github.com/Squelch-Radio/squelch-go/pkg/audio"
	"github.com/Squelch-Radio/squelch-go/pkg/audio/encode"
)

var (
	relayAddr = flag.String("relay", fmt.Sprintf("127.0.0.1:%d", protocol.DefaultPort), "Relay address as host:port")
	output    = flag.String("o", "capture.wav", "Output WAV file path")
	duration  = flag.Duration("duration", 0, "Stop after this long (0 means record until Ctrl-C)")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logrus.WithField("component", "record")

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
	log.WithField("relay", addr).Info("recording; Ctrl-C to stop")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	deadline := time.Time{}
	if *duration > 0 {
		deadline = time.Now().Add(*duration)
	}

	samples := capture(conn, stop, deadline, log)
	if len(samples) == 0 {
		log.Warn("nothing received, not writing a file")
		return
	}

	clip := &audio.Clip{Samples: samples, SampleRate: protocol.SampleRate}
	if err := encode.WriteWAV(*output, clip); err != nil {
		log.WithError(err).Fatal("failed to write output")
	}

	log.WithFields(logrus.Fields{
		"file":     *output,
		"duration": clip.Duration().Round(time.Millisecond),
	}).Info("saved")
}

// capture reads audio packets until a signal arrives or the deadline
// passes. Decode failures and pings are skipped.
func capture(conn *net.UDPConn, stop <-chan os.Signal, deadline time.Time, log *logrus.Entry) []float32 {
	var samples []float32
	buf := make([]byte, protocol.MaxPacketSize)

	for {
		select {
		case <-stop:
			return samples
		default:
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return samples
		}

		// Short deadline keeps the stop channel responsive.
		if err := conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond)); err != nil {
			log.WithError(err).Error("set read deadline")
			return samples
		}

		n, err := conn.Read(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			log.WithError(err).Error("read failed")
			return samples
		}

		pkt, err := protocol.Decode(buf[:n])
		if err != nil || pkt.Type != protocol.PacketAudio {
			continue
		}
		samples = append(samples, pkt.Block[:]...)
	}
}
