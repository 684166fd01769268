// ABOUTME: Entry point for the Squelch radio client
// ABOUTME: Parses CLI flags and wires the session, speaker and TUI together
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/Squelch-Radio/squelch-go/internal/client"
	"github.com/Squelch-Radio/squelch-go/internal/config"
	"github.com/Squelch-Radio/squelch-go/internal/discovery"
	"github.com/Squelch-Radio/squelch-go/internal/fx"
	"github.com/Squelch-Radio/squelch-go/internal/player"
	"github.com/Squelch-Radio/squelch-go/internal/protocol"
	"github.com/Squelch-Radio/squelch-go/internal/ui"
)

var (
	relayAddr  = flag.String("relay", "", "Relay address as host:port (skip mDNS discovery)")
	configPath = flag.String("config", "squelch.yaml", "Configuration file path")
	noFX       = flag.Bool("no-fx", false, "Disable the radio effects chain")
	gain       = flag.Float64("gain", 0, "Receive gain (overrides config)")
	distortion = flag.Float64("distortion", 0, "Distortion threshold (overrides config)")
	micGain    = flag.Float64("mic-gain", 0, "Microphone gain (overrides config)")
	tone       = flag.Bool("tone", false, "Transmit a 440 Hz test tone instead of microphone input")
	logFile    = flag.String("log-file", "squelch.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead (receive-only)")
)

func main() {
	flag.Parse()
	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if useTUI {
		// TUI mode: the terminal belongs to bubbletea, log only to file.
		logrus.SetOutput(f)
	} else {
		logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	log := logrus.WithField("component", "main")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	applyFlags(&cfg.Client)

	addr, err := resolveRelay(cfg.Client.Relay, log)
	if err != nil {
		log.WithError(err).Fatal("no relay available")
	}
	log.WithField("relay", addr).Info("using relay")

	controls := ui.NewControls()
	mic := make(chan []float32, 16)

	sess, err := client.New(client.Config{
		RelayAddr: addr,
		MicGain:   cfg.Client.MicGain,
		FX: fx.Config{
			Enabled:    cfg.Client.Effects,
			Gain:       cfg.Client.Gain,
			Distortion: cfg.Client.Distortion,
		},
	}, mic, controls.PTT)
	if err != nil {
		log.WithError(err).Fatal("failed to create session")
	}

	spk := player.NewSpeaker(cfg.Client.PacingBlocks)
	if err := spk.Start(); err != nil {
		log.WithError(err).Fatal("failed to open audio output")
	}
	defer spk.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go spk.Run(ctx, sess.Speaker())
	if *tone {
		go toneSource(ctx, mic)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- sess.Run(ctx) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if useTUI {
		prog := ui.Run(controls)
		go statusLoop(ctx, sess, addr.String(), cfg.Client.Effects, prog.Send)

		go func() {
			select {
			case <-controls.Quit:
			case <-sigChan:
				prog.Quit()
			case err := <-errCh:
				if err != nil && ctx.Err() == nil {
					log.WithError(err).Error("session failed")
				}
				prog.Quit()
			}
			cancel()
		}()

		if _, err := prog.Run(); err != nil {
			log.WithError(err).Error("TUI failed")
		}
	} else {
		log.Info("running without TUI; receive-only until interrupted")
		select {
		case <-sigChan:
			log.Info("shutdown signal received")
		case err := <-errCh:
			if err != nil {
				log.WithError(err).Error("session failed")
			}
		}
	}

	cancel()
	log.Info("client stopped")
}

// applyFlags overrides config values with explicitly set flags.
func applyFlags(c *config.Client) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "relay":
			c.Relay = *relayAddr
		case "no-fx":
			c.Effects = !*noFX
		case "gain":
			c.Gain = float32(*gain)
		case "distortion":
			c.Distortion = float32(*distortion)
		case "mic-gain":
			c.MicGain = float32(*micGain)
		}
	})
}

// resolveRelay turns a configured address into a UDP address, falling back
// to mDNS discovery when none is configured.
func resolveRelay(configured string, log *logrus.Entry) (*net.UDPAddr, error) {
	if configured != "" {
		addr, err := net.ResolveUDPAddr("udp", configured)
		if err != nil {
			return nil, fmt.Errorf("resolve relay %q: %w", configured, err)
		}
		return addr, nil
	}

	log.Info("no relay configured, browsing via mDNS")
	disc := discovery.NewManager("", 0)
	disc.Browse()
	defer disc.Stop()

	select {
	case relay := <-disc.Relays():
		return net.ResolveUDPAddr("udp", relay.Addr())
	case <-time.After(10 * time.Second):
		return nil, fmt.Errorf("no relay found after 10 seconds")
	}
}

// toneSource feeds a steady 440 Hz sine into the mic channel. Useful for
// exercising a relay without audio capture hardware.
func toneSource(ctx context.Context, mic chan<- []float32) {
	const chunk = 441 // 10ms at the native rate

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	phase := 0.0
	step := 2 * math.Pi * 440 / float64(protocol.SampleRate)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			samples := make([]float32, chunk)
			for i := range samples {
				samples[i] = float32(0.5 * math.Sin(phase))
				phase += step
			}
			select {
			case mic <- samples:
			default:
			}
		}
	}
}

// statusLoop polls session counters into the TUI.
func statusLoop(ctx context.Context, sess *client.Session, relay string, effects bool, send func(msg tea.Msg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := sess.Stats()
			send(ui.StatusMsg{
				Relay:          relay,
				Transmitting:   stats.Transmitting,
				SignalPresent:  stats.SignalPresent,
				EffectsEnabled: effects,
				BlocksSent:     stats.BlocksSent,
				BlocksReceived: stats.BlocksReceived,
				SquelchBursts:  stats.SquelchBursts,
				DecodeErrors:   stats.DecodeErrors,
			})
		}
	}
}
