// ABOUTME: Entry point for the Squelch relay server
// ABOUTME: Parses CLI flags and runs the UDP mixer loop
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/Squelch-Radio/squelch-go/internal/config"
	"github.com/Squelch-Radio/squelch-go/internal/discovery"
	"github.com/Squelch-Radio/squelch-go/internal/server"
	"github.com/Squelch-Radio/squelch-go/internal/version"
)

var (
	port        = flag.Int("port", 0, "UDP listen port (overrides config)")
	configPath  = flag.String("config", "squelch.yaml", "Configuration file path")
	name        = flag.String("name", "", "Relay friendly name (default: hostname-squelch-relay)")
	logFile     = flag.String("log-file", "squelch-server.log", "Log file path")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	noMDNS      = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	noEcho      = flag.Bool("no-echo", false, "Do not send the mix back to active talkers")
	monitorAddr = flag.String("monitor", "", "HTTP/WebSocket stats address, e.g. :8080 (overrides config)")
)

func main() {
	flag.Parse()

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	log := logrus.WithField("component", "main")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	applyFlags(&cfg.Server)

	relayName := cfg.Server.Name
	if *name != "" {
		relayName = *name
	} else if relayName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		relayName = fmt.Sprintf("%s-squelch-relay", hostname)
	}

	log.WithFields(logrus.Fields{
		"name":    relayName,
		"port":    cfg.Server.Port,
		"version": version.Version,
	}).Info("starting relay")

	relay, err := server.New(server.Config{
		Port:         cfg.Server.Port,
		EchoToSender: cfg.Server.EchoToSender,
		MonitorAddr:  cfg.Server.MonitorAddr,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to start relay")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Server.MDNS {
		disc := discovery.NewManager(relayName, cfg.Server.Port)
		if err := disc.Advertise(); err != nil {
			log.WithError(err).Warn("mDNS advertisement failed; continuing without it")
		} else {
			defer disc.Stop()
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithField("signal", sig).Info("shutting down")
		cancel()
	}()

	if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("relay error")
	}

	log.Info("relay stopped")
}

// applyFlags overrides config values with explicitly set flags.
func applyFlags(s *config.Server) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "port":
			s.Port = *port
		case "no-mdns":
			s.MDNS = !*noMDNS
		case "no-echo":
			s.EchoToSender = !*noEcho
		case "monitor":
			s.MonitorAddr = *monitorAddr
		}
	})
}
