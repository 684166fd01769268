// ABOUTME: YAML configuration with defaults for the radio binaries
// ABOUTME: Flags in the binaries override whatever the file provides
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Squelch-Radio/squelch-go/internal/protocol"
)

// Client holds client-side settings.
type Client struct {
	// Relay address as host:port; empty means discover via mDNS.
	Relay string `yaml:"relay"`

	// Effects toggle and parameters for the receive chain.
	Effects    bool    `yaml:"effects"`
	Gain       float32 `yaml:"gain"`
	Distortion float32 `yaml:"distortion"`
	MicGain    float32 `yaml:"mic_gain"`

	// PacingBlocks is the playback pacing-buffer capacity in blocks.
	PacingBlocks int `yaml:"pacing_blocks"`
}

// Server holds relay-side settings.
type Server struct {
	Port         int    `yaml:"port"`
	EchoToSender bool   `yaml:"echo_to_sender"`
	MonitorAddr  string `yaml:"monitor_addr"`
	MDNS         bool   `yaml:"mdns"`
	Name         string `yaml:"name"`
}

// Config is the root of the YAML file.
type Config struct {
	Client Client `yaml:"client"`
	Server Server `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Client: Client{
			Effects:      true,
			Gain:         1.0,
			Distortion:   0.05,
			MicGain:      1.0,
			PacingBlocks: 8,
		},
		Server: Server{
			Port:         protocol.DefaultPort,
			EchoToSender: true,
			MDNS:         true,
			Name:         "squelch-relay",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error; the
// defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
