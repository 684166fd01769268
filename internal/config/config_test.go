// ABOUTME: Tests for configuration loading
// ABOUTME: Defaults, file overrides and parse failures
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Client.Effects)
	assert.Equal(t, float32(0.05), cfg.Client.Distortion)
	assert.Equal(t, 1837, cfg.Server.Port)
	assert.True(t, cfg.Server.EchoToSender)
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "squelch.yaml")
	body := `
client:
  relay: "10.0.0.7:1837"
  effects: false
  mic_gain: 1.5
server:
  port: 9000
  echo_to_sender: false
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.7:1837", cfg.Client.Relay)
	assert.False(t, cfg.Client.Effects)
	assert.Equal(t, float32(1.5), cfg.Client.MicGain)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.False(t, cfg.Server.EchoToSender)

	// Untouched keys keep their defaults.
	assert.Equal(t, float32(0.05), cfg.Client.Distortion)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
