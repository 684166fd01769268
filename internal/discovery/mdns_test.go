// ABOUTME: Tests for relay discovery
// ABOUTME: RelayInfo formatting and manager lifecycle
package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelayInfoAddr(t *testing.T) {
	r := RelayInfo{Name: "shack", Host: "192.168.1.20", Port: 1837}
	assert.Equal(t, "192.168.1.20:1837", r.Addr())
}

func TestManagerStopIsIdempotent(t *testing.T) {
	m := NewManager("test-relay", 1837)
	m.Browse()
	m.Stop()
	m.Stop()
}

func TestRelaysChannelBuffered(t *testing.T) {
	m := NewManager("test-relay", 1837)
	defer m.Stop()

	select {
	case <-m.Relays():
		t.Fatal("unexpected relay before browsing")
	default:
	}
}
