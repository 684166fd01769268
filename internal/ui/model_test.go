// ABOUTME: Tests for the TUI model
// ABOUTME: PTT toggling, status application and rendering
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sized(m Model) Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func TestSpaceTogglesPTT(t *testing.T) {
	controls := NewControls()
	m := sized(NewModel(controls))

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = updated.(Model)

	select {
	case v := <-controls.PTT:
		assert.True(t, v)
	default:
		t.Fatal("no PTT event sent")
	}
	assert.Contains(t, m.View(), "TRANSMIT")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = updated.(Model)

	select {
	case v := <-controls.PTT:
		assert.False(t, v)
	default:
		t.Fatal("no PTT release event sent")
	}
	assert.Contains(t, m.View(), "IDLE")
}

func TestQuitKeySignalsShutdown(t *testing.T) {
	controls := NewControls()
	m := sized(NewModel(controls))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)

	select {
	case <-controls.Quit:
	default:
		t.Fatal("no quit signal sent")
	}
}

func TestStatusMsgUpdatesView(t *testing.T) {
	m := sized(NewModel(NewControls()))

	updated, _ := m.Update(StatusMsg{
		Relay:          "192.168.1.20:1837",
		SignalPresent:  true,
		EffectsEnabled: true,
		BlocksReceived: 42,
	})
	view := updated.(Model).View()

	assert.Contains(t, view, "192.168.1.20:1837")
	assert.Contains(t, view, "RECEIVE")
	assert.True(t, strings.Contains(view, "42"))
}

func TestControlsNeverBlock(t *testing.T) {
	c := NewControls()

	// Flooding the unread channels must not deadlock the UI loop.
	for i := 0; i < 100; i++ {
		c.setPTT(i%2 == 0)
		c.quit()
	}
}
