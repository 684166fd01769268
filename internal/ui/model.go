// ABOUTME: Bubbletea model for the radio client
// ABOUTME: PTT toggle, live session state and counters
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// StatusMsg carries a session snapshot into the TUI.
type StatusMsg struct {
	Relay          string
	Transmitting   bool
	SignalPresent  bool
	EffectsEnabled bool
	BlocksSent     uint64
	BlocksReceived uint64
	SquelchBursts  uint64
	DecodeErrors   uint64
}

// Model is the TUI state.
type Model struct {
	controls *Controls

	relay          string
	transmitting   bool
	signal         bool
	effects        bool
	blocksSent     uint64
	blocksReceived uint64
	squelchBursts  uint64
	decodeErrors   uint64

	width  int
	height int
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses and status updates.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.relay = msg.Relay
		m.transmitting = msg.Transmitting
		m.signal = msg.SignalPresent
		m.effects = msg.EffectsEnabled
		m.blocksSent = msg.BlocksSent
		m.blocksReceived = msg.BlocksReceived
		m.squelchBursts = msg.SquelchBursts
		m.decodeErrors = msg.DecodeErrors
	}

	return m, nil
}

// handleKey handles keyboard input. Terminals report key presses only, so
// push-to-talk is a toggle rather than press-and-hold.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.controls.quit()
		return m, tea.Quit
	case " ", "t":
		m.transmitting = !m.transmitting
		m.controls.setPTT(m.transmitting)
	}

	return m, nil
}

// View renders the radio front panel.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	state := "IDLE"
	if m.transmitting {
		state = "TRANSMIT"
	} else if m.signal {
		state = "RECEIVE"
	}

	fxState := "off"
	if m.effects {
		fxState = "on"
	}

	return fmt.Sprintf(`┌─ Squelch ────────────────────────────────────────────┐
│ Relay:   %-43s │
│ State:   %-43s │
│ Effects: %-43s │
├──────────────────────────────────────────────────────┤
│ TX blocks: %-10d RX blocks: %-18d │
│ Squelch tails: %-6d Decode errors: %-14d │
├──────────────────────────────────────────────────────┤
│ space/t: toggle PTT   q: quit                        │
└──────────────────────────────────────────────────────┘
`, m.relay, state, fxState,
		m.blocksSent, m.blocksReceived,
		m.squelchBursts, m.decodeErrors)
}
