// ABOUTME: TUI initialization and control channels
// ABOUTME: Bridges key events to the session's PTT stream
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Controls carries UI events out to the rest of the client.
type Controls struct {
	PTT  chan bool
	Quit chan struct{}
}

// NewControls creates the UI control channels.
func NewControls() *Controls {
	return &Controls{
		PTT:  make(chan bool, 10),
		Quit: make(chan struct{}, 1),
	}
}

// setPTT forwards a PTT toggle without ever blocking the UI loop.
func (c *Controls) setPTT(on bool) {
	select {
	case c.PTT <- on:
	default:
	}
}

// quit signals shutdown once.
func (c *Controls) quit() {
	select {
	case c.Quit <- struct{}{}:
	default:
	}
}

// NewModel creates the TUI model.
func NewModel(controls *Controls) Model {
	return Model{controls: controls}
}

// Run starts the TUI program.
func Run(controls *Controls) *tea.Program {
	return tea.NewProgram(NewModel(controls), tea.WithAltScreen())
}
