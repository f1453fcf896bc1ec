package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/pokerroom/internal/client"
)

// logEntryMsg appends a line to the game log
type logEntryMsg string

// tableMsg replaces the displayed table state
type tableMsg client.TableView

// NetworkTUIAdapter implements client.UI by posting messages to a running
// Bubble Tea program, so agent callbacks never touch the model directly
type NetworkTUIAdapter struct {
	send func(tea.Msg)
}

// NewNetworkTUIAdapter creates an adapter that delivers through send,
// usually (*tea.Program).Send
func NewNetworkTUIAdapter(send func(tea.Msg)) *NetworkTUIAdapter {
	return &NetworkTUIAdapter{send: send}
}

// AddLogEntry adds an entry to the game log
func (nta *NetworkTUIAdapter) AddLogEntry(entry string) {
	nta.send(logEntryMsg(entry))
}

// Refresh redraws the table
func (nta *NetworkTUIAdapter) Refresh(view client.TableView) {
	nta.send(tableMsg(view))
}
