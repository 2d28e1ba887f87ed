package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Scheduler returns a command that delivers msg after d. Components take
// a Scheduler so tests can fire timers without sleeping.
type Scheduler func(d time.Duration, msg tea.Msg) tea.Cmd

// After is the real-time Scheduler backed by tea.Tick.
func After(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return msg
	})
}
