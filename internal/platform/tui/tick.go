// Package tui hosts the arena in a terminal through Bubble Tea, locally or
// over SSH. It maps keys to held actions, drives the engine from a tick
// command and draws the snapshot with a HUD bar.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to trigger a game simulation tick.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends tick messages at the specified rate.
// The engine measures real elapsed time, so a late tick only means more steps.
func tickCmd(tickRate int) tea.Cmd {
	if tickRate <= 0 {
		tickRate = 60
	}
	interval := time.Second / time.Duration(tickRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
