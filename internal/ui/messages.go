// Package ui provides the terminal user interface for Axial.
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lazyvibe/axial/internal/model"
	"github.com/lazyvibe/axial/internal/store"
)

// ---------- Store Messages ----------

// SessionChangedMsg is sent when the controller's state changes.
type SessionChangedMsg struct{}

// WarningsChangedMsg is sent when a persistent warning is set or cleared.
type WarningsChangedMsg struct{}

// ToastsChangedMsg is sent when the transient list changes.
type ToastsChangedMsg struct{}

// RecordsLoadedMsg carries the recent session history.
type RecordsLoadedMsg struct {
	Records []model.SessionRecord
	Err     error
}

// ---------- Action Messages ----------

// ToggleDoneMsg is sent when a start or stop request finishes.
type ToggleDoneMsg struct {
	Err error
}

// ConfigSavedMsg is sent after the channel selection is written to disk.
type ConfigSavedMsg struct {
	Err error
}

// ClockTickMsg refreshes the elapsed-time display.
type ClockTickMsg time.Time

// ---------- Command Functions ----------

// WaitForSignal returns a command that blocks until ch fires, then emits msg.
// A closed channel ends the subscription.
func WaitForSignal(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return msg
	}
}

// LoadRecords returns a command to load the most recent sessions.
func LoadRecords(rs store.RecordStore, limit int) tea.Cmd {
	return func() tea.Msg {
		records, err := rs.Recent(context.Background(), limit)
		return RecordsLoadedMsg{Records: records, Err: err}
	}
}

// ClockTick schedules the next elapsed-time refresh.
func ClockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return ClockTickMsg(t)
	})
}
