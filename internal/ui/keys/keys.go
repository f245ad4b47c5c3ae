// Package keys defines keyboard shortcuts for the Axial TUI.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Session
	Toggle key.Binding

	// Channel selection, only while idle
	Posture      key.Binding
	EyeStrain    key.Binding
	Distractions key.Binding

	// Notifications
	Test    key.Binding
	Dismiss key.Binding

	// History
	Up   key.Binding
	Down key.Binding

	Quit key.Binding
}

// DefaultKeyMap returns the default keyboard shortcuts.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter", "s"),
			key.WithHelp("space", "start/stop"),
		),
		Posture: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "posture"),
		),
		EyeStrain: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "eye strain"),
		),
		Distractions: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "distractions"),
		),
		Test: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "test alerts"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x", "esc"),
			key.WithHelp("x", "dismiss"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar. Channel toggles
// are only offered while idle.
func (k KeyMap) ShortHelp(idle bool) []key.Binding {
	if idle {
		return []key.Binding{k.Toggle, k.Posture, k.EyeStrain, k.Distractions, k.Test, k.Dismiss, k.Quit}
	}
	return []key.Binding{k.Toggle, k.Test, k.Dismiss, k.Quit}
}
