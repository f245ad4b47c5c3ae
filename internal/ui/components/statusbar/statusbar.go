// Package statusbar provides the status bar UI component.
package statusbar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lazyvibe/axial/internal/model"
	"github.com/lazyvibe/axial/internal/ui/keys"
	"github.com/lazyvibe/axial/internal/ui/styles"
)

// Model is the status bar component.
type Model struct {
	width   int
	message string
	isError bool
	keyMap  keys.KeyMap
	phase   model.SessionPhase
}

// New creates a new status bar component.
func New() Model {
	return Model{
		keyMap: keys.DefaultKeyMap(),
		phase:  model.PhaseIdle,
	}
}

// SetWidth updates the status bar width.
func (m *Model) SetWidth(width int) {
	m.width = width
}

// SetMessage sets a temporary message.
func (m *Model) SetMessage(msg string, isError bool) {
	m.message = msg
	m.isError = isError
}

// ClearMessage clears the temporary message.
func (m *Model) ClearMessage() {
	m.message = ""
	m.isError = false
}

// SetPhase updates the session phase badge.
func (m *Model) SetPhase(p model.SessionPhase) {
	m.phase = p
}

// View renders the status bar.
func (m Model) View() string {
	brand := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Render(" Axial ")

	phaseBadge := lipgloss.NewStyle().
		Foreground(styles.Base).
		Background(styles.PhaseColor(m.phase)).
		Bold(true).
		Padding(0, 1).
		Render(strings.ToUpper(string(m.phase)))

	var helpItems []string
	for _, b := range m.keyMap.ShortHelp(m.phase == model.PhaseIdle) {
		h := b.Help()
		helpItems = append(helpItems, m.renderKey(h.Key, h.Desc))
	}
	help := strings.Join(helpItems, " ")

	var msgArea string
	if m.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
		if m.isError {
			msgStyle = lipgloss.NewStyle().Foreground(styles.Danger).Bold(true)
		}
		msgArea = msgStyle.Render(" " + m.message + " ")
	}

	leftContent := brand + phaseBadge
	padding := m.width - lipgloss.Width(leftContent) - lipgloss.Width(help) - lipgloss.Width(msgArea)
	if padding < 0 {
		padding = 0
	}
	leftPad := padding / 2
	rightPad := padding - leftPad

	content := leftContent +
		strings.Repeat(" ", leftPad) +
		msgArea +
		strings.Repeat(" ", rightPad) +
		help

	return lipgloss.NewStyle().
		Background(styles.Mantle).
		Foreground(styles.TextMuted).
		Width(m.width).
		MaxHeight(1).
		Render(content)
}

// renderKey renders a key binding hint.
func (m Model) renderKey(key, desc string) string {
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Accent).
		Bold(true)
	descStyle := lipgloss.NewStyle().
		Foreground(styles.Overlay0)
	return keyStyle.Render(key) + descStyle.Render(":"+desc)
}
