// Package alerts renders persistent warnings and transient notifications.
package alerts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/lazyvibe/axial/internal/model"
	"github.com/lazyvibe/axial/internal/ui/styles"
)

const scoreBarWidth = 10

// Model holds the notifications currently on screen.
type Model struct {
	width    int
	height   int
	warnings []model.PersistentNotification
	toasts   []model.TransientNotification
}

// New creates an empty alerts panel.
func New() Model {
	return Model{}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetWarnings replaces the persistent warnings, posture first.
func (m *Model) SetWarnings(posture, blink *model.PersistentNotification) {
	var ws []model.PersistentNotification
	if posture != nil {
		ws = append(ws, *posture)
	}
	if blink != nil {
		ws = append(ws, *blink)
	}
	m.warnings = ws
}

// SetToasts replaces the transient notifications.
func (m *Model) SetToasts(toasts []model.TransientNotification) {
	m.toasts = toasts
}

// Newest returns the id of the most recent toast, or "".
func (m Model) Newest() string {
	if len(m.toasts) == 0 {
		return ""
	}
	return m.toasts[len(m.toasts)-1].ID
}

// View renders warnings above toasts, newest toast last. Cards that do not
// fit are dropped from the top of the toast list.
func (m Model) View() string {
	innerWidth := max(m.width-4, 10)

	var cards []string
	for _, w := range m.warnings {
		cards = append(cards, m.card(w.Title, w.Body, &w.Score, categoryFor(w.Category), true, innerWidth))
	}
	var toastCards []string
	for _, t := range m.toasts {
		toastCards = append(toastCards, m.card(t.Title, t.Body, t.Score, t.Category, false, innerWidth))
	}

	budget := m.height - 3
	used := 0
	for _, c := range cards {
		used += lipgloss.Height(c)
	}
	for len(toastCards) > 0 {
		total := used
		for _, c := range toastCards {
			total += lipgloss.Height(c)
		}
		if total <= budget {
			break
		}
		toastCards = toastCards[1:]
	}
	cards = append(cards, toastCards...)

	header := styles.PanelTitleIcon.Render("🔔") + styles.PanelTitle.Render("Alerts")
	body := styles.Placeholder.Render("All clear")
	if len(cards) > 0 {
		body = lipgloss.JoinVertical(lipgloss.Left, cards...)
	}

	return styles.BorderStyle.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			strings.Repeat("─", innerWidth),
			body,
		))
}

func (m Model) card(title, body string, score *int, cat model.NotificationCategory, persistent bool, width int) string {
	accent := styles.CategoryColor(cat)

	head := styles.CardTitle.Render(ansi.Truncate(title, width-scoreBarWidth-8, "…"))
	if persistent {
		head = lipgloss.NewStyle().Foreground(styles.Warning).Render("▲ ") + head
	}
	if score != nil {
		gap := max(width-2-lipgloss.Width(head)-scoreBarWidth-5, 1)
		head += strings.Repeat(" ", gap) + renderScore(*score)
	}

	text := styles.CardBody.Width(width - 2).Render(body)
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(accent).
		PaddingLeft(1).
		MarginBottom(1).
		Render(lipgloss.JoinVertical(lipgloss.Left, head, text))
}

func renderScore(score int) string {
	score = model.ClampScore(score)
	filled := score * scoreBarWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", scoreBarWidth-filled)
	return lipgloss.NewStyle().Foreground(styles.ScoreColor(score)).Render(fmt.Sprintf("%s %3d", bar, score))
}

func categoryFor(w model.WarningCategory) model.NotificationCategory {
	if w == model.WarningBlink {
		return model.CategoryEyeStrain
	}
	return model.CategoryPosture
}
