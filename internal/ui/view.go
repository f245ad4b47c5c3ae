package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/lazyvibe/axial/internal/model"
	"github.com/lazyvibe/axial/internal/ui/components/history"
	"github.com/lazyvibe/axial/internal/ui/styles"
)

// sessionPanelHeight is the fixed height of the session card.
const sessionPanelHeight = 12

// View renders the entire application.
func (a App) View() string {
	if a.quitting {
		bye := lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Primary).
			Render("Sit up straight. See you soon!")
		return lipgloss.NewStyle().
			Width(a.width).
			Height(a.height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(bye)
	}

	if !a.ready {
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Accent).
			Render("Loading Axial...")
	}

	if a.windowTooSmall() {
		notice := lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Accent).
			Render(fmt.Sprintf("Window too small: need at least %dx%d (have %dx%d)", minAppWidth, minAppHeight, a.width, a.height))
		return lipgloss.NewStyle().
			Width(a.width).
			Height(a.height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(notice)
	}

	leftWidth, _ := a.columns()
	left := lipgloss.JoinVertical(lipgloss.Left,
		a.renderSession(leftWidth, sessionPanelHeight),
		a.history.View(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, a.alerts.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.RenderFancyHeader("Axial", a.width),
		body,
		a.statusBar.View(),
	)
}

// renderSession draws the session card: phase, timer and channel toggles.
func (a App) renderSession(width, height int) string {
	innerWidth := max(width-4, 1)
	st := a.state

	phase := styles.RenderStatusDot(st.Phase) + " " +
		lipgloss.NewStyle().Bold(true).Foreground(styles.PhaseColor(st.Phase)).Render(phaseLabel(st.Phase))
	if st.Phase.Busy() {
		phase += " " + a.spinner.View()
	}

	lines := []string{
		styles.PanelTitleIcon.Render("🧘") + styles.PanelTitle.Render("Session"),
		strings.Repeat("─", innerWidth),
		phase,
	}

	if st.Active() {
		lines = append(lines,
			styles.LogoStyle.Render(history.FormatDuration(st.Elapsed(a.now()))),
			styles.VersionStyle.Render(ansi.Truncate("id "+st.SessionID, innerWidth, "…")),
		)
	} else {
		lines = append(lines, styles.VersionStyle.Render("Press space to begin monitoring"), "")
	}

	idle := st.Phase == model.PhaseIdle
	lines = append(lines,
		"",
		styles.RenderCheckbox("Posture (p)", st.Config.Posture, idle),
		styles.RenderCheckbox("Eye strain (e)", st.Config.EyeStrain, idle),
		styles.RenderCheckbox("Distractions (d)", st.Config.Distractions, idle),
	)

	if st.LastError != "" {
		lines = append(lines, styles.ErrorText.Render(ansi.Truncate(st.LastError, innerWidth, "…")))
	}

	border := styles.BorderStyle
	if st.Active() {
		border = styles.FocusedBorderStyle
	}
	return border.
		Width(width - 2).
		Height(height - 2).
		MaxHeight(height).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func phaseLabel(p model.SessionPhase) string {
	switch p {
	case model.PhaseStarting:
		return "Starting..."
	case model.PhaseActive:
		return "Monitoring"
	case model.PhaseStopping:
		return "Stopping..."
	default:
		return "Idle"
	}
}
