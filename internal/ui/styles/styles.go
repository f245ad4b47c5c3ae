// Package styles defines the visual appearance for the Axial TUI.
// Using Catppuccin Mocha color palette.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lazyvibe/axial/internal/model"
)

// Catppuccin Mocha color palette
var (
	Mauve    = lipgloss.Color("#CBA6F7")
	Red      = lipgloss.Color("#F38BA8")
	Peach    = lipgloss.Color("#FAB387")
	Yellow   = lipgloss.Color("#F9E2AF")
	Green    = lipgloss.Color("#A6E3A1")
	Teal     = lipgloss.Color("#94E2D5")
	Sapphire = lipgloss.Color("#74C7EC")
	Blue     = lipgloss.Color("#89B4FA")
	Lavender = lipgloss.Color("#B4BEFE")

	Text     = lipgloss.Color("#CDD6F4")
	Subtext1 = lipgloss.Color("#BAC2DE")
	Subtext0 = lipgloss.Color("#A6ADC8")
	Overlay0 = lipgloss.Color("#6C7086")
	Surface1 = lipgloss.Color("#45475A")
	Surface0 = lipgloss.Color("#313244")
	Base     = lipgloss.Color("#1E1E2E")
	Mantle   = lipgloss.Color("#181825")
)

// Semantic colors
var (
	Primary     = Mauve
	Secondary   = Green
	Accent      = Sapphire
	Danger      = Red
	Warning     = Peach
	Success     = Green
	Info        = Blue
	Muted       = Overlay0
	SurfaceCol  = Surface0
	TextCol     = Text
	TextMuted   = Subtext0
	Border      = Surface1
	BorderFocus = Mauve
)

// Session phase colors
var (
	PhaseActive = Green
	PhaseBusy   = Yellow
	PhaseIdle   = Overlay0
)

// Base styles
var (
	// BorderStyle for panels
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border)

	// FocusedBorderStyle for focused panels
	FocusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(BorderFocus)
)

// Panel styles
var (
	// PanelTitle for panel headers
	PanelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextCol).
			Padding(0, 1)

	// PanelTitleFocused for focused panel headers
	PanelTitleFocused = lipgloss.NewStyle().
				Bold(true).
				Foreground(Primary).
				Padding(0, 1)

	// PanelTitleIcon for icon prefix
	PanelTitleIcon = lipgloss.NewStyle().
			Foreground(Accent).
			MarginRight(1)

	Placeholder = lipgloss.NewStyle().
			Foreground(TextMuted).
			Italic(true)
)

// List item styles
var (
	ListItemDim = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1)

	ListItemSelected = lipgloss.NewStyle().
				Foreground(TextCol).
				Background(SurfaceCol).
				Bold(true).
				Padding(0, 1)
)

// Notification card styles
var (
	CardTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextCol)

	CardBody = lipgloss.NewStyle().
			Foreground(Subtext1)

	ErrorText = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)
)

// Logo and branding styles
var (
	LogoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	VersionStyle = lipgloss.NewStyle().
			Foreground(Overlay0)
)

// PhaseColor returns the color for a session phase.
func PhaseColor(p model.SessionPhase) lipgloss.Color {
	switch {
	case p == model.PhaseActive:
		return PhaseActive
	case p.Busy():
		return PhaseBusy
	default:
		return PhaseIdle
	}
}

// CategoryColor returns the accent for a notification category.
func CategoryColor(c model.NotificationCategory) lipgloss.Color {
	switch c {
	case model.CategoryPosture:
		return Mauve
	case model.CategoryEyeStrain:
		return Teal
	case model.CategoryFocus:
		return Peach
	default:
		return Blue
	}
}

// ScoreColor grades a 0-100 score.
func ScoreColor(score int) lipgloss.Color {
	switch {
	case score >= 70:
		return Success
	case score >= 40:
		return Yellow
	default:
		return Danger
	}
}

// RenderStatusDot returns a colored phase indicator.
func RenderStatusDot(p model.SessionPhase) string {
	dot := "○"
	if p != model.PhaseIdle {
		dot = "●"
	}
	return lipgloss.NewStyle().Foreground(PhaseColor(p)).Render(dot)
}

// RenderCheckbox renders a channel toggle.
func RenderCheckbox(label string, on, enabled bool) string {
	box := "[ ]"
	color := TextMuted
	if on {
		box = "[x]"
		color = Success
	}
	if !enabled {
		color = Overlay0
	}
	return lipgloss.NewStyle().Foreground(color).Render(box + " " + label)
}

// RenderFancyHeader renders a title centred on a decorated rule.
func RenderFancyHeader(title string, width int) string {
	left := lipgloss.NewStyle().Foreground(Mauve).Render("╭─")
	right := lipgloss.NewStyle().Foreground(Mauve).Render("─╮")
	titleStyled := lipgloss.NewStyle().
		Bold(true).
		Foreground(TextCol).
		Background(Surface0).
		Padding(0, 1).
		Render(title)

	fillWidth := width - lipgloss.Width(titleStyled) - lipgloss.Width(left) - lipgloss.Width(right)
	if fillWidth < 0 {
		fillWidth = 0
	}
	leftFill := fillWidth / 2
	rightFill := fillWidth - leftFill

	rule := lipgloss.NewStyle().Foreground(Surface1)
	return left + rule.Render(strings.Repeat("─", leftFill)) + titleStyled + rule.Render(strings.Repeat("─", rightFill)) + right
}
