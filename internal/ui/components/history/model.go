// Package history provides the past-sessions list UI component.
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/lazyvibe/axial/internal/model"
	"github.com/lazyvibe/axial/internal/ui/styles"
)

// Model is the session history component.
type Model struct {
	records []model.SessionRecord
	cursor  int
	focused bool
	width   int
	height  int
	offset  int // For scrolling
}

// New creates an empty history list.
func New() Model {
	return Model{}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.ensureVisible()
}

// SetFocused updates the focus state.
func (m *Model) SetFocused(focused bool) {
	m.focused = focused
}

// SetRecords replaces the list, newest first.
func (m *Model) SetRecords(records []model.SessionRecord) {
	m.records = records
	if m.cursor >= len(records) {
		m.cursor = max(len(records)-1, 0)
	}
	m.ensureVisible()
}

// Selected returns the highlighted record.
func (m Model) Selected() *model.SessionRecord {
	if m.cursor >= 0 && m.cursor < len(m.records) {
		r := m.records[m.cursor]
		return &r
	}
	return nil
}

// Len returns the number of records.
func (m Model) Len() int {
	return len(m.records)
}

// CursorUp moves cursor up.
func (m *Model) CursorUp() {
	if m.cursor > 0 {
		m.cursor--
		m.ensureVisible()
	}
}

// CursorDown moves cursor down.
func (m *Model) CursorDown() {
	if m.cursor < len(m.records)-1 {
		m.cursor++
		m.ensureVisible()
	}
}

func (m *Model) visibleRows() int {
	// Border, title, rule and the details block.
	return max(m.height-4-detailHeight-1, 1)
}

// ensureVisible adjusts scroll offset to keep cursor visible.
func (m *Model) ensureVisible() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

const detailHeight = 4

// View renders the history panel.
func (m Model) View() string {
	innerWidth := max(m.width-4, 1)
	innerHeight := max(m.height-4, 1)

	icon := styles.PanelTitleIcon.Render("🕑")
	title := styles.PanelTitle.Render("History")
	if m.focused {
		title = styles.PanelTitleFocused.Render("History")
	}
	header := icon + title + " " + styles.ListItemDim.Render(fmt.Sprintf("(%d)", len(m.records)))

	listArea := innerHeight
	showDetails := innerHeight >= detailHeight+3
	if showDetails {
		listArea = innerHeight - detailHeight - 1
	}

	var rows []string
	if len(m.records) == 0 {
		rows = append(rows, "", styles.Placeholder.Render("No sessions yet"),
			styles.ListItemDim.Render("Press space to start one"))
	} else {
		end := min(m.offset+listArea, len(m.records))
		for i := m.offset; i < end; i++ {
			rows = append(rows, m.renderItem(m.records[i], i == m.cursor, innerWidth))
		}
	}

	content := lipgloss.NewStyle().
		Width(innerWidth).
		Height(listArea).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	if showDetails {
		content = lipgloss.JoinVertical(lipgloss.Left,
			content,
			strings.Repeat("─", innerWidth),
			m.renderDetails(innerWidth),
		)
	}

	borderStyle := styles.BorderStyle
	if m.focused {
		borderStyle = styles.FocusedBorderStyle
	}
	return borderStyle.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			strings.Repeat("─", innerWidth),
			content,
		))
}

func (m Model) renderItem(r model.SessionRecord, selected bool, width int) string {
	label := fmt.Sprintf("%s  %s", r.StartTime.Local().Format("Jan 02 15:04"), FormatDuration(r.DisplayDuration()))
	if selected {
		return styles.ListItemSelected.Width(width).Render(ansi.Truncate("› "+label, width-2, "…"))
	}
	return styles.ListItemDim.Width(width).Render(ansi.Truncate("  "+label, width-2, "…"))
}

func (m Model) renderDetails(width int) string {
	labelStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(styles.TextCol)

	lines := []string{labelStyle.Bold(true).Render("Details")}
	r := m.Selected()
	if r == nil {
		lines = append(lines, labelStyle.Render("No session selected"))
	} else {
		lines = append(lines,
			detailLine(labelStyle, valueStyle, "Session: ", r.SessionID, width),
			detailLine(labelStyle, valueStyle, "Channels: ", Channels(r.Config), width),
			detailLine(labelStyle, valueStyle, "Ended: ", r.EndTime.Local().Format(time.Kitchen), width),
		)
	}
	return lipgloss.NewStyle().
		Width(width).
		Height(detailHeight).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func detailLine(labelStyle, valueStyle lipgloss.Style, label, value string, width int) string {
	l := labelStyle.Render(label)
	avail := max(width-lipgloss.Width(l), 0)
	return l + valueStyle.Render(ansi.Truncate(value, avail, "…"))
}

// Channels lists the enabled monitoring channels.
func Channels(c model.SessionConfig) string {
	var names []string
	if c.Posture {
		names = append(names, "posture")
	}
	if c.EyeStrain {
		names = append(names, "eye strain")
	}
	if c.Distractions {
		names = append(names, "distractions")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// FormatDuration renders d as h:mm:ss or m:ss.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	mins := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mins, s)
	}
	return fmt.Sprintf("%d:%02d", mins, s)
}
