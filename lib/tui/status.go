package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-i2p/sloris/lib/pool"
)

// StatusModel is the model for the status view.
type StatusModel struct {
	snapshot *pool.Snapshot
	width    int
	height   int
}

// NewStatusModel creates a new status view model.
func NewStatusModel() StatusModel {
	return StatusModel{}
}

// SetData updates the snapshot shown.
func (m *StatusModel) SetData(snapshot *pool.Snapshot) {
	m.snapshot = snapshot
}

// SetDimensions sets the view dimensions.
func (m *StatusModel) SetDimensions(width, height int) {
	m.width = width
	m.height = height
}

// View renders the status view.
func (m StatusModel) View() string {
	if m.snapshot == nil {
		return styles.Muted.Render("Waiting for first tick...")
	}
	s := m.snapshot

	var b strings.Builder

	targetBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(1, 2).
		Width(60)

	targetContent := lipgloss.JoinVertical(lipgloss.Left,
		styles.BoxTitle.Render("Target"),
		"",
		m.statusRow("Target", s.Target),
		m.statusRow("Port", strconv.Itoa(int(s.Port))),
		m.statusRow("Timeout", formatSeconds(s.TimeoutSeconds)),
		m.statusRow("Max", s.Admission),
		m.statusRow("Run ID", truncate(s.RunID, 36)),
		m.statusRow("Uptime", formatUptime(s.StartedAt, s.TakenAt)),
	)

	b.WriteString(targetBox.Render(targetContent))
	b.WriteString("\n\n")

	connBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(1, 2).
		Width(60)

	liveStyle := styles.Muted
	if s.Live > 0 {
		liveStyle = styles.Success
	}
	deadStyle := styles.Muted
	if s.Dead > 0 {
		deadStyle = styles.Warning
	}
	failedStyle := styles.Muted
	if s.Failed > 0 {
		failedStyle = styles.Error
	}

	connContent := lipgloss.JoinVertical(lipgloss.Left,
		styles.BoxTitle.Render("Connections"),
		"",
		m.statusRow("Live", liveStyle.Render(strconv.Itoa(s.Live))),
		m.statusRow("Dead", deadStyle.Render(strconv.FormatUint(s.Dead, 10))),
		m.statusRow("Failed", failedStyle.Render(strconv.FormatUint(s.Failed, 10))),
		m.statusRow("Avg lifetime", formatSeconds(s.AverageLifetimeSeconds)),
		m.statusRow("Ticks", fmt.Sprintf("%d", s.Ticks)),
	)

	b.WriteString(connBox.Render(connContent))

	return b.String()
}

// statusRow formats a status row with label and value.
func (m StatusModel) statusRow(label, value string) string {
	labelStyle := styles.Muted.Width(15)
	return labelStyle.Render(label+":") + " " + value
}
