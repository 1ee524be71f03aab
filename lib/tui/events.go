package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-i2p/sloris/lib/pool"
)

// maxEvents bounds the event log kept in memory.
const maxEvents = 500

// Event is one line in the events view, derived from two consecutive
// snapshots.
type Event struct {
	Time    time.Time
	Level   string
	Message string
}

// EventsModel is the model for the events view.
type EventsModel struct {
	events   []Event
	viewport viewport.Model
	ready    bool
	width    int
	height   int
	follow   bool // auto-scroll to bottom
}

// NewEventsModel creates a new events view model.
func NewEventsModel() EventsModel {
	return EventsModel{
		follow: true,
	}
}

// Observe appends the events implied by the change from prev to next.
// prev is nil for the first snapshot.
func (m *EventsModel) Observe(prev, next *pool.Snapshot) {
	if next == nil {
		return
	}
	m.events = append(m.events, diffSnapshots(prev, next)...)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
	if m.ready {
		m.updateViewport()
	}
}

// diffSnapshots describes what happened between two snapshots.
func diffSnapshots(prev, next *pool.Snapshot) []Event {
	at := next.TakenAt
	if prev == nil {
		return []Event{{
			Time:  at,
			Level: "INFO",
			Message: fmt.Sprintf("holding %s:%d (max %s, timeout %ds)",
				next.Target, next.Port, next.Admission, next.TimeoutSeconds),
		}}
	}

	var events []Event
	deaths := next.Dead - prev.Dead
	failed := next.Failed - prev.Failed
	admitted := next.Live - prev.Live + int(deaths)

	if deaths > 0 {
		events = append(events, Event{
			Time:    at,
			Level:   "WARN",
			Message: fmt.Sprintf("%d connection(s) dropped by target, average lifetime %ds", deaths, next.AverageLifetimeSeconds),
		})
	}
	if failed > 0 {
		events = append(events, Event{
			Time:    at,
			Level:   "ERROR",
			Message: fmt.Sprintf("%d connection attempt(s) failed", failed),
		})
	}
	if admitted > 0 {
		events = append(events, Event{
			Time:    at,
			Level:   "INFO",
			Message: fmt.Sprintf("%d connection(s) admitted, %d live", admitted, next.Live),
		})
	}
	if policy, err := pool.ParseAdmission(next.Admission); err == nil {
		if n, ok := policy.Max(); ok && prev.Live < int(n) && next.Live >= int(n) {
			events = append(events, Event{
				Time:    at,
				Level:   "INFO",
				Message: fmt.Sprintf("admission cap of %d reached", n),
			})
		}
	}
	return events
}

// SetDimensions sets the view dimensions.
func (m *EventsModel) SetDimensions(width, height int) {
	m.width = width
	m.height = height
	if !m.ready {
		m.viewport = viewport.New(width, height-4)
		m.viewport.YPosition = 0
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height - 4
	}
	m.updateViewport()
}

// Update handles messages for the events view.
func (m EventsModel) Update(msg tea.Msg) (EventsModel, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Follow):
			m.follow = !m.follow
			if m.follow {
				m.viewport.GotoBottom()
			}
			return m, nil
		case msg.String() == "g":
			m.viewport.GotoTop()
			m.follow = false
			return m, nil
		case msg.String() == "G":
			m.viewport.GotoBottom()
			m.follow = true
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	m.follow = m.viewport.AtBottom()

	return m, cmd
}

// View renders the events view.
func (m EventsModel) View() string {
	if !m.ready {
		return styles.Muted.Render("Initializing...")
	}

	if len(m.events) == 0 {
		return styles.Muted.Render("No events yet")
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.viewport.View(), m.renderFooter())
}

// renderHeader renders the events header.
func (m EventsModel) renderHeader() string {
	followStatus := "OFF"
	if m.follow {
		followStatus = "ON"
	}
	return styles.Muted.Render(fmt.Sprintf(
		"Events ─ %d entries │ Follow: %s │ (g)top (G)bottom (f)toggle follow",
		len(m.events),
		followStatus,
	))
}

// renderFooter renders the scroll position footer.
func (m EventsModel) renderFooter() string {
	return styles.Muted.Render(fmt.Sprintf("─── %.0f%% ───", m.viewport.ScrollPercent()*100))
}

// updateViewport updates the viewport content.
func (m *EventsModel) updateViewport() {
	var content strings.Builder
	for _, e := range m.events {
		content.WriteString(m.formatEvent(e))
		content.WriteString("\n")
	}
	m.viewport.SetContent(content.String())
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// formatEvent formats a single event line.
func (m EventsModel) formatEvent(e Event) string {
	return fmt.Sprintf("%s %s %s",
		styles.Muted.Render(e.Time.Format("15:04:05")),
		m.levelStyle(e.Level).Render(fmt.Sprintf("[%-5s]", e.Level)),
		e.Message,
	)
}

// levelStyle returns the style for an event level.
func (m EventsModel) levelStyle(level string) lipgloss.Style {
	switch level {
	case "ERROR":
		return styles.Error
	case "WARN":
		return styles.Warning
	case "INFO":
		return styles.Success
	default:
		return lipgloss.NewStyle()
	}
}
