package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-i2p/sloris/lib/pool"
)

const lifetimeBarWidth = 30

// LifetimesModel shows the most recent connection lifetimes, newest first.
type LifetimesModel struct {
	lifetimes []time.Duration
	timeout   time.Duration
	average   int64
	loaded    bool
	width     int
	height    int
}

// NewLifetimesModel creates a new lifetimes view model.
func NewLifetimesModel() LifetimesModel {
	return LifetimesModel{}
}

// SetData updates the lifetimes from a snapshot.
func (m *LifetimesModel) SetData(snapshot *pool.Snapshot) {
	m.loaded = true
	m.lifetimes = snapshot.Lifetimes
	m.timeout = time.Duration(snapshot.TimeoutSeconds) * time.Second
	m.average = snapshot.AverageLifetimeSeconds
}

// SetDimensions sets the view dimensions.
func (m *LifetimesModel) SetDimensions(width, height int) {
	m.width = width
	m.height = height
}

// View renders the lifetimes table.
func (m LifetimesModel) View() string {
	if !m.loaded {
		return styles.Muted.Render("Loading lifetimes...")
	}

	if len(m.lifetimes) == 0 {
		return renderEmptyState(m.width, m.height,
			"No Dead Connections",
			"Lifetimes appear once the target drops a connection.",
			nil,
		)
	}

	// Scale bars to the longest lifetime or the timeout, whichever is larger.
	limit := m.timeout
	for _, d := range m.lifetimes {
		limit = max(limit, d)
	}

	var b strings.Builder

	header := fmt.Sprintf("%-4s %-10s %s", "#", "LIFETIME", "")
	b.WriteString(styles.TableHeader.Render(header))
	b.WriteString("\n")

	for i, d := range m.lifetimes {
		secs := fmt.Sprintf("%ds", int64(d/time.Second))
		row := fmt.Sprintf("%-4d %-10s %s",
			i+1,
			LifetimeStyle(d, m.timeout).Render(secs),
			styles.Bar.Render(bar(d, limit, lifetimeBarWidth)),
		)
		b.WriteString(styles.TableRow.Render(row))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	summary := fmt.Sprintf("Average of last %d: %ds (timeout %s)",
		len(m.lifetimes), m.average, m.timeout)
	b.WriteString(styles.Muted.Render(summary))

	return b.String()
}
