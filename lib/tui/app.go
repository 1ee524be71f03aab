// Package tui provides the terminal status screen for sloris.
// It uses BubbleTea for the application framework and reads engine
// statistics from published snapshots, never from the engine itself.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-i2p/sloris/lib/pool"
)

// DefaultRefreshInterval is how often the screen re-reads the snapshot.
const DefaultRefreshInterval = 500 * time.Millisecond

// Tab represents a UI tab.
type Tab int

const (
	TabStatus Tab = iota
	TabLifetimes
	TabEvents
)

const tabCount = 3

func (t Tab) String() string {
	switch t {
	case TabStatus:
		return "Status"
	case TabLifetimes:
		return "Lifetimes"
	case TabEvents:
		return "Events"
	default:
		return "Unknown"
	}
}

// SnapshotSource returns the most recently published statistics, or nil
// if none is available yet.
type SnapshotSource func() *pool.Snapshot

// Model is the main TUI application model.
type Model struct {
	source   SnapshotSource
	interval time.Duration
	version  string

	// Current state
	activeTab   Tab
	width       int
	height      int
	ready       bool
	lastRefresh time.Time

	snapshot *pool.Snapshot

	// Sub-models
	spinner       spinner.Model
	statusView    StatusModel
	lifetimesView LifetimesModel
	eventsView    EventsModel
}

// Config holds TUI configuration.
type Config struct {
	// Source supplies snapshots. Required.
	Source SnapshotSource
	// RefreshInterval is how often to refresh data.
	RefreshInterval time.Duration
	// Version is shown in the header.
	Version string
}

// New creates a new TUI model.
func New(cfg Config) (*Model, error) {
	if cfg.Source == nil {
		return nil, errors.New("snapshot source is required")
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &Model{
		source:        cfg.Source,
		interval:      cfg.RefreshInterval,
		version:       cfg.Version,
		activeTab:     TabStatus,
		spinner:       s,
		statusView:    NewStatusModel(),
		lifetimesView: NewLifetimesModel(),
		eventsView:    NewEventsModel(),
	}, nil
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.refreshData,
		tea.SetWindowTitle("sloris"),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Tab):
			m.activeTab = Tab((int(m.activeTab) + 1) % tabCount)
		case key.Matches(msg, keys.ShiftTab):
			m.activeTab = Tab((int(m.activeTab) + tabCount - 1) % tabCount)
		case key.Matches(msg, keys.Refresh):
			cmds = append(cmds, m.refreshData)
		case key.Matches(msg, keys.Status):
			m.activeTab = TabStatus
		case key.Matches(msg, keys.Lifetimes):
			m.activeTab = TabLifetimes
		case key.Matches(msg, keys.Events):
			m.activeTab = TabEvents
		}

		if m.activeTab == TabEvents {
			var cmd tea.Cmd
			m.eventsView, cmd = m.eventsView.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		contentHeight := m.height - 4 // Header + footer
		m.statusView.SetDimensions(m.width, contentHeight)
		m.lifetimesView.SetDimensions(m.width, contentHeight)
		m.eventsView.SetDimensions(m.width, contentHeight)

	case refreshMsg:
		m.lastRefresh = msg.at
		if msg.snapshot != nil {
			m.eventsView.Observe(m.snapshot, msg.snapshot)
			m.snapshot = msg.snapshot
			m.statusView.SetData(msg.snapshot)
			m.lifetimesView.SetData(msg.snapshot)
		}
		cmds = append(cmds, tea.Tick(m.interval, func(t time.Time) tea.Msg {
			return tickMsg(t)
		}))

	case tickMsg:
		cmds = append(cmds, m.refreshData)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return fmt.Sprintf("%s Loading...", m.spinner.View())
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.activeTab {
	case TabStatus:
		b.WriteString(m.statusView.View())
	case TabLifetimes:
		b.WriteString(m.lifetimesView.View())
	case TabEvents:
		b.WriteString(m.eventsView.View())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the title, tab bar and activity spinner.
func (m Model) renderHeader() string {
	tabs := []Tab{TabStatus, TabLifetimes, TabEvents}

	var renderedTabs []string
	for _, tab := range tabs {
		style := styles.TabInactive
		if tab == m.activeTab {
			style = styles.TabActive
		}
		renderedTabs = append(renderedTabs, style.Render(tab.String()))
	}

	title := "sloris"
	if m.version != "" {
		title += " " + m.version
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...)

	return lipgloss.JoinHorizontal(lipgloss.Top, styles.Title.Render(title), "  ", tabBar, "  ", m.spinner.View())
}

// renderFooter renders the help text.
func (m Model) renderFooter() string {
	var helpItems []string

	if m.activeTab == TabEvents {
		helpItems = append(helpItems, "↑↓ scroll")
	}
	helpItems = append(helpItems, "tab switch", "r refresh", "q quit")

	help := strings.Join(helpItems, " • ")

	var statusInfo string
	if m.snapshot != nil {
		statusInfo = fmt.Sprintf("Live: %d | Dead: %d | Failed: %d",
			m.snapshot.Live, m.snapshot.Dead, m.snapshot.Failed)
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		styles.HelpText.Render(help),
		strings.Repeat(" ", max(0, m.width-lipgloss.Width(help)-lipgloss.Width(statusInfo)-2)),
		styles.StatusText.Render(statusInfo),
	)
}

// refreshData reads the latest snapshot.
func (m Model) refreshData() tea.Msg {
	return refreshMsg{
		snapshot: m.source(),
		at:       time.Now(),
	}
}
