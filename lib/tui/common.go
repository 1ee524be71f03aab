package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderEmptyState creates a centered empty state view with a title, subtitle, and optional help text.
func renderEmptyState(width, height int, title, subtitle string, helpText []string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(2, 4).
		Width(50)

	lines := []string{
		styles.Bold.Render(title),
		"",
	}

	if subtitle != "" {
		lines = append(lines, styles.Muted.Render(subtitle))
	}

	if len(helpText) > 0 {
		lines = append(lines, "")
		for _, help := range helpText {
			lines = append(lines, styles.HelpText.Render(help))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	return lipgloss.Place(width, height-2, lipgloss.Center, lipgloss.Center, box.Render(content))
}

// truncate shortens s to maxLen, marking the cut with an ellipsis.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// formatSeconds renders a whole-second count the way the status line shows it.
func formatSeconds(secs int64) string {
	return fmt.Sprintf("%ds", secs)
}

// formatUptime renders the time between two instants rounded to seconds.
func formatUptime(from, to time.Time) string {
	if from.IsZero() || to.Before(from) {
		return "0s"
	}
	return to.Sub(from).Round(time.Second).String()
}

// bar renders a horizontal bar of width cells scaled by value/limit.
func bar(value, limit time.Duration, width int) string {
	if limit <= 0 || width <= 0 {
		return ""
	}
	n := int(int64(width) * int64(value) / int64(limit))
	n = min(max(n, 0), width)
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}
