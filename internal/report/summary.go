package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/access-log-analyzer/backend/internal/models"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#9CA3AF")
	colorBorder  = lipgloss.Color("#374151")

	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(22)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)

// rateStyle colours an error rate: green below 5%, amber below 20%, red above.
func rateStyle(pct float64) lipgloss.Style {
	switch {
	case pct < 5:
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case pct < 20:
		return lipgloss.NewStyle().Foreground(colorWarning)
	default:
		return lipgloss.NewStyle().Foreground(colorError).Bold(true)
	}
}

// Summary renders a compact boxed overview for the terminal.
func Summary(snap *models.Snapshot) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Left, labelStyle.Render(label), value)
	}

	a := snap.Analysis
	rows := []string{
		titleStyle.Render("Log Analysis Summary"),
		"",
		row("Lines read", fmt.Sprintf("%d (%d skipped)", snap.Reading.TotalLines, snap.Reading.SkippedLines)),
		row("Parsed", fmt.Sprintf("%d / %d (%.2f%%)", snap.Parsing.ParsedCount, snap.Parsing.Attempted(), snap.Parsing.SuccessRate)),
		row("Requests", fmt.Sprintf("%d", a.TotalRequests)),
		row("Errors", rateStyle(a.ErrorPercentage).Render(fmt.Sprintf("%d (%.2f%%)", a.ErrorRequests, a.ErrorPercentage))),
		row("Unique IPs", fmt.Sprintf("%d (%d with errors)", a.UniqueIPs, a.UniqueErrorIPs)),
		row("Elapsed", fmt.Sprintf("%dms, %.0f lines/s", snap.ElapsedMs, snap.LinesPerSecond())),
	}

	if len(a.TopErrorIPs) > 0 {
		ips := make([]string, len(a.TopErrorIPs))
		for i, ip := range a.TopErrorIPs {
			ips[i] = fmt.Sprintf("%s (%d)", ip.Key, ip.Count)
		}
		rows = append(rows, row("Top error IPs", strings.Join(ips, ", ")))
	}
	if snap.Reading.Partial {
		rows = append(rows, lipgloss.NewStyle().Foreground(colorWarning).Render("partial: input not read to the end"))
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
