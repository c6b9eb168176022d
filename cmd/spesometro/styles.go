package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"spesometro/internal/core"
	"spesometro/internal/report"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	upStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	downStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

var levelStyles = map[report.SpendingLevel]lipgloss.Style{
	report.LevelNone:   mutedStyle,
	report.LevelLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	report.LevelMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	report.LevelHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}

func formatMoney(m core.Money) string {
	return "$" + m.String()
}

func formatTrend(t core.Trend) string {
	switch t.Direction {
	case core.TrendUp:
		return upStyle.Render(fmt.Sprintf("%s %.1f%%", t.Arrow(), t.Percent))
	case core.TrendDown:
		return downStyle.Render(fmt.Sprintf("%s %.1f%%", t.Arrow(), t.Percent))
	default:
		return mutedStyle.Render("steady")
	}
}

func formatLevel(m core.Money) string {
	l := report.Level(m)
	return levelStyles[l].Render(string(l))
}

// table writes aligned rows under a styled header.
type table struct {
	w *tabwriter.Writer
}

func newTable(out io.Writer, headers ...string) *table {
	t := &table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	styled := make([]string, len(headers))
	rules := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = headerStyle.Render(h)
		rules[i] = strings.Repeat("-", len(h))
	}
	t.row(styled...)
	t.row(rules...)
	return t
}

func (t *table) row(cells ...string) {
	fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}

func (t *table) flush() error {
	return t.w.Flush()
}
