package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/garage/internal/tui/theme"
)

// Series is one stacked segment of a bar chart.
type Series struct {
	Values []float64
	Color  lipgloss.Color
}

// StackedBarChart renders vertical bars where each column stacks the values
// of every series at that index. labels are drawn under the columns.
// height is the number of bar rows.
func StackedBarChart(series []Series, labels []string, width, height int) string {
	if len(series) == 0 || len(series[0].Values) == 0 {
		return ""
	}
	t := theme.Active
	n := len(series[0].Values)

	totals := make([]float64, n)
	for _, s := range series {
		for i := 0; i < n && i < len(s.Values); i++ {
			totals[i] += s.Values[i]
		}
	}
	peak := 0.0
	for _, v := range totals {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	axisW := len(shortAmount(peak)) + 1
	colW := (width - axisW - 1) / n
	colW = min(max(colW, 2), 8)
	barW := max(colW-1, 1)

	bg := lipgloss.NewStyle().Background(t.Surface)
	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	// cellColor picks the series a row cell belongs to, bottom series first.
	cellColor := func(col int, level float64) (lipgloss.Color, bool) {
		acc := 0.0
		for _, s := range series {
			if col >= len(s.Values) {
				continue
			}
			acc += s.Values[col]
			if level < acc {
				return s.Color, true
			}
		}
		return "", false
	}

	var b strings.Builder
	for row := height; row >= 1; row-- {
		tick := ""
		if row == height {
			tick = shortAmount(peak)
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", axisW, tick)))

		// midpoint of this row in value units
		level := (float64(row) - 0.5) / float64(height) * peak
		for col := 0; col < n; col++ {
			if c, ok := cellColor(col, level); ok {
				b.WriteString(lipgloss.NewStyle().Foreground(c).Background(t.Surface).
					Render(strings.Repeat("█", barW)))
			} else {
				b.WriteString(bg.Render(strings.Repeat(" ", barW)))
			}
			b.WriteString(bg.Render(strings.Repeat(" ", colW-barW)))
		}
		b.WriteString("\n")
	}

	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", axisW, "0", strings.Repeat("─", n*colW))))

	if len(labels) == n {
		b.WriteString("\n")
		b.WriteString(bg.Render(strings.Repeat(" ", axisW+1)))
		for _, l := range labels {
			if lipgloss.Width(l) > colW {
				l = l[:colW]
			}
			b.WriteString(axis.Render(padRight(l, colW)))
		}
	}
	return b.String()
}

// Legend renders colored swatches with names.
func Legend(names []string, colors []lipgloss.Color) string {
	t := theme.Active
	var parts []string
	for i, name := range names {
		if i >= len(colors) {
			break
		}
		sw := lipgloss.NewStyle().Foreground(colors[i]).Background(t.Surface).Render("■")
		parts = append(parts, sw+lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(" "+name))
	}
	return strings.Join(parts, lipgloss.NewStyle().Background(t.Surface).Render("   "))
}

// shortAmount formats an axis value compactly (12k, 1.5M).
func shortAmount(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e4:
		return fmt.Sprintf("%.0fk", v/1e3)
	case v >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
