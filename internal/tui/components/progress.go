package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/tui/theme"
)

// StepBar renders a discrete progress bar for the loading screen,
// e.g. 1 of 2 tables read.
func StepBar(done, total, width int) string {
	t := theme.Active
	if total <= 0 {
		total = 1
	}
	filled := min(max(done*width/total, 0), width)

	filledStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)

	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled)) +
		countStyle.Render(fmt.Sprintf(" %d/%d", done, total))
}

// WearGauge renders a labeled part-wear bar: name, bar colored by status,
// percentage of consumed life, and the justification text.
// Parts without a service record render an empty bar.
func WearGauge(w model.PartWear, labelW, barWidth int) string {
	t := theme.Active
	color := t.Status(w.Status)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	reasonStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	pct := "  —"
	reason := "no service record"
	if w.HasRecord() {
		pct = fmt.Sprintf("%3.0f%%", w.Usage*100)
		reason = w.Reason
	}

	return labelStyle.Render(padRight(w.Part.Name, labelW)) +
		space +
		bar.ViewAs(w.Fraction) +
		space +
		pctStyle.Render(fmt.Sprintf("%5s", pct)) +
		space + space +
		reasonStyle.Render(reason)
}

// padRight pads s with spaces to width display cells.
func padRight(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
