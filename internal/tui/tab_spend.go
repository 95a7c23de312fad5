package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/garage/internal/cli"
	"github.com/theirongolddev/garage/internal/tui/components"
	"github.com/theirongolddev/garage/internal/tui/theme"
)

func (a App) renderSpendTab(cw int) string {
	t := theme.Active
	var b strings.Builder

	// Monthly chart: maintenance stacked under fuel
	maint := make([]float64, len(a.months))
	fuel := make([]float64, len(a.months))
	labels := make([]string, len(a.months))
	var total float64
	for i, m := range a.months {
		maint[i] = m.Maintenance
		fuel[i] = m.Fuel
		labels[i] = m.Month.Format("Jan")
		total += m.Total()
	}

	chartH := 10
	if a.isCompactLayout() {
		chartH = 6
	}
	inner := components.CardInnerWidth(cw)
	chart := components.StackedBarChart([]components.Series{
		{Values: maint, Color: t.Orange},
		{Values: fuel, Color: t.Blue},
	}, labels, inner, chartH)
	legend := components.Legend([]string{"maintenance", "fuel"}, []lipgloss.Color{t.Orange, t.Blue})

	b.WriteString(components.ContentCard(
		fmt.Sprintf("Last %d months · %s", len(a.months), cli.FormatMoney(total)),
		chart+"\n\n"+legend, cw))
	b.WriteString("\n")

	// Category breakdown
	var maxCost float64
	for _, c := range a.spend {
		maxCost = max(maxCost, c.Cost)
	}
	labelW := 0
	for _, c := range a.spend {
		labelW = max(labelW, lipgloss.Width(c.Category.Label()))
	}
	barW := max(inner-labelW-28, 10)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	barStyle := lipgloss.NewStyle().Foreground(t.Orange)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	var lines []string
	for _, c := range a.spend {
		n := 0
		if maxCost > 0 {
			n = int(c.Cost / maxCost * float64(barW))
		}
		label := c.Category.Label()
		label += strings.Repeat(" ", labelW-lipgloss.Width(label))
		lines = append(lines, fmt.Sprintf("%s %s%s %10s %s",
			labelStyle.Render(label),
			barStyle.Render(strings.Repeat("█", n)),
			strings.Repeat(" ", barW-n),
			cli.FormatMoney(c.Cost),
			dimStyle.Render(fmt.Sprintf("(%d)", c.Records)),
		))
	}
	if len(lines) == 0 {
		lines = append(lines, dimStyle.Render("No maintenance records"))
	}
	b.WriteString(components.ContentCard("Maintenance by category", strings.Join(lines, "\n"), cw))
	return b.String()
}
