package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/garage/internal/cli"
	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/tui/components"
	"github.com/theirongolddev/garage/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	d := a.result.Dashboard
	counts := d.CountByStatus()
	var b strings.Builder

	// Row 1: metric cards
	attention := counts[model.WearOverdue] + counts[model.WearWarning]
	attentionColor := t.Green
	switch {
	case counts[model.WearOverdue] > 0:
		attentionColor = t.Red
	case counts[model.WearWarning] > 0:
		attentionColor = t.Orange
	}

	var maintSpend float64
	for _, r := range d.Maintenance {
		maintSpend += r.Cost
	}

	economy := "-"
	if d.Fuel.AvgKMPerLiter > 0 {
		economy = cli.FormatEconomy(d.Fuel.AvgKMPerLiter)
	}

	metrics := []components.Metric{
		{Label: "Current mileage", Value: cli.FormatKM(d.CurrentMileage), Note: d.Vehicle},
		{Label: "Needs attention", Value: fmt.Sprintf("%d / %d parts", attention, len(d.Parts)), Color: attentionColor,
			Note: fmt.Sprintf("%d overdue · %d warning", counts[model.WearOverdue], counts[model.WearWarning])},
		{Label: "Fuel economy", Value: economy, Note: fmt.Sprintf("%d fills", d.Fuel.Fills)},
		{Label: "Spend", Value: cli.FormatMoney(maintSpend + d.Fuel.TotalSpend),
			Note: "fuel " + cli.FormatMoney(d.Fuel.TotalSpend) + " · service " + cli.FormatMoney(maintSpend)},
	}
	if a.isCompactLayout() {
		b.WriteString(components.MetricCardRow(metrics[:2], cw))
		b.WriteString("\n")
		b.WriteString(components.MetricCardRow(metrics[2:], cw))
	} else {
		b.WriteString(components.MetricCardRow(metrics, cw))
	}
	b.WriteString("\n")

	// Row 2: part wear gauges
	b.WriteString(components.ContentCard("Part wear", a.wearGauges(d.Parts, components.CardInnerWidth(cw)), cw))
	b.WriteString("\n")

	// Row 3: coercion warnings, when the last load had to substitute defaults
	if len(a.result.Coercions) > 0 {
		b.WriteString(components.AlertCard(
			fmt.Sprintf("! %d cells could not be read", len(a.result.Coercions)),
			coercionLines(a, components.CardInnerWidth(cw)),
			t.Orange, cw))
		b.WriteString("\n")
	}

	return b.String()
}

func (a App) wearGauges(parts []model.PartWear, innerW int) string {
	if len(parts) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Active.TextDim).Render("No tracked parts configured")
	}

	labelW := 0
	for _, p := range parts {
		labelW = max(labelW, lipgloss.Width(p.Part.Name))
	}
	// reserve label, percentage and a short justification
	barW := min(max(innerW-labelW-50, 10), 40)

	lines := make([]string, len(parts))
	for i, p := range parts {
		lines[i] = components.WearGauge(p, labelW, barW)
	}
	return strings.Join(lines, "\n")
}

func coercionLines(a App, innerW int) string {
	const shown = 3
	dim := lipgloss.NewStyle().Foreground(theme.Active.TextMuted)

	var lines []string
	for i, c := range a.result.Coercions {
		if i == shown {
			lines = append(lines, dim.Render(fmt.Sprintf("… and %d more (see the log file)", len(a.result.Coercions)-shown)))
			break
		}
		lines = append(lines, dim.Render(truncStr(c.Error(), innerW)))
	}
	return strings.Join(lines, "\n")
}
