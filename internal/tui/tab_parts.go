package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/theirongolddev/garage/internal/cli"
	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/tui/components"
	"github.com/theirongolddev/garage/internal/tui/theme"
)

// renderPartsTab shows the per-part detail behind the wear gauges.
func (a App) renderPartsTab(cw int) string {
	t := theme.Active
	parts := a.result.Dashboard.Parts

	headers := []string{"Part", "Interval", "Last service", "Since", "Usage", "Status"}
	rows := make([][]string, len(parts))
	for i, p := range parts {
		rows[i] = partRow(p)
	}

	cell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Padding(0, 1)
	tbl := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface)).
		Headers(headers...).
		Rows(rows...).
		Width(components.CardInnerWidth(cw)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return cell.Foreground(t.Accent).Bold(true)
			}
			if col == 5 && row < len(parts) {
				return cell.Foreground(t.Status(parts[row].Status))
			}
			if col >= 3 && col <= 4 {
				return cell.Align(lipgloss.Right)
			}
			return cell
		})

	title := fmt.Sprintf("Tracked parts at %s", cli.FormatKM(a.result.Dashboard.CurrentMileage))
	return components.ContentCard(title, tbl.String(), cw)
}

func partRow(p model.PartWear) []string {
	interval := fmt.Sprintf("%s km / %d mo", cli.FormatNumber(int64(p.Part.KMInterval)), p.Part.MonthInterval)
	if !p.HasRecord() {
		return []string{p.Part.Name, interval, "-", "-", "-", cli.FormatStatus(p.Status)}
	}

	last := cli.FormatKM(p.LastKM)
	if p.LastDate != "" {
		last = p.LastDate + " @ " + last
	}
	since := fmt.Sprintf("%s km / %.1f mo", cli.FormatNumber(int64(p.KMSince)), p.MonthsSince)
	usage := cli.FormatPercent(p.Usage)
	if p.TimeCritical {
		usage += " (time)"
	}
	return []string{p.Part.Name, interval, last, since, usage, cli.FormatStatus(p.Status)}
}
