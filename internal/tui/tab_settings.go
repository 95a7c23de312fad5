package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/garage/internal/cli"
	"github.com/theirongolddev/garage/internal/config"
	"github.com/theirongolddev/garage/internal/tui/components"
	"github.com/theirongolddev/garage/internal/tui/theme"
)

// cycleTheme switches to the next theme and persists it (best-effort).
func (a *App) cycleTheme() tea.Cmd {
	a.cfg.Appearance.Theme = theme.Next(a.cfg.Appearance.Theme)
	theme.SetActive(a.cfg.Appearance.Theme)

	// table styles capture colors at construction
	a.maintTable = newLogTable()
	a.fuelTable = newLogTable()
	a.recompute()

	if err := config.Save(a.cfg); err != nil {
		return a.setFlash("theme not saved: "+errSummary(err), true)
	}
	return a.setFlash("theme: "+a.cfg.Appearance.Theme, false)
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.cfg

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)

	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-18s", label)) + valueStyle.Render(value)
	}

	storeRows := []string{row("Backend", cfg.Store.Backend)}
	switch cfg.Store.Backend {
	case config.BackendSheets:
		creds := cfg.Store.CredentialsFile
		if creds == "" {
			creds = "(GARAGE_CREDENTIALS_JSON)"
		}
		storeRows = append(storeRows,
			row("Spreadsheet", cfg.Store.SpreadsheetID),
			row("Credentials", creds))
	case config.BackendSQLite:
		storeRows = append(storeRows, row("Database", cfg.DBPath()))
	}
	storeRows = append(storeRows,
		row("Maintenance table", cfg.Store.MaintenanceTable),
		row("Fuel table", cfg.Store.FuelTable))

	general := []string{
		row("Vehicle", cfg.General.Vehicle),
		row("Default mileage", cli.FormatKM(cfg.General.DefaultMileage)),
		row("Fuel entry", cfg.General.FuelEntryMode),
		row("Theme", cfg.Appearance.Theme),
		row("Config file", config.Path()),
	}

	var parts []string
	for _, p := range cfg.TrackedParts() {
		parts = append(parts, row(p.Name,
			fmt.Sprintf("%s km · %d months", cli.FormatNumber(int64(p.KMInterval)), p.MonthInterval)))
	}

	hints := keyStyle.Render("[t]") + labelStyle.Render(" cycle theme   ") +
		keyStyle.Render("[e]") + labelStyle.Render(" edit setup")

	var b strings.Builder
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("General", strings.Join(general, "\n"), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Record store", strings.Join(storeRows, "\n"), cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("General", strings.Join(general, "\n"), halves[0]),
			components.ContentCard("Record store", strings.Join(storeRows, "\n"), halves[1]),
		}))
	}
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Tracked parts", strings.Join(parts, "\n"), cw))
	b.WriteString("\n ")
	b.WriteString(hints)
	return b.String()
}
