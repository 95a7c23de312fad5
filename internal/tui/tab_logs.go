package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/garage/internal/cli"
	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/tui/components"
	"github.com/theirongolddev/garage/internal/tui/theme"
)

// newLogTable returns a focused, themed table for one of the record logs.
func newLogTable() table.Model {
	t := theme.Active
	tbl := table.New(table.WithFocused(true))

	s := table.DefaultStyles()
	s.Header = s.Header.
		Foreground(t.Accent).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true).
		Bold(true)
	s.Cell = s.Cell.Foreground(t.TextPrimary)
	s.Selected = s.Selected.
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(false)
	tbl.SetStyles(s)
	return tbl
}

// flexColumns gives the last flexible column whatever width remains.
func flexColumns(cols []table.Column, flex, innerW int) []table.Column {
	used := 0
	for i, c := range cols {
		if i != flex {
			used += c.Width + 2 // cell padding
		}
	}
	cols[flex].Width = max(innerW-used-2, 8)
	return cols
}

func maintenanceColumns(innerW int) []table.Column {
	return flexColumns([]table.Column{
		{Title: model.ColDate, Width: 10},
		{Title: model.ColOdometer, Width: 9},
		{Title: model.ColItem, Width: 18},
		{Title: model.ColCategory, Width: 16},
		{Title: model.ColCost, Width: 8},
		{Title: model.ColPart, Width: 8},
		{Title: model.ColNote, Width: 10},
	}, 6, innerW)
}

func fuelColumns(innerW int) []table.Column {
	return flexColumns([]table.Column{
		{Title: model.ColDate, Width: 10},
		{Title: model.ColOdometer, Width: 9},
		{Title: model.ColLiters, Width: 8},
		{Title: model.ColUnit, Width: 8},
		{Title: model.ColTotal, Width: 8},
		{Title: "km/L", Width: 8},
	}, 5, innerW)
}

func maintenanceRows(records []model.MaintenanceRecord) []table.Row {
	rows := make([]table.Row, len(records))
	for i, r := range records {
		rows[i] = table.Row{
			cli.FormatDate(r.Date),
			cli.FormatNumber(int64(r.OdometerKM)),
			r.Item,
			r.Category.Label(),
			cli.FormatMoney(r.Cost),
			r.Part,
			r.Note,
		}
	}
	return rows
}

// fuelRows renders the fuel log, highest odometer first. The km/L column is
// the distance since the next-lower reading divided by this fill's liters.
func fuelRows(records []model.FuelRecord) []table.Row {
	rows := make([]table.Row, len(records))
	for i, r := range records {
		km := "-"
		if !r.OdometerMissing {
			km = cli.FormatNumber(int64(r.OdometerKM))
		}
		rows[i] = table.Row{
			cli.FormatDate(r.Date),
			km,
			cli.FormatAmount(r.Liters),
			cli.FormatPrice(r.UnitPrice),
			cli.FormatMoney(r.TotalCost),
			fillEconomy(records, i),
		}
	}
	return rows
}

func fillEconomy(records []model.FuelRecord, i int) string {
	r := records[i]
	if r.OdometerMissing || r.Liters <= 0 || i+1 >= len(records) {
		return "-"
	}
	prev := records[i+1]
	if prev.OdometerMissing || prev.OdometerKM >= r.OdometerKM {
		return "-"
	}
	return fmt.Sprintf("%.2f", float64(r.OdometerKM-prev.OdometerKM)/r.Liters)
}

func (a App) renderMaintenanceTab(cw int) string {
	title := fmt.Sprintf("Maintenance log · %d records", len(a.result.Dashboard.Maintenance))
	return components.ContentCard(title, a.maintTable.View(), cw)
}

func (a App) renderFuelTab(cw int) string {
	f := a.result.Dashboard.Fuel

	economy := "-"
	if f.AvgKMPerLiter > 0 {
		economy = cli.FormatEconomy(f.AvgKMPerLiter)
	}
	metrics := []components.Metric{
		{Label: "Average economy", Value: economy},
		{Label: "Distance", Value: cli.FormatKM(f.TotalDistanceKM)},
		{Label: "Fuel", Value: cli.FormatAmount(f.TotalLiters) + " L"},
		{Label: "Spend", Value: cli.FormatMoney(f.TotalSpend)},
		{Label: "Latest price", Value: cli.FormatPrice(f.LatestUnitPrice) + " /L"},
	}

	title := fmt.Sprintf("Fuel log · %d fills", f.Fills)
	return components.MetricCardRow(metrics, cw) + "\n" +
		components.ContentCard(title, a.fuelTable.View(), cw)
}

// activeTable returns the table shown on the current tab, if any.
func (a *App) activeTable() *table.Model {
	switch a.activeTab {
	case tabMaintenance:
		return &a.maintTable
	case tabFuel:
		return &a.fuelTable
	}
	return nil
}

func (a *App) scrollActiveTable(delta int) {
	tbl := a.activeTable()
	if tbl == nil {
		return
	}
	if delta < 0 {
		tbl.MoveUp(-delta)
	} else {
		tbl.MoveDown(delta)
	}
}

// handleTableKey forwards list navigation keys to the active log table.
func (a *App) handleTableKey(key string, msg tea.KeyMsg) bool {
	tbl := a.activeTable()
	if tbl == nil {
		return false
	}
	switch key {
	case "up", "down", "j", "k", "pgup", "pgdown", "home", "end", "g", "G", "ctrl+u", "ctrl+d":
		*tbl, _ = tbl.Update(msg)
		return true
	}
	return false
}
