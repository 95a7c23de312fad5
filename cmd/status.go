package cmd

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/garage/internal/cli"
	"github.com/theirongolddev/garage/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Mileage, part wear and fuel summary",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}
	d := result.Dashboard

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  %s", d.Vehicle, cli.FormatKM(d.CurrentMileage))))
	fmt.Println()

	counts := d.CountByStatus()
	var maintSpend float64
	for _, r := range d.Maintenance {
		maintSpend += r.Cost
	}

	economy := "-"
	if d.Fuel.AvgKMPerLiter > 0 {
		economy = cli.FormatEconomy(d.Fuel.AvgKMPerLiter)
	}

	rows := [][]string{
		{"Current mileage", cli.FormatKM(d.CurrentMileage)},
		{"Maintenance records", cli.FormatNumber(int64(len(d.Maintenance)))},
		{"Fuel fills", cli.FormatNumber(int64(d.Fuel.Fills))},
		{"---"},
		{"Overdue", fmt.Sprint(counts[model.WearOverdue])},
		{"Warning", fmt.Sprint(counts[model.WearWarning])},
		{"OK", fmt.Sprint(counts[model.WearOK])},
		{"No record", fmt.Sprint(counts[model.WearNoRecord])},
		{"---"},
		{"Fuel economy", economy},
		{"Fuel spend", cli.FormatMoney(d.Fuel.TotalSpend)},
		{"Maintenance spend", cli.FormatMoney(maintSpend)},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Overview",
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	var attention []model.PartWear
	for _, p := range d.Parts {
		if p.Status == model.WearOverdue || p.Status == model.WearWarning {
			attention = append(attention, p)
		}
	}
	sort.SliceStable(attention, func(i, j int) bool {
		return attention[i].Usage > attention[j].Usage
	})
	if len(attention) > 0 {
		fmt.Println()
		warn := lipgloss.NewStyle().Foreground(cli.ColorOrange).Bold(true)
		fmt.Printf("  %s\n", warn.Render("Needs attention"))
		for _, p := range attention {
			fmt.Printf("    %s %-8s %s\n", cli.RenderStatus(p.Status), p.Part.Name, p.Reason)
		}
	}

	fmt.Printf("\n  Loaded at %s\n\n", result.LoadedAt.Format("15:04:05"))
	return nil
}
