package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/garage/internal/cli"
	"github.com/theirongolddev/garage/internal/pipeline"
)

var flagSpendMonths int

var spendCmd = &cobra.Command{
	Use:   "spend",
	Short: "Monthly spend and maintenance cost by category",
	RunE:  runSpend,
}

func init() {
	spendCmd.Flags().IntVarP(&flagSpendMonths, "months", "n", 12, "Number of months to show")
	rootCmd.AddCommand(spendCmd)
}

func runSpend(_ *cobra.Command, _ []string) error {
	if flagSpendMonths < 1 {
		return fmt.Errorf("--months must be at least 1")
	}

	result, err := loadData()
	if err != nil {
		return err
	}
	d := result.Dashboard

	months := pipeline.MonthlySpend(d.Maintenance, d.FuelLog, flagSpendMonths, time.Now())

	var totals []float64
	var sumMaint, sumFuel float64
	rows := make([][]string, 0, len(months)+2)
	for _, m := range months {
		totals = append(totals, m.Total())
		sumMaint += m.Maintenance
		sumFuel += m.Fuel
		rows = append(rows, []string{
			m.Month.Format("2006-01"),
			cli.FormatMoney(m.Maintenance),
			cli.FormatMoney(m.Fuel),
			cli.FormatMoney(m.Total()),
		})
	}
	rows = append(rows, []string{"---"},
		[]string{"Total", cli.FormatMoney(sumMaint), cli.FormatMoney(sumFuel), cli.FormatMoney(sumMaint + sumFuel)})

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SPEND  Last %d months", flagSpendMonths)))
	fmt.Println()
	fmt.Printf("  Trend: %s\n\n", cli.RenderSparkline(totals))

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "By month",
		Headers: []string{"Month", "Maintenance", "Fuel", "Total"},
		Rows:    rows,
	}))
	fmt.Println()

	byCat := pipeline.SpendByCategory(d.Maintenance)
	if len(byCat) == 0 {
		return nil
	}
	var peak float64
	labelW := 0
	catRows := make([][]string, len(byCat))
	for i, c := range byCat {
		peak = max(peak, c.Cost)
		labelW = max(labelW, lipgloss.Width(c.Category.Label()))
		catRows[i] = []string{c.Category.Label(), cli.FormatNumber(int64(c.Records)), cli.FormatMoney(c.Cost)}
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Maintenance by category (all time)",
		Headers: []string{"Category", "Records", "Cost"},
		Rows:    catRows,
	}))
	fmt.Println()
	for _, c := range byCat {
		// CJK labels are two cells wide, so pad by display width
		label := c.Category.Label()
		label += strings.Repeat(" ", labelW-lipgloss.Width(label))
		fmt.Println(cli.RenderHorizontalBar(label, c.Cost, peak, 40))
	}
	fmt.Println()
	return nil
}
