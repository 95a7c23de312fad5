package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/garage/internal/cli"
	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/pipeline"
)

var (
	flagMaintLimit    int
	flagMaintPart     string
	flagMaintCategory string
)

var maintenanceCmd = &cobra.Command{
	Use:     "maintenance",
	Aliases: []string{"maint"},
	Short:   "Maintenance log",
	RunE:    runMaintenance,
}

func init() {
	maintenanceCmd.Flags().IntVarP(&flagMaintLimit, "limit", "l", 20, "Show at most this many records (0 = all)")
	maintenanceCmd.Flags().StringVarP(&flagMaintPart, "part", "p", "", "Only services of this part")
	maintenanceCmd.Flags().StringVarP(&flagMaintCategory, "category", "c", "", "Only this category (label or key)")
	rootCmd.AddCommand(maintenanceCmd)
}

func runMaintenance(_ *cobra.Command, _ []string) error {
	var category model.Category
	if flagMaintCategory != "" {
		c, ok := model.ParseCategory(flagMaintCategory)
		if !ok {
			return fmt.Errorf("unknown category %q", flagMaintCategory)
		}
		category = c
	}

	result, err := loadData()
	if err != nil {
		return err
	}

	var records []model.MaintenanceRecord
	var total float64
	for _, r := range result.Dashboard.Maintenance {
		if flagMaintPart != "" && !pipeline.MatchesPart(r, flagMaintPart) {
			continue
		}
		if category != "" && r.Category != category {
			continue
		}
		records = append(records, r)
		total += r.Cost
	}

	fmt.Println()
	if len(records) == 0 {
		fmt.Println("  No matching maintenance records.")
		fmt.Println()
		return nil
	}

	shown := records
	if flagMaintLimit > 0 && len(shown) > flagMaintLimit {
		shown = shown[:flagMaintLimit]
	}

	rows := make([][]string, 0, len(shown)+2)
	for _, r := range shown {
		rows = append(rows, []string{
			cli.FormatDate(r.Date),
			cli.FormatNumber(int64(r.OdometerKM)),
			r.Item,
			r.Category.Label(),
			cli.FormatMoney(r.Cost),
			r.Part,
			r.Note,
		})
	}
	rows = append(rows, []string{"---"},
		[]string{"Total", "", fmt.Sprintf("%d records", len(records)), "", cli.FormatMoney(total), "", ""})

	title := "Maintenance log"
	if len(shown) < len(records) {
		title = fmt.Sprintf("Maintenance log (latest %d of %d)", len(shown), len(records))
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:      title,
		Headers:    model.MaintenanceColumns,
		Rows:       rows,
		RightAlign: []bool{false, true, false, false, true, false, false},
	}))
	fmt.Println()
	return nil
}
