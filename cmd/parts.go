package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/garage/internal/cli"
	"github.com/theirongolddev/garage/internal/model"
)

var flagPartsAttention bool

var partsCmd = &cobra.Command{
	Use:   "parts",
	Short: "Wear of each tracked part",
	RunE:  runParts,
}

func init() {
	partsCmd.Flags().BoolVarP(&flagPartsAttention, "attention", "a", false, "Only parts in warning or overdue")
	rootCmd.AddCommand(partsCmd)
}

func runParts(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}
	d := result.Dashboard

	var rows [][]string
	for _, p := range d.Parts {
		if flagPartsAttention && p.Status != model.WearWarning && p.Status != model.WearOverdue {
			continue
		}
		rows = append(rows, partRow(p))
	}

	fmt.Println()
	if len(rows) == 0 {
		fmt.Println("  All tracked parts are within their service intervals.")
		fmt.Println()
		return nil
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:      fmt.Sprintf("Part wear at %s", cli.FormatKM(d.CurrentMileage)),
		Headers:    []string{"Part", "Interval", "Last service", "Since", "Wear", "Usage", "Status"},
		Rows:       rows,
		RightAlign: []bool{false, true, false, true, false, true, false},
	}))
	fmt.Println()
	return nil
}

func partRow(p model.PartWear) []string {
	interval := fmt.Sprintf("%s km / %d mo", cli.FormatNumber(int64(p.Part.KMInterval)), p.Part.MonthInterval)
	bar := cli.RenderWearBar(p, 20)
	if !p.HasRecord() {
		return []string{p.Part.Name, interval, "-", "-", bar, "-", cli.RenderStatus(p.Status)}
	}

	usage := cli.FormatPercent(p.Usage)
	if p.TimeCritical {
		usage += " (time)"
	}
	return []string{
		p.Part.Name,
		interval,
		fmt.Sprintf("%s @ %s", p.LastDate, cli.FormatKM(p.LastKM)),
		fmt.Sprintf("%s km / %.1f mo", cli.FormatNumber(int64(p.KMSince)), p.MonthsSince),
		bar,
		usage,
		cli.RenderStatus(p.Status),
	}
}
