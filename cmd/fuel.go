package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/garage/internal/cli"
	"github.com/theirongolddev/garage/internal/model"
)

var flagFuelLimit int

var fuelCmd = &cobra.Command{
	Use:   "fuel",
	Short: "Fuel log and economy",
	RunE:  runFuel,
}

func init() {
	fuelCmd.Flags().IntVarP(&flagFuelLimit, "limit", "l", 20, "Show at most this many fills (0 = all)")
	rootCmd.AddCommand(fuelCmd)
}

func runFuel(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}
	f := result.Dashboard.Fuel
	fills := result.Dashboard.FuelLog

	fmt.Println()
	if len(fills) == 0 {
		fmt.Println("  No fuel records yet. Add one with `garage add fuel`.")
		fmt.Println()
		return nil
	}

	economy := "-"
	if f.AvgKMPerLiter > 0 {
		economy = cli.FormatEconomy(f.AvgKMPerLiter)
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Fuel summary",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Fills", cli.FormatNumber(int64(f.Fills))},
			{"Distance", cli.FormatKM(f.TotalDistanceKM)},
			{"Liters", cli.FormatAmount(f.TotalLiters)},
			{"Average economy", economy},
			{"Total spend", cli.FormatMoney(f.TotalSpend)},
			{"Latest price", cli.FormatPrice(f.LatestUnitPrice) + " /L"},
		},
	}))
	fmt.Println()

	shown := fills
	if flagFuelLimit > 0 && len(shown) > flagFuelLimit {
		shown = shown[:flagFuelLimit]
	}

	rows := make([][]string, len(shown))
	for i, r := range shown {
		km := "-"
		if !r.OdometerMissing {
			km = cli.FormatNumber(int64(r.OdometerKM))
		}
		econ := "-"
		// the log is ordered highest odometer first
		if i+1 < len(fills) && !r.OdometerMissing && !fills[i+1].OdometerMissing &&
			r.Liters > 0 && fills[i+1].OdometerKM < r.OdometerKM {
			econ = fmt.Sprintf("%.2f", float64(r.OdometerKM-fills[i+1].OdometerKM)/r.Liters)
		}
		rows[i] = []string{
			cli.FormatDate(r.Date),
			km,
			cli.FormatAmount(r.Liters),
			cli.FormatPrice(r.UnitPrice),
			cli.FormatMoney(r.TotalCost),
			econ,
		}
	}

	title := "Fuel log"
	if len(shown) < len(fills) {
		title = fmt.Sprintf("Fuel log (latest %d of %d)", len(shown), len(fills))
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:      title,
		Headers:    []string{model.ColDate, model.ColOdometer, model.ColLiters, model.ColUnit, model.ColTotal, "km/L"},
		Rows:       rows,
		RightAlign: []bool{false, true, true, true, true, true},
	}))
	fmt.Println()
	return nil
}
