package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/garage/internal/cli"
	"github.com/theirongolddev/garage/internal/config"
	"github.com/theirongolddev/garage/internal/logging"
	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/pipeline"
	"github.com/theirongolddev/garage/internal/store"
	"github.com/theirongolddev/garage/internal/tui"
)

const appendTimeout = 15 * time.Second

var (
	flagAddDate     string
	flagAddOdometer string
	flagAddLiters   string
	flagAddTotal    string
	flagAddUnit     string
	flagAddItem     string
	flagAddCategory string
	flagAddCost     string
	flagAddNote     string
	flagAddPart     string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a fuel or maintenance record",
	Long: "Append one record to the store. Missing required values are asked for\n" +
		"interactively; pass every value as a flag to skip the form.",
}

var addFuelCmd = &cobra.Command{
	Use:   "fuel",
	Short: "Record a fill-up",
	Example: "  garage add fuel --odometer 148450 --liters 30.5 --total 952\n" +
		"  garage add fuel --odometer 148450 --liters 30.5 --unit 31.2",
	RunE: runAddFuel,
}

var addMaintenanceCmd = &cobra.Command{
	Use:     "maintenance",
	Aliases: []string{"maint"},
	Short:   "Record a service or repair",
	Example: "  garage add maintenance --odometer 148450 --item 機油更換 --cost 1200 --part 機油",
	RunE:    runAddMaintenance,
}

func init() {
	for _, c := range []*cobra.Command{addFuelCmd, addMaintenanceCmd} {
		c.Flags().StringVar(&flagAddDate, "date", "", "Record date, YYYY-MM-DD (default today)")
		c.Flags().StringVarP(&flagAddOdometer, "odometer", "o", "", "Odometer reading in km")
	}

	addFuelCmd.Flags().StringVarP(&flagAddLiters, "liters", "l", "", "Liters filled")
	addFuelCmd.Flags().StringVar(&flagAddTotal, "total", "", "Total paid; unit price is derived")
	addFuelCmd.Flags().StringVar(&flagAddUnit, "unit", "", "Price per liter; total is derived")
	addFuelCmd.MarkFlagsMutuallyExclusive("total", "unit")

	addMaintenanceCmd.Flags().StringVarP(&flagAddItem, "item", "i", "", "What was done")
	addMaintenanceCmd.Flags().StringVarP(&flagAddCategory, "category", "c", "", "Category label or key (default scheduled)")
	addMaintenanceCmd.Flags().StringVar(&flagAddCost, "cost", "", "Cost")
	addMaintenanceCmd.Flags().StringVar(&flagAddNote, "note", "", "Free-text note")
	addMaintenanceCmd.Flags().StringVarP(&flagAddPart, "part", "p", "", "Tracked part this record services")

	addCmd.AddCommand(addFuelCmd, addMaintenanceCmd)
	rootCmd.AddCommand(addCmd)
}

func runAddFuel(_ *cobra.Command, _ []string) error {
	a := tui.FuelAnswers{
		Mode:     cfg.General.FuelEntryMode,
		Date:     defaultDate(flagAddDate),
		Odometer: flagAddOdometer,
		Liters:   flagAddLiters,
		Amount:   flagAddTotal,
	}
	switch {
	case flagAddUnit != "":
		a.Mode = config.FuelEntryUnit
		a.Amount = flagAddUnit
	case flagAddTotal != "":
		a.Mode = config.FuelEntryTotal
	}

	ask := a.Odometer == "" || a.Liters == "" || a.Amount == ""
	rec, err := tui.AskFuel(a, ask)
	if err != nil {
		return cancelled(err)
	}

	if err := appendRecord(func(ctx context.Context, st store.RecordStore) error {
		return pipeline.AppendFuel(ctx, st, cfg.Store.FuelTable, rec)
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Saved to " + cfg.Store.FuelTable,
		Headers: model.FuelColumns,
		Rows: [][]string{{
			cli.FormatDate(rec.Date),
			cli.FormatNumber(int64(rec.OdometerKM)),
			cli.FormatAmount(rec.Liters),
			cli.FormatPrice(rec.UnitPrice),
			cli.FormatMoney(rec.TotalCost),
		}},
	}))
	fmt.Println()
	return nil
}

func runAddMaintenance(_ *cobra.Command, _ []string) error {
	a := tui.MaintenanceAnswers{
		Date:     defaultDate(flagAddDate),
		Odometer: flagAddOdometer,
		Item:     flagAddItem,
		Cost:     flagAddCost,
		Note:     flagAddNote,
		Part:     flagAddPart,
	}
	if flagAddCategory != "" {
		c, ok := model.ParseCategory(flagAddCategory)
		if !ok {
			return fmt.Errorf("unknown category %q", flagAddCategory)
		}
		a.Category = c
	}
	parts := cfg.TrackedParts()
	if a.Part != "" {
		if _, ok := config.LookupPart(parts, a.Part); !ok {
			return fmt.Errorf("%q is not a tracked part", a.Part)
		}
	}

	ask := a.Odometer == "" || strings.TrimSpace(a.Item) == "" || a.Cost == ""
	rec, err := tui.AskMaintenance(a, parts, ask)
	if err != nil {
		return cancelled(err)
	}

	if err := appendRecord(func(ctx context.Context, st store.RecordStore) error {
		return pipeline.AppendMaintenance(ctx, st, cfg.Store.MaintenanceTable, rec)
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Saved to " + cfg.Store.MaintenanceTable,
		Headers: model.MaintenanceColumns,
		Rows: [][]string{{
			cli.FormatDate(rec.Date),
			cli.FormatNumber(int64(rec.OdometerKM)),
			rec.Item,
			rec.Category.Label(),
			cli.FormatMoney(rec.Cost),
			rec.Note,
			rec.Part,
		}},
		RightAlign: []bool{false, true, false, false, true, false, false},
	}))
	fmt.Println()
	return nil
}

// appendRecord opens the store and runs one append against it.
func appendRecord(fn func(ctx context.Context, st store.RecordStore) error) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()

	if err := fn(ctx, st); err != nil {
		return err
	}
	logging.Info("record appended", "backend", cfg.Store.Backend)
	return nil
}

func defaultDate(s string) string {
	if s == "" {
		return time.Now().Format(model.DateLayout)
	}
	return s
}

// cancelled turns an aborted form into a quiet exit.
func cancelled(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println("  Cancelled, nothing was saved.")
		return nil
	}
	return err
}
