package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/garage/internal/cli"
	"github.com/theirongolddev/garage/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Vehicle:         %s\n", cfg.General.Vehicle)
	fmt.Printf("    Default mileage: %s\n", cli.FormatKM(cfg.General.DefaultMileage))
	fmt.Printf("    Fuel entry:      %s\n", cfg.General.FuelEntryMode)
	fmt.Println()

	fmt.Println("  [Store]")
	fmt.Printf("    Backend:           %s\n", cfg.Store.Backend)
	switch cfg.Store.Backend {
	case config.BackendSheets:
		id := cfg.Store.SpreadsheetID
		if id == "" {
			id = "not configured"
		}
		fmt.Printf("    Spreadsheet:       %s\n", id)
		switch {
		case os.Getenv("GARAGE_CREDENTIALS_JSON") != "":
			fmt.Println("    Credentials:       GARAGE_CREDENTIALS_JSON")
		case cfg.Store.CredentialsFile != "":
			fmt.Printf("    Credentials:       %s\n", cfg.Store.CredentialsFile)
		default:
			fmt.Println("    Credentials:       not configured")
		}
	case config.BackendSQLite:
		fmt.Printf("    Database:          %s\n", cfg.DBPath())
	}
	fmt.Printf("    Maintenance table: %s\n", cfg.Store.MaintenanceTable)
	fmt.Printf("    Fuel table:        %s\n", cfg.Store.FuelTable)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Println()

	rows := make([][]string, 0, len(cfg.TrackedParts()))
	for _, p := range cfg.TrackedParts() {
		rows = append(rows, []string{
			p.Name,
			cli.FormatNumber(int64(p.KMInterval)),
			fmt.Sprint(p.MonthInterval),
		})
	}
	label := "Tracked parts (defaults)"
	if len(cfg.Parts) > 0 {
		label = "Tracked parts"
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   label,
		Headers: []string{"Part", "km", "Months"},
		Rows:    rows,
	}))
	fmt.Println()

	fmt.Println("  Run `garage setup` to reconfigure.")
	return nil
}
