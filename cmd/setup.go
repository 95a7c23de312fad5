package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/garage/internal/config"
	"github.com/theirongolddev/garage/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Choose the vehicle, record store and theme",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	fmt.Println()
	fmt.Println("  Welcome to garage!")
	fmt.Println()

	form, apply := tui.NewSetupForm(cfg)
	if err := form.WithShowHelp(true).Run(); err != nil {
		return cancelled(err)
	}
	next := apply()

	if err := config.Save(next); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	if next.Store.Backend == config.BackendSheets {
		fmt.Println("  Share the spreadsheet with the service account's email so it can read and append.")
	}
	fmt.Println("  Run `garage setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
