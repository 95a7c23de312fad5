package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/garage/internal/cli"
	"github.com/theirongolddev/garage/internal/config"
	"github.com/theirongolddev/garage/internal/pipeline"
	"github.com/theirongolddev/garage/internal/store"
)

var flagSyncDB string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror the spreadsheet into the local SQLite database",
	Long: "Copy rows appended to the spreadsheet since the last sync into the local\n" +
		"SQLite database, so `--store sqlite` works offline.",
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&flagSyncDB, "db", "", "SQLite database path (default store.db_path)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(_ *cobra.Command, _ []string) error {
	if cfg.Store.Backend != config.BackendSheets {
		return errors.New("sync reads from the sheets backend; drop --store sqlite")
	}

	src, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(src)

	dbPath := cfg.DBPath()
	if flagSyncDB != "" {
		dbPath = flagSyncDB
	}
	dst, err := store.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	if !flagQuiet {
		fmt.Printf("  Syncing into %s\n", dbPath)
	}
	specs := tableSpecs(cfg)
	res, err := pipeline.Sync(ctx, src, dst, specs)
	if err != nil {
		return err
	}

	rows := make([][]string, len(specs))
	for i, t := range specs {
		rows[i] = []string{
			t.Name,
			cli.FormatNumber(int64(res.Copied[t.Name])),
			cli.FormatNumber(int64(res.Skipped[t.Name])),
		}
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Sync",
		Headers: []string{"Table", "Copied", "Already mirrored"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
