// Package cmd implements the garage CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/garage/internal/config"
	"github.com/theirongolddev/garage/internal/logging"
	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/pipeline"
	"github.com/theirongolddev/garage/internal/sheets"
	"github.com/theirongolddev/garage/internal/store"
)

var (
	flagConfig  string
	flagStore   string
	flagQuiet   bool
	flagVerbose bool
)

// cfg is loaded once per invocation, before any command runs.
var cfg config.Config

const (
	loadTimeout   = 30 * time.Second
	sheetsTimeout = 20 * time.Second
)

var rootCmd = &cobra.Command{
	Use:   "garage",
	Short: "Vehicle maintenance and fuel dashboard",
	Long: "Track service intervals, part wear and fuel economy from a maintenance log\n" +
		"and a fuel log kept in a Google spreadsheet or a local SQLite database.",
	SilenceUsage:      true,
	PersistentPostRun: func(*cobra.Command, []string) { _ = logging.Close() },
	RunE:              runTUI,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// assigned here: initRuntime refers back to rootCmd
	rootCmd.PersistentPreRunE = initRuntime

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().StringVarP(&flagStore, "store", "s", "", "Record store backend: sheets or sqlite")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
}

// initRuntime loads .env, the config file and the logger.
func initRuntime(cmd *cobra.Command, _ []string) error {
	// .env is optional; a missing file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading .env: %w", err)
	}

	if flagConfig != "" {
		config.SetPath(flagConfig)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	if flagStore != "" {
		cfg.Store.Backend = strings.ToLower(flagStore)
	}

	opts := logging.Options{Verbose: flagVerbose}
	if logsToFile(cmd) {
		opts.File = filepath.Join(config.StateDir(), "garage.log")
	}
	if err := logging.Init(opts); err != nil {
		return err
	}
	logging.Debug("config loaded", "path", config.Path(), "backend", cfg.Store.Backend)
	return nil
}

// logsToFile reports whether cmd owns the terminal, in which case log lines
// would corrupt the screen.
func logsToFile(cmd *cobra.Command) bool {
	return cmd == rootCmd || cmd == tuiCmd
}

// openStore connects to the configured record store. SQLite tables are
// created on first use.
func openStore(c config.Config) (store.RecordStore, error) {
	switch c.Store.Backend {
	case config.BackendSheets:
		if c.Store.SpreadsheetID == "" {
			return nil, errors.New("no spreadsheet configured: run `garage setup` or set GARAGE_SPREADSHEET_ID")
		}
		key, err := c.CredentialsJSON()
		if err != nil {
			return nil, err
		}
		sa, err := sheets.ParseServiceAccount(key)
		if err != nil {
			return nil, err
		}
		logging.Debug("using sheets store", "spreadsheet", c.Store.SpreadsheetID, "account", sa.Email())
		return sheets.NewClient(c.Store.SpreadsheetID, sa,
			sheets.WithHTTPClient(&http.Client{Timeout: sheetsTimeout})), nil

	case config.BackendSQLite:
		db, err := store.OpenSQLite(c.DBPath())
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, t := range tableSpecs(c) {
			if err := db.EnsureTable(ctx, t.Name, t.Columns); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		logging.Debug("using sqlite store", "path", c.DBPath())
		return db, nil
	}
	return nil, fmt.Errorf("unknown store backend %q (want %s or %s)",
		c.Store.Backend, config.BackendSheets, config.BackendSQLite)
}

func closeStore(st store.RecordStore) {
	if c, ok := st.(io.Closer); ok {
		_ = c.Close()
	}
}

func tableSpecs(c config.Config) []pipeline.TableSpec {
	return []pipeline.TableSpec{
		{Name: c.Store.MaintenanceTable, Columns: model.MaintenanceColumns},
		{Name: c.Store.FuelTable, Columns: model.FuelColumns},
	}
}

// loadData is the shared read path of the reporting commands.
func loadData() (*pipeline.LoadResult, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore(st)

	progressFn := func(table string) {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Reading %s...\n", table)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	result, err := pipeline.LoadWithProgress(ctx, st, cfg, time.Now(), progressFn)
	if err != nil {
		return nil, err
	}

	if !flagQuiet {
		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "  Warning: %s\n", w)
		}
	}
	if !flagQuiet && len(result.Coercions) > 0 {
		fmt.Fprintf(os.Stderr, "  %d cells could not be read and were defaulted:\n", len(result.Coercions))
		for i, c := range result.Coercions {
			if i == 5 {
				fmt.Fprintf(os.Stderr, "    ... and %d more\n", len(result.Coercions)-i)
				break
			}
			fmt.Fprintf(os.Stderr, "    %s\n", c.Error())
		}
	}
	return result, nil
}
