package tui

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/garage/internal/config"
	"github.com/theirongolddev/garage/internal/logging"
	"github.com/theirongolddev/garage/internal/tui/theme"
)

// setupValues holds the first-run form answers.
type setupValues struct {
	base config.Config

	Vehicle         string
	Backend         string
	SpreadsheetID   string
	CredentialsFile string
	DBPath          string
	FuelMode        string
	Theme           string
}

func newSetupValues(cfg config.Config) *setupValues {
	return &setupValues{
		base:            cfg,
		Vehicle:         cfg.General.Vehicle,
		Backend:         cfg.Store.Backend,
		SpreadsheetID:   cfg.Store.SpreadsheetID,
		CredentialsFile: cfg.Store.CredentialsFile,
		DBPath:          cfg.Store.DBPath,
		FuelMode:        cfg.General.FuelEntryMode,
		Theme:           cfg.Appearance.Theme,
	}
}

// NewSetupForm builds the setup form over cfg for use outside the
// dashboard (`garage setup`). apply returns the configuration the answers
// describe once the form has completed.
func NewSetupForm(cfg config.Config) (form *huh.Form, apply func() config.Config) {
	v := newSetupValues(cfg)
	return newSetupForm(v), v.apply
}

func newSetupForm(v *setupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], len(theme.All))
	for i, t := range theme.All {
		themeOpts[i] = huh.NewOption(t.Name, t.Name)
	}

	sheetsOnly := func() bool { return v.Backend != config.BackendSheets }
	sqliteOnly := func() bool { return v.Backend != config.BackendSQLite }

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to garage").
				Description("A maintenance and fuel log for one vehicle.\nA few questions and the dashboard starts."),
			huh.NewInput().
				Title("Vehicle name").
				Value(&v.Vehicle).
				Validate(required("vehicle name")),
			huh.NewSelect[string]().
				Title("Where are the records kept?").
				Options(
					huh.NewOption("Google Sheets spreadsheet", config.BackendSheets),
					huh.NewOption("Local SQLite database", config.BackendSQLite),
				).
				Value(&v.Backend),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Spreadsheet ID").
				Description("The long ID in the spreadsheet URL, between /d/ and /edit.").
				Value(&v.SpreadsheetID).
				Validate(required("spreadsheet ID")),
			huh.NewInput().
				Title("Service account key file").
				Description("JSON key of a service account the spreadsheet is shared with.\nLeave blank to use GARAGE_CREDENTIALS_JSON.").
				Value(&v.CredentialsFile).
				Validate(optionalFile),
		).WithHideFunc(sheetsOnly),
		huh.NewGroup(
			huh.NewInput().
				Title("Database file").
				Placeholder(config.DefaultConfig().DBPath()).
				Description("Leave blank for the default location.").
				Value(&v.DBPath),
		).WithHideFunc(sqliteOnly),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Fuel entry").
				Description("Which figure you read off the pump receipt.").
				Options(
					huh.NewOption("Liters and total paid (unit price derived)", config.FuelEntryTotal),
					huh.NewOption("Liters and unit price (total derived)", config.FuelEntryUnit),
				).
				Value(&v.FuelMode),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.Theme),
		),
	).WithShowHelp(false)
}

// apply copies the answers onto the base configuration.
func (v *setupValues) apply() config.Config {
	cfg := v.base
	cfg.General.Vehicle = strings.TrimSpace(v.Vehicle)
	cfg.General.FuelEntryMode = v.FuelMode
	cfg.Store.Backend = v.Backend
	cfg.Appearance.Theme = v.Theme

	switch v.Backend {
	case config.BackendSheets:
		cfg.Store.SpreadsheetID = strings.TrimSpace(v.SpreadsheetID)
		cfg.Store.CredentialsFile = strings.TrimSpace(v.CredentialsFile)
	case config.BackendSQLite:
		cfg.Store.DBPath = strings.TrimSpace(v.DBPath)
	}
	return cfg
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func optionalFile(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := os.Stat(s); err != nil {
		return fmt.Errorf("cannot read %s", s)
	}
	return nil
}

// startSetup opens the setup form over the current configuration.
func (a *App) startSetup() tea.Cmd {
	a.setupVals = newSetupValues(a.cfg)
	a.setupForm = newSetupForm(a.setupVals)
	if a.width > 0 {
		a.setupForm = a.setupForm.WithWidth(min(a.width, 80)).WithHeight(a.height)
	}
	return a.setupForm.Init()
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		saveErr := a.saveSetupConfig()
		a.setupForm = nil
		a.needSetup = false
		cmds := []tea.Cmd{a.startLoad()}
		if saveErr != nil {
			cmds = append(cmds, a.setFlash("settings not saved: "+errSummary(saveErr), true))
		}
		return a, tea.Batch(cmds...)

	case huh.StateAborted:
		a.setupForm = nil
		if a.needSetup {
			// Nothing to show without a configured store.
			return a, tea.Quit
		}
		return a, nil
	}
	return a, cmd
}

// saveSetupConfig applies the answers and drops the open store so the next
// load uses the new backend. The answers apply for this session even when
// the file cannot be written.
func (a *App) saveSetupConfig() error {
	cfg := a.setupVals.apply()
	theme.SetActive(cfg.Appearance.Theme)

	if err := a.Close(); err != nil {
		logging.Warn("closing record store", "error", err)
	}
	a.st = nil
	a.cfg = cfg
	a.result = nil

	return config.Save(cfg)
}
