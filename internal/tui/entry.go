package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/garage/internal/config"
	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/pipeline"
	"github.com/theirongolddev/garage/internal/source"
	"github.com/theirongolddev/garage/internal/store"
)

type entryKind string

const (
	entryFuel        entryKind = "fuel"
	entryMaintenance entryKind = "maintenance"
)

func (k entryKind) String() string { return string(k) }

const appendTimeout = 15 * time.Second

// entryValues holds the entry form's raw answers. Numbers stay strings
// until submit so the validators can report typos inline.
type entryValues struct {
	Kind      entryKind
	KindFixed bool // opened from a log tab; skip the kind question
	FuelMode  string

	Date     string
	Odometer string

	// fuel
	Liters string
	Amount string // total cost or unit price, depending on FuelMode

	// maintenance
	Item     string
	Category string
	Cost     string
	Note     string
	Part     string
}

func newEntryValues(kind entryKind, fuelMode string, today time.Time, currentKM int) *entryValues {
	v := &entryValues{
		Kind:      kind,
		KindFixed: kind != "",
		FuelMode:  fuelMode,
		Date:      today.Format(model.DateLayout),
		Category:  string(model.CategoryScheduled),
	}
	if v.Kind == "" {
		v.Kind = entryFuel
	}
	if currentKM > 0 {
		v.Odometer = fmt.Sprint(currentKM)
	}
	return v
}

func newEntryForm(v *entryValues, parts []model.PartSpec) *huh.Form {
	categoryOpts := make([]huh.Option[string], len(model.Categories))
	for i, c := range model.Categories {
		categoryOpts[i] = huh.NewOption(c.Label(), string(c))
	}

	partOpts := []huh.Option[string]{huh.NewOption("(match by item name)", "")}
	for _, p := range parts {
		partOpts = append(partOpts, huh.NewOption(p.Name, p.Name))
	}

	amountTitle := "Total paid"
	if v.FuelMode == config.FuelEntryUnit {
		amountTitle = "Unit price (per liter)"
	}

	notFuel := func() bool { return v.Kind != entryFuel }
	notMaint := func() bool { return v.Kind != entryMaintenance }

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[entryKind]().
				Title("Record type").
				Options(
					huh.NewOption("Fuel fill-up", entryFuel),
					huh.NewOption("Maintenance", entryMaintenance),
				).
				Value(&v.Kind),
		).WithHideFunc(func() bool { return v.KindFixed }),
		huh.NewGroup(
			huh.NewInput().Title("Date").Value(&v.Date).Validate(validDate),
			huh.NewInput().Title("Odometer (km)").Value(&v.Odometer).Validate(validOdometer),
			huh.NewInput().Title("Liters").Value(&v.Liters).Validate(validLiters),
			huh.NewInput().Title(amountTitle).Value(&v.Amount).Validate(validAmount),
		).WithHideFunc(notFuel),
		huh.NewGroup(
			huh.NewInput().Title("Date").Value(&v.Date).Validate(validDate),
			huh.NewInput().Title("Odometer (km)").Value(&v.Odometer).Validate(validOdometer),
			huh.NewInput().Title("Item").Placeholder("機油更換").Value(&v.Item).Validate(required("item")),
			huh.NewSelect[string]().Title("Category").Options(categoryOpts...).Value(&v.Category),
			huh.NewInput().Title("Cost").Value(&v.Cost).Validate(validAmount),
			huh.NewSelect[string]().
				Title("Tracked part").
				Description("Tag the record so wear tracking does not rely on the item name.").
				Options(partOpts...).
				Value(&v.Part),
			huh.NewInput().Title("Note").Value(&v.Note),
		).WithHideFunc(notMaint),
	).WithShowHelp(false)
}

func validDate(s string) error {
	_, err := source.ParseDate(s)
	return err
}

func validOdometer(s string) error {
	_, err := source.ParseOdometer(s)
	return err
}

func validAmount(s string) error {
	_, err := source.ParseAmount(s)
	return err
}

func validLiters(s string) error {
	v, err := source.ParseAmount(s)
	if err != nil {
		return err
	}
	if v <= 0 {
		return fmt.Errorf("liters must be positive")
	}
	return nil
}

// fuelRecord converts validated answers into a fuel record.
func (v *entryValues) fuelRecord() (model.FuelRecord, error) {
	date, err := source.ParseDate(v.Date)
	if err != nil {
		return model.FuelRecord{}, err
	}
	km, err := source.ParseOdometer(v.Odometer)
	if err != nil {
		return model.FuelRecord{}, err
	}
	if err := validLiters(v.Liters); err != nil {
		return model.FuelRecord{}, err
	}
	liters, _ := source.ParseAmount(v.Liters)
	amount, err := source.ParseAmount(v.Amount)
	if err != nil {
		return model.FuelRecord{}, err
	}

	e := pipeline.FuelEntry{Date: date, OdometerKM: km, Liters: liters}
	if v.FuelMode == config.FuelEntryUnit {
		e.UnitPrice = amount
	} else {
		e.TotalCost = amount
	}
	return pipeline.NewFuelRecord(e, v.FuelMode)
}

// maintenanceRecord converts validated answers into a maintenance record.
func (v *entryValues) maintenanceRecord() (model.MaintenanceRecord, error) {
	date, err := source.ParseDate(v.Date)
	if err != nil {
		return model.MaintenanceRecord{}, err
	}
	km, err := source.ParseOdometer(v.Odometer)
	if err != nil {
		return model.MaintenanceRecord{}, err
	}
	cost, err := source.ParseAmount(v.Cost)
	if err != nil {
		return model.MaintenanceRecord{}, err
	}
	return model.MaintenanceRecord{
		Date:       date,
		OdometerKM: km,
		Item:       strings.TrimSpace(v.Item),
		Category:   model.Category(v.Category),
		Cost:       cost,
		Note:       strings.TrimSpace(v.Note),
		Part:       v.Part,
	}, nil
}

// appendCmd writes the form's record with a single store call.
func appendCmd(st store.RecordStore, cfg config.Config, v *entryValues) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		defer cancel()

		switch v.Kind {
		case entryFuel:
			rec, err := v.fuelRecord()
			if err != nil {
				return AppendedMsg{Kind: v.Kind, Err: err}
			}
			return AppendedMsg{Kind: v.Kind, Err: pipeline.AppendFuel(ctx, st, cfg.Store.FuelTable, rec)}
		default:
			rec, err := v.maintenanceRecord()
			if err != nil {
				return AppendedMsg{Kind: v.Kind, Err: err}
			}
			return AppendedMsg{Kind: v.Kind, Err: pipeline.AppendMaintenance(ctx, st, cfg.Store.MaintenanceTable, rec)}
		}
	}
}

// FuelAnswers are the raw answers for a fuel record given outside the
// dashboard, e.g. as `garage add fuel` flags.
type FuelAnswers struct {
	Mode     string // fuel entry mode; Amount is a total or a unit price
	Date     string
	Odometer string
	Liters   string
	Amount   string
}

// MaintenanceAnswers are the raw answers for a maintenance record.
type MaintenanceAnswers struct {
	Date     string
	Odometer string
	Item     string
	Category model.Category
	Cost     string
	Note     string
	Part     string
}

// AskFuel builds a fuel record from a. When ask is set the entry form runs
// first, prefilled with a, so missing answers can be filled in.
func AskFuel(a FuelAnswers, ask bool) (model.FuelRecord, error) {
	v := &entryValues{
		Kind:      entryFuel,
		KindFixed: true,
		FuelMode:  a.Mode,
		Date:      a.Date,
		Odometer:  a.Odometer,
		Liters:    a.Liters,
		Amount:    a.Amount,
	}
	if ask {
		if err := newEntryForm(v, nil).WithShowHelp(true).Run(); err != nil {
			return model.FuelRecord{}, err
		}
	}
	return v.fuelRecord()
}

// AskMaintenance builds a maintenance record from a, running the entry form
// first when ask is set. parts feeds the tracked-part choice.
func AskMaintenance(a MaintenanceAnswers, parts []model.PartSpec, ask bool) (model.MaintenanceRecord, error) {
	v := &entryValues{
		Kind:      entryMaintenance,
		KindFixed: true,
		Date:      a.Date,
		Odometer:  a.Odometer,
		Item:      a.Item,
		Category:  string(a.Category),
		Cost:      a.Cost,
		Note:      a.Note,
		Part:      a.Part,
	}
	if v.Category == "" {
		v.Category = string(model.CategoryScheduled)
	}
	if ask {
		if err := newEntryForm(v, parts).WithShowHelp(true).Run(); err != nil {
			return model.MaintenanceRecord{}, err
		}
	}
	if strings.TrimSpace(v.Item) == "" {
		return model.MaintenanceRecord{}, fmt.Errorf("item is required")
	}
	return v.maintenanceRecord()
}

func entryFormWidth(termWidth int) int {
	return min(max(termWidth-16, 40), 72)
}

// startEntry opens the entry form. The record type follows the active tab.
func (a *App) startEntry() tea.Cmd {
	var kind entryKind
	switch a.activeTab {
	case tabFuel:
		kind = entryFuel
	case tabMaintenance, tabParts:
		kind = entryMaintenance
	}

	currentKM := 0
	if a.result != nil {
		currentKM = a.result.Dashboard.CurrentMileage
	}
	a.entryVals = newEntryValues(kind, a.cfg.General.FuelEntryMode, a.now(), currentKM)
	a.entryForm = newEntryForm(a.entryVals, a.cfg.TrackedParts())
	if a.width > 0 {
		a.entryForm = a.entryForm.WithWidth(entryFormWidth(a.width))
	}
	return a.entryForm.Init()
}

func (a App) updateEntryForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.entryForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.entryForm = f
	}

	switch a.entryForm.State {
	case huh.StateCompleted:
		vals := a.entryVals
		a.entryForm = nil
		a.saving = true
		return a, tea.Batch(appendCmd(a.st, a.cfg, vals), a.spinner.Tick)
	case huh.StateAborted:
		a.entryForm = nil
		return a, nil
	}
	return a, cmd
}
