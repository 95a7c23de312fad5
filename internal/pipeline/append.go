package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/theirongolddev/garage/internal/config"
	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/store"
)

// FuelEntry is a fill-up as typed by the operator. Which of UnitPrice and
// TotalCost is read depends on the fuel entry mode.
type FuelEntry struct {
	Date       time.Time
	OdometerKM int
	Liters     float64
	UnitPrice  float64 // read in unit mode
	TotalCost  float64 // read in total mode
}

// UnitPrice returns total/liters rounded to two decimals, or 0 when liters
// is not positive.
func UnitPrice(total, liters float64) float64 {
	if liters <= 0 {
		return 0
	}
	return math.Round(total/liters*100) / 100
}

// NewFuelRecord completes an entry into a record, deriving the field the
// mode leaves out.
func NewFuelRecord(e FuelEntry, mode string) (model.FuelRecord, error) {
	rec := model.FuelRecord{
		Date:       dateOnly(e.Date),
		OdometerKM: e.OdometerKM,
		Liters:     e.Liters,
	}
	switch mode {
	case config.FuelEntryTotal, "":
		rec.TotalCost = e.TotalCost
		rec.UnitPrice = UnitPrice(e.TotalCost, e.Liters)
	case config.FuelEntryUnit:
		// The stored unit price is re-derived from the rounded total so the
		// pair always satisfies unit = round(total/liters, 2).
		if e.Liters > 0 {
			rec.TotalCost = math.Round(e.Liters*e.UnitPrice*100) / 100
		}
		rec.UnitPrice = UnitPrice(rec.TotalCost, e.Liters)
	default:
		return model.FuelRecord{}, fmt.Errorf("unknown fuel entry mode %q", mode)
	}
	return rec, nil
}

// FuelCells orders a fuel record as a table row.
func FuelCells(r model.FuelRecord) []any {
	return []any{
		r.Date.Format(model.DateLayout),
		r.OdometerKM,
		r.Liters,
		r.UnitPrice,
		r.TotalCost,
	}
}

// MaintenanceCells orders a maintenance record as a table row.
func MaintenanceCells(r model.MaintenanceRecord) []any {
	return []any{
		r.Date.Format(model.DateLayout),
		r.OdometerKM,
		r.Item,
		r.Category.Label(),
		r.Cost,
		r.Note,
		r.Part,
	}
}

// AppendFuel writes one fuel row. Failures are returned, never retried.
func AppendFuel(ctx context.Context, st store.RecordStore, table string, r model.FuelRecord) error {
	if err := st.Append(ctx, table, FuelCells(r)); err != nil {
		return fmt.Errorf("appending fuel record: %w", err)
	}
	return nil
}

// tableEnsurer is implemented by stores that can complete an older header
// before a wider row is appended.
type tableEnsurer interface {
	EnsureTable(ctx context.Context, table string, columns []string) error
}

// AppendMaintenance writes one maintenance row. Failures are returned, never retried.
// The table header is completed first where the store allows it, so the part
// tag is not written under a missing column.
func AppendMaintenance(ctx context.Context, st store.RecordStore, table string, r model.MaintenanceRecord) error {
	r.Date = dateOnly(r.Date)
	if e, ok := st.(tableEnsurer); ok {
		if err := e.EnsureTable(ctx, table, model.MaintenanceColumns); err != nil {
			return fmt.Errorf("preparing maintenance table: %w", err)
		}
	}
	if err := st.Append(ctx, table, MaintenanceCells(r)); err != nil {
		return fmt.Errorf("appending maintenance record: %w", err)
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
