package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/theirongolddev/garage/internal/config"
	"github.com/theirongolddev/garage/internal/logging"
	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/source"
	"github.com/theirongolddev/garage/internal/store"
)

// LoadResult holds the output of one read-evaluate cycle.
type LoadResult struct {
	Dashboard model.Dashboard
	Coercions []source.CoercionError
	Warnings  []string // table-level problems that do not stop the load
	LoadedAt  time.Time
}

// ProgressFunc is called before each table is read.
type ProgressFunc func(table string)

// Load reads both tables and computes the dashboard as of now.
func Load(ctx context.Context, st store.RecordStore, cfg config.Config, now time.Time) (*LoadResult, error) {
	return LoadWithProgress(ctx, st, cfg, now, nil)
}

// LoadWithProgress is Load with a progress callback. Any store error aborts
// the cycle and no partial dashboard is returned.
func LoadWithProgress(ctx context.Context, st store.RecordStore, cfg config.Config, now time.Time, progressFn ProgressFunc) (*LoadResult, error) {
	maintTable := cfg.Store.MaintenanceTable
	fuelTable := cfg.Store.FuelTable

	if progressFn != nil {
		progressFn(maintTable)
	}
	maintRows, err := st.ReadAll(ctx, maintTable)
	if err != nil {
		return nil, fmt.Errorf("loading maintenance log: %w", err)
	}

	if progressFn != nil {
		progressFn(fuelTable)
	}
	fuelRows, err := st.ReadAll(ctx, fuelTable)
	if err != nil {
		return nil, fmt.Errorf("loading fuel log: %w", err)
	}

	maint := source.ParseMaintenance(maintTable, maintRows)
	fuel := source.ParseFuel(fuelTable, fuelRows)

	result := &LoadResult{LoadedAt: now}
	if len(maintRows) > 0 {
		if _, ok := maintRows[0][model.ColPart]; !ok {
			logging.Warn("maintenance table has no part column; part tags are ignored",
				"table", maintTable, "column", model.ColPart)
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s has no %s column: part tags are ignored until the next maintenance record is added",
				maintTable, model.ColPart))
		}
	}
	result.Coercions = append(result.Coercions, maint.Coercions...)
	result.Coercions = append(result.Coercions, fuel.Coercions...)
	for _, c := range result.Coercions {
		logging.Warn("cell coercion failed",
			"table", c.Table, "row", c.Row, "column", c.Column, "value", c.Value)
	}

	current := CurrentMileage(maint.Records, fuel.Records, cfg.General.DefaultMileage)

	result.Dashboard = model.Dashboard{
		Vehicle:        cfg.General.Vehicle,
		CurrentMileage: current,
		Parts:          EstimateWear(maint.Records, cfg.TrackedParts(), current, now),
		Fuel:           SummarizeFuel(fuel.Records),
		Maintenance:    SortMaintenance(maint.Records),
		FuelLog:        SortFuel(fuel.Records),
	}

	logging.Debug("dashboard loaded",
		"maintenance_rows", len(maintRows),
		"fuel_rows", len(fuelRows),
		"current_km", current,
		"coercions", len(result.Coercions))

	return result, nil
}

// SortMaintenance returns a copy ordered by odometer, highest first.
// Rows with equal readings keep their stored order.
func SortMaintenance(records []model.MaintenanceRecord) []model.MaintenanceRecord {
	out := make([]model.MaintenanceRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OdometerKM > out[j].OdometerKM
	})
	return out
}

// SortFuel returns a copy ordered by odometer, highest first, with
// readings that failed coercion last.
func SortFuel(records []model.FuelRecord) []model.FuelRecord {
	out := make([]model.FuelRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.OdometerMissing != b.OdometerMissing {
			return !a.OdometerMissing
		}
		return a.OdometerKM > b.OdometerKM
	})
	return out
}
