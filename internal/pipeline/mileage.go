// Package pipeline loads records from the store and derives dashboard metrics.
package pipeline

import "github.com/theirongolddev/garage/internal/model"

// CurrentMileage returns the highest odometer reading across both logs,
// or fallback when no record carries a positive reading.
func CurrentMileage(maint []model.MaintenanceRecord, fuel []model.FuelRecord, fallback int) int {
	current := 0
	for _, r := range maint {
		if r.OdometerKM > current {
			current = r.OdometerKM
		}
	}
	for _, r := range fuel {
		if !r.OdometerMissing && r.OdometerKM > current {
			current = r.OdometerKM
		}
	}
	if current == 0 {
		return fallback
	}
	return current
}
