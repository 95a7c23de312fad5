package pipeline

import (
	"sort"
	"time"

	"github.com/theirongolddev/garage/internal/model"
)

// CategorySpend holds maintenance spend for one category.
type CategorySpend struct {
	Category model.Category
	Records  int
	Cost     float64
}

// MonthSpend holds the spend of one calendar month.
type MonthSpend struct {
	Month       time.Time // first day of the month
	Maintenance float64
	Fuel        float64
}

// Total returns maintenance plus fuel spend.
func (m MonthSpend) Total() float64 {
	return m.Maintenance + m.Fuel
}

// SpendByCategory totals maintenance cost per category, highest first.
// Ties keep the form order, with unrecognised categories after the known ones.
func SpendByCategory(records []model.MaintenanceRecord) []CategorySpend {
	idx := make(map[model.Category]int)
	var out []CategorySpend
	for _, c := range model.Categories {
		idx[c] = len(out)
		out = append(out, CategorySpend{Category: c})
	}

	for _, r := range records {
		i, ok := idx[r.Category]
		if !ok {
			i = len(out)
			idx[r.Category] = i
			out = append(out, CategorySpend{Category: r.Category})
		}
		out[i].Records++
		out[i].Cost += r.Cost
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Cost > out[j].Cost
	})
	return out
}

// MonthlySpend returns the last n calendar months up to now, oldest first.
// Records without a date are skipped.
func MonthlySpend(maint []model.MaintenanceRecord, fuel []model.FuelRecord, n int, now time.Time) []MonthSpend {
	if n <= 0 {
		return nil
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	first = first.AddDate(0, -(n - 1), 0)

	out := make([]MonthSpend, n)
	for i := range out {
		out[i].Month = first.AddDate(0, i, 0)
	}

	slot := func(d time.Time) int {
		if d.IsZero() {
			return -1
		}
		months := (d.Year()-first.Year())*12 + int(d.Month()) - int(first.Month())
		if months < 0 || months >= n {
			return -1
		}
		return months
	}

	for _, r := range maint {
		if i := slot(r.Date); i >= 0 {
			out[i].Maintenance += r.Cost
		}
	}
	for _, r := range fuel {
		if i := slot(r.Date); i >= 0 {
			out[i].Fuel += r.TotalCost
		}
	}
	return out
}
