// Package source coerces untyped store rows into maintenance and fuel records.
package source

import (
	"strings"

	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/store"
)

// firstDataRow is the sheet row number of the first record.
const firstDataRow = 2

// ParseMaintenance coerces maintenance rows. It never fails: a cell that
// cannot be coerced keeps a zero value and is reported in Coercions.
//
// Defaults per column:
//   - date     → zero time (the record then counts as having no service date)
//   - odometer → 0
//   - cost     → 0
//
// Unknown category text is kept verbatim.
func ParseMaintenance(table string, rows []store.Row) MaintenanceResult {
	res := MaintenanceResult{Records: make([]model.MaintenanceRecord, 0, len(rows))}
	report := func(i int, col, val string) {
		res.Coercions = append(res.Coercions, CoercionError{
			Table: table, Row: rows[i].Line(i + firstDataRow), Column: col, Value: val,
		})
	}

	for i, row := range rows {
		var rec model.MaintenanceRecord

		if d, ok := scanDate(row[model.ColDate]); ok {
			rec.Date = d
		} else {
			report(i, model.ColDate, row[model.ColDate])
		}

		km, blank, ok := scanOdometer(row[model.ColOdometer])
		if !ok || blank {
			report(i, model.ColOdometer, row[model.ColOdometer])
		}
		rec.OdometerKM = km

		cost, _, ok := scanNumber(row[model.ColCost])
		if !ok {
			report(i, model.ColCost, row[model.ColCost])
		}
		rec.Cost = cost

		rec.Item = strings.TrimSpace(row[model.ColItem])
		rec.Category, _ = model.ParseCategory(strings.TrimSpace(row[model.ColCategory]))
		rec.Note = strings.TrimSpace(row[model.ColNote])
		rec.Part = strings.TrimSpace(row[model.ColPart])

		res.Records = append(res.Records, rec)
	}
	return res
}

// ParseFuel coerces fuel rows. A blank or non-numeric odometer marks the
// record OdometerMissing so it is left out of distance calculations;
// non-numeric liters and prices become 0.
func ParseFuel(table string, rows []store.Row) FuelResult {
	res := FuelResult{Records: make([]model.FuelRecord, 0, len(rows))}
	report := func(i int, col, val string) {
		res.Coercions = append(res.Coercions, CoercionError{
			Table: table, Row: rows[i].Line(i + firstDataRow), Column: col, Value: val,
		})
	}

	for i, row := range rows {
		var rec model.FuelRecord

		if d, ok := scanDate(row[model.ColDate]); ok {
			rec.Date = d
		} else {
			report(i, model.ColDate, row[model.ColDate])
		}

		km, blank, ok := scanOdometer(row[model.ColOdometer])
		if !ok || blank {
			report(i, model.ColOdometer, row[model.ColOdometer])
			rec.OdometerMissing = true
		}
		rec.OdometerKM = km

		for _, f := range []struct {
			col string
			dst *float64
		}{
			{model.ColLiters, &rec.Liters},
			{model.ColUnit, &rec.UnitPrice},
			{model.ColTotal, &rec.TotalCost},
		} {
			v, _, ok := scanNumber(row[f.col])
			if !ok {
				report(i, f.col, row[f.col])
			}
			*f.dst = v
		}

		res.Records = append(res.Records, rec)
	}
	return res
}
