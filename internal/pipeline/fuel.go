package pipeline

import "github.com/theirongolddev/garage/internal/model"

// SummarizeFuel aggregates distance, volume and spend over the fuel log.
// Distance is the spread between the lowest and highest odometer readings;
// records without a reading still count toward liters and spend.
func SummarizeFuel(records []model.FuelRecord) model.FuelSummary {
	s := model.FuelSummary{Fills: len(records)}

	var (
		minKM, maxKM int
		haveKM       bool
		latest       model.FuelRecord
		haveLatest   bool
	)
	for _, r := range records {
		s.TotalLiters += r.Liters
		s.TotalSpend += r.TotalCost

		if !r.OdometerMissing {
			if !haveKM || r.OdometerKM < minKM {
				minKM = r.OdometerKM
			}
			if !haveKM || r.OdometerKM > maxKM {
				maxKM = r.OdometerKM
			}
			haveKM = true
		}

		if !haveLatest || !r.Date.Before(latest.Date) {
			latest = r
			haveLatest = true
		}
	}

	if haveKM {
		s.TotalDistanceKM = maxKM - minKM
	}
	if s.TotalDistanceKM > 0 && s.TotalLiters > 0 {
		s.AvgKMPerLiter = float64(s.TotalDistanceKM) / s.TotalLiters
	}
	if haveLatest {
		s.LatestUnitPrice = latest.UnitPrice
	}
	return s
}
