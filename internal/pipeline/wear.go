package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/garage/internal/model"
)

// Wear thresholds on the unclamped usage fraction.
const (
	WarnThreshold    = 0.8
	OverdueThreshold = 1.0

	// DaysPerMonth converts elapsed days to months.
	DaysPerMonth = 30.4
)

// EstimateWear computes the wear of each part, in parts order.
//
// A record belongs to a part when its Part tag equals the part name. Records
// without a tag fall back to matching when the item text contains the part
// name. The service event used is the matching record with the highest
// odometer; on a tie the later row wins.
func EstimateWear(records []model.MaintenanceRecord, parts []model.PartSpec, currentKM int, today time.Time) []model.PartWear {
	out := make([]model.PartWear, 0, len(parts))
	for _, p := range parts {
		out = append(out, estimatePart(records, p, currentKM, today))
	}
	return out
}

func estimatePart(records []model.MaintenanceRecord, p model.PartSpec, currentKM int, today time.Time) model.PartWear {
	w := model.PartWear{Part: p, Status: model.WearNoRecord}

	last, found := latestService(records, p.Name)
	if !found || last.Date.IsZero() {
		return w
	}

	kmSince := currentKM - last.OdometerKM
	if kmSince < 0 {
		kmSince = 0
	}
	months := float64(daysBetween(last.Date, today)) / DaysPerMonth
	if months < 0 {
		months = 0
	}

	w.LastKM = last.OdometerKM
	w.LastDate = last.Date.Format(model.DateLayout)
	w.KMSince = kmSince
	w.MonthsSince = months
	w.UsageKM = float64(kmSince) / float64(p.KMInterval)
	w.UsageTime = months / float64(p.MonthInterval)
	w.TimeCritical = w.UsageTime > w.UsageKM
	w.Usage = max(w.UsageKM, w.UsageTime)
	w.Fraction = min(max(w.Usage, 0), 1)
	w.Status = Classify(w.Usage)

	if w.TimeCritical {
		w.Reason = fmt.Sprintf("%d months since service (interval %d months)", int(months), p.MonthInterval)
	} else {
		w.Reason = fmt.Sprintf("%d km since service (interval %d km)", kmSince, p.KMInterval)
	}
	return w
}

// Classify maps a usage fraction to a wear status.
func Classify(usage float64) model.WearStatus {
	switch {
	case usage >= OverdueThreshold:
		return model.WearOverdue
	case usage > WarnThreshold:
		return model.WearWarning
	default:
		return model.WearOK
	}
}

// MatchesPart reports whether r records a service of the named part.
func MatchesPart(r model.MaintenanceRecord, part string) bool {
	if r.Part != "" {
		return r.Part == part
	}
	return part != "" && strings.Contains(r.Item, part)
}

func latestService(records []model.MaintenanceRecord, part string) (model.MaintenanceRecord, bool) {
	var (
		best  model.MaintenanceRecord
		found bool
	)
	for _, r := range records {
		if !MatchesPart(r, part) {
			continue
		}
		if !found || r.OdometerKM >= best.OdometerKM {
			best = r
			found = true
		}
	}
	return best, found
}

// daysBetween counts calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
