package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/garage/internal/model"
)

var today = time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)

func maint(km int, item string, daysAgo int) model.MaintenanceRecord {
	return model.MaintenanceRecord{
		Date:       today.AddDate(0, 0, -daysAgo),
		OdometerKM: km,
		Item:       item,
		Category:   model.CategoryConsumable,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEstimateWear_OverdueByDistance(t *testing.T) {
	parts := []model.PartSpec{{Name: "機油", KMInterval: 5000, MonthInterval: 6}}
	records := []model.MaintenanceRecord{maint(140000, "機油更換", 0)}

	got := EstimateWear(records, parts, 148000, today)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	w := got[0]
	if !approx(w.UsageKM, 1.6) {
		t.Errorf("UsageKM = %v, want 1.6", w.UsageKM)
	}
	if !approx(w.Usage, 1.6) {
		t.Errorf("Usage = %v, want 1.6", w.Usage)
	}
	if w.Fraction != 1.0 {
		t.Errorf("Fraction = %v, want clamped 1.0", w.Fraction)
	}
	if w.Status != model.WearOverdue {
		t.Errorf("Status = %s, want overdue", w.Status)
	}
	if w.TimeCritical {
		t.Error("TimeCritical = true, want false")
	}
	if w.Reason != "8000 km since service (interval 5000 km)" {
		t.Errorf("Reason = %q", w.Reason)
	}
}

func TestEstimateWear_TimeCritical(t *testing.T) {
	parts := []model.PartSpec{{Name: "電瓶", KMInterval: 40000, MonthInterval: 24}}
	// 700 days ≈ 23.03 months, only 1000 km driven.
	records := []model.MaintenanceRecord{maint(147000, "更換電瓶", 700)}

	w := EstimateWear(records, parts, 148000, today)[0]
	if !w.TimeCritical {
		t.Fatal("TimeCritical = false, want true")
	}
	wantTime := 700 / DaysPerMonth / 24
	if !approx(w.UsageTime, wantTime) {
		t.Errorf("UsageTime = %v, want %v", w.UsageTime, wantTime)
	}
	if w.Status != model.WearWarning {
		t.Errorf("Status = %s, want warning (usage %.3f)", w.Status, w.Usage)
	}
	if w.Reason != "23 months since service (interval 24 months)" {
		t.Errorf("Reason = %q", w.Reason)
	}
}

func TestEstimateWear_NoRecord(t *testing.T) {
	parts := []model.PartSpec{
		{Name: "輪胎", KMInterval: 40000, MonthInterval: 36},
		{Name: "機油", KMInterval: 5000, MonthInterval: 6},
	}
	records := []model.MaintenanceRecord{
		{OdometerKM: 140000, Item: "機油更換"}, // date failed coercion
	}

	got := EstimateWear(records, parts, 148000, today)
	for _, w := range got {
		if w.Status != model.WearNoRecord || w.HasRecord() {
			t.Errorf("%s: Status = %s, want no_record", w.Part.Name, w.Status)
		}
	}
	if got[0].Part.Name != "輪胎" || got[1].Part.Name != "機油" {
		t.Errorf("parts out of configuration order: %v, %v", got[0].Part.Name, got[1].Part.Name)
	}
}

func TestEstimateWear_LatestByOdometer(t *testing.T) {
	parts := []model.PartSpec{{Name: "雨刷", KMInterval: 10000, MonthInterval: 12}}
	records := []model.MaintenanceRecord{
		maint(145000, "雨刷", 30),
		maint(120000, "雨刷", 1), // later date, lower odometer: not the latest service
		maint(145000, "雨刷膠條", 10),
	}

	w := EstimateWear(records, parts, 148000, today)[0]
	if w.LastKM != 145000 {
		t.Errorf("LastKM = %d, want 145000", w.LastKM)
	}
	if w.LastDate != today.AddDate(0, 0, -10).Format(model.DateLayout) {
		t.Errorf("LastDate = %s, want the later of the tied rows", w.LastDate)
	}
}

func TestEstimateWear_ExplicitTagBeatsSubstring(t *testing.T) {
	parts := []model.PartSpec{
		{Name: "機油", KMInterval: 5000, MonthInterval: 6},
		{Name: "變速箱油", KMInterval: 20000, MonthInterval: 24},
	}
	tagged := maint(147000, "機油+變速箱油", 5)
	tagged.Part = "變速箱油"
	records := []model.MaintenanceRecord{
		maint(140000, "機油", 100),
		tagged,
	}

	got := EstimateWear(records, parts, 148000, today)
	if got[0].LastKM != 140000 {
		t.Errorf("機油 LastKM = %d, want 140000 (tagged gearbox record must not match)", got[0].LastKM)
	}
	if got[1].LastKM != 147000 {
		t.Errorf("變速箱油 LastKM = %d, want 147000", got[1].LastKM)
	}
}

func TestEstimateWear_OdometerBehindServiceClampsToZero(t *testing.T) {
	parts := []model.PartSpec{{Name: "機油", KMInterval: 5000, MonthInterval: 6}}
	records := []model.MaintenanceRecord{maint(150000, "機油", 0)}

	w := EstimateWear(records, parts, 148000, today)[0]
	if w.KMSince != 0 || w.UsageKM != 0 {
		t.Errorf("KMSince = %d, UsageKM = %v; want 0, 0", w.KMSince, w.UsageKM)
	}
	if w.Status != model.WearOK {
		t.Errorf("Status = %s, want ok", w.Status)
	}
}

func TestEstimateWear_Monotonic(t *testing.T) {
	parts := []model.PartSpec{{Name: "機油", KMInterval: 5000, MonthInterval: 6}}
	records := []model.MaintenanceRecord{maint(140000, "機油", 0)}

	prev := -1.0
	for km := 139000; km <= 152000; km += 500 {
		u := EstimateWear(records, parts, km, today)[0].Usage
		if u < prev {
			t.Fatalf("usage decreased with mileage at %d km: %v < %v", km, u, prev)
		}
		prev = u
	}

	prev = -1.0
	for d := 0; d <= 400; d += 7 {
		u := EstimateWear(records, parts, 140500, today.AddDate(0, 0, d))[0].Usage
		if u < prev {
			t.Fatalf("usage decreased with time at day %d: %v < %v", d, u, prev)
		}
		prev = u
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		usage float64
		want  model.WearStatus
	}{
		{0, model.WearOK},
		{0.5, model.WearOK},
		{0.8, model.WearOK},
		{0.8000001, model.WearWarning},
		{0.99, model.WearWarning},
		{1.0, model.WearOverdue},
		{3.2, model.WearOverdue},
	}
	for _, tt := range tests {
		got := Classify(tt.usage)
		if got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.usage, got, tt.want)
		}
		if (got == model.WearOverdue) != (tt.usage >= 1.0) {
			t.Errorf("Classify(%v): overdue iff usage >= 1.0 violated", tt.usage)
		}
		if (got == model.WearWarning) != (tt.usage > 0.8 && tt.usage < 1.0) {
			t.Errorf("Classify(%v): warning iff 0.8 < usage < 1.0 violated", tt.usage)
		}
	}
}

func TestMatchesPart(t *testing.T) {
	if !MatchesPart(model.MaintenanceRecord{Item: "更換機油+機油芯"}, "機油") {
		t.Error("untagged substring match failed")
	}
	if MatchesPart(model.MaintenanceRecord{Item: "機油", Part: "雨刷"}, "機油") {
		t.Error("tag should override item text")
	}
	if MatchesPart(model.MaintenanceRecord{Item: "oil"}, "Oil") {
		t.Error("substring match should be case-sensitive")
	}
	if MatchesPart(model.MaintenanceRecord{Item: "x"}, "") {
		t.Error("empty part name must not match")
	}
}

func TestCurrentMileage(t *testing.T) {
	if got := CurrentMileage(nil, nil, 150000); got != 150000 {
		t.Errorf("empty = %d, want fallback 150000", got)
	}

	m := []model.MaintenanceRecord{{OdometerKM: 140000}, {OdometerKM: 147500}}
	f := []model.FuelRecord{
		{OdometerKM: 148000},
		{OdometerKM: 999999, OdometerMissing: true},
	}
	if got := CurrentMileage(m, f, 150000); got != 148000 {
		t.Errorf("CurrentMileage = %d, want 148000", got)
	}
	if got := CurrentMileage(m, nil, 150000); got != 147500 {
		t.Errorf("maintenance only = %d, want 147500", got)
	}
	if got := CurrentMileage([]model.MaintenanceRecord{{OdometerKM: 0}}, nil, 150000); got != 150000 {
		t.Errorf("all-zero readings = %d, want fallback", got)
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, 3, 1, 23, 0, 0, 0, time.Local)
	b := time.Date(2025, 3, 31, 1, 0, 0, 0, time.Local)
	if got := daysBetween(a, b); got != 30 {
		t.Errorf("daysBetween = %d, want 30", got)
	}
	if got := daysBetween(b, a); got != -30 {
		t.Errorf("reverse daysBetween = %d, want -30", got)
	}
}
