package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/store"
)

func TestSpendByCategory(t *testing.T) {
	records := []model.MaintenanceRecord{
		{Category: model.CategoryRepair, Cost: 5000},
		{Category: model.CategoryConsumable, Cost: 1200},
		{Category: model.CategoryConsumable, Cost: 350},
		{Category: "洗車", Cost: 200},
	}

	got := SpendByCategory(records)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 4 known + 1 unknown", len(got))
	}
	if got[0].Category != model.CategoryRepair || got[0].Cost != 5000 {
		t.Errorf("first = %+v, want repair 5000", got[0])
	}
	if got[1].Category != model.CategoryConsumable || got[1].Records != 2 || got[1].Cost != 1550 {
		t.Errorf("second = %+v, want consumable x2 1550", got[1])
	}
	if got[2].Category != "洗車" {
		t.Errorf("third = %+v, want unknown category ranked by cost", got[2])
	}
	// Zero-cost categories keep form order.
	if got[3].Category != model.CategoryScheduled || got[4].Category != model.CategoryUpgrade {
		t.Errorf("tail = %v, %v", got[3].Category, got[4].Category)
	}
}

func TestMonthlySpend(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.Local)
	d := func(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 0, 0, 0, 0, time.Local) }

	maint := []model.MaintenanceRecord{
		{Date: d(2025, 1, 10), Cost: 1200},
		{Date: d(2024, 12, 31), Cost: 9999}, // outside window
		{Cost: 500},                         // no date
	}
	fuel := []model.FuelRecord{
		{Date: d(2025, 3, 1), TotalCost: 1000},
		{Date: d(2025, 3, 14), TotalCost: 900},
		{Date: d(2025, 2, 2), TotalCost: 800},
	}

	got := MonthlySpend(maint, fuel, 3, now)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Month.Month() != time.January || got[2].Month.Month() != time.March {
		t.Errorf("months = %v .. %v", got[0].Month, got[2].Month)
	}
	if got[0].Maintenance != 1200 || got[0].Fuel != 0 {
		t.Errorf("January = %+v", got[0])
	}
	if got[1].Fuel != 800 {
		t.Errorf("February = %+v", got[1])
	}
	if got[2].Total() != 1900 {
		t.Errorf("March total = %v, want 1900", got[2].Total())
	}

	if MonthlySpend(maint, fuel, 0, now) != nil {
		t.Error("n=0 should return nil")
	}
}

func TestSync_CopiesOnlyNewRows(t *testing.T) {
	ctx := context.Background()
	src := newMemStore()
	src.tables["加油紀錄"] = []store.Row{
		{"日期": "2025-03-01", "里程": "148000", "公升數": "30", "單價": "33.33", "總價": "1000"},
		{"日期": "2025-03-15", "里程": "148450", "公升數": "28", "單價": "32", "總價": "896"},
	}

	dst, err := store.OpenSQLite(filepath.Join(t.TempDir(), "mirror.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = dst.Close() }()

	tables := []TableSpec{{Name: "加油紀錄", Columns: model.FuelColumns}}

	res, err := Sync(ctx, src, dst, tables)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Copied["加油紀錄"] != 2 {
		t.Errorf("first sync copied %d, want 2", res.Copied["加油紀錄"])
	}

	src.tables["加油紀錄"] = append(src.tables["加油紀錄"],
		store.Row{"日期": "2025-04-01", "里程": "148900", "公升數": "29", "單價": "31", "總價": "899"})

	res, err = Sync(ctx, src, dst, tables)
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if res.Copied["加油紀錄"] != 1 || res.Skipped["加油紀錄"] != 2 {
		t.Errorf("second sync = %+v, want 1 copied 2 skipped", res)
	}

	rows, err := dst.ReadAll(ctx, "加油紀錄")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[2]["里程"] != "148900" {
		t.Errorf("mirror rows = %v", rows)
	}
}
