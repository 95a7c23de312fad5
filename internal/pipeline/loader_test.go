package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/garage/internal/config"
	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/store"
)

// memStore is an in-memory RecordStore.
type memStore struct {
	tables  map[string][]store.Row
	appends map[string][][]any
	err     error
}

func newMemStore() *memStore {
	return &memStore{
		tables:  make(map[string][]store.Row),
		appends: make(map[string][][]any),
	}
}

func (m *memStore) ReadAll(_ context.Context, table string) ([]store.Row, error) {
	if m.err != nil {
		return nil, m.err
	}
	rows, ok := m.tables[table]
	if !ok {
		return nil, &store.ConnectionError{Backend: "mem", Op: "read", Table: table, Err: store.ErrTableNotFound}
	}
	return rows, nil
}

func (m *memStore) Append(_ context.Context, table string, cells []any) error {
	if m.err != nil {
		return m.err
	}
	m.appends[table] = append(m.appends[table], cells)
	return nil
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Parts = []model.PartSpec{{Name: "機油", KMInterval: 5000, MonthInterval: 6}}
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := testConfig()
	st := newMemStore()
	st.tables[cfg.Store.MaintenanceTable] = []store.Row{
		{"日期": "2025-05-01", "里程": "140000", "項目": "機油更換", "類別": "消耗品", "費用": "1200"},
		{"日期": "2025-05-20", "里程": "oops", "項目": "洗車", "類別": "維修", "費用": "200"},
		{"日期": "2025-05-25", "里程": "147000", "項目": "雨刷", "類別": "消耗品", "費用": "350"},
	}
	st.tables[cfg.Store.FuelTable] = []store.Row{
		{"日期": "2025-05-02", "里程": "140500", "公升數": "30", "單價": "33.33", "總價": "1000"},
		{"日期": "2025-05-28", "里程": "148000", "公升數": "30", "單價": "33", "總價": "990"},
	}

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	var progressed []string
	res, err := LoadWithProgress(context.Background(), st, cfg, now, func(table string) {
		progressed = append(progressed, table)
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(progressed) != 2 || progressed[0] != cfg.Store.MaintenanceTable {
		t.Errorf("progress = %v", progressed)
	}

	d := res.Dashboard
	if d.CurrentMileage != 148000 {
		t.Errorf("CurrentMileage = %d, want 148000", d.CurrentMileage)
	}
	if len(d.Parts) != 1 || d.Parts[0].Status != model.WearOverdue {
		t.Errorf("Parts = %+v, want one overdue part", d.Parts)
	}
	if d.Fuel.TotalDistanceKM != 7500 || d.Fuel.TotalSpend != 1990 {
		t.Errorf("Fuel = %+v", d.Fuel)
	}
	if len(res.Coercions) != 1 || res.Coercions[0].Row != 3 {
		t.Errorf("Coercions = %v, want one on row 3", res.Coercions)
	}

	if d.Maintenance[0].OdometerKM != 147000 || d.Maintenance[2].Item != "洗車" {
		t.Errorf("maintenance not sorted by odometer descending: %+v", d.Maintenance)
	}
	if d.FuelLog[0].OdometerKM != 148000 {
		t.Errorf("fuel not sorted by odometer descending: %+v", d.FuelLog)
	}
}

func TestLoad_EmptyTables(t *testing.T) {
	cfg := testConfig()
	st := newMemStore()
	st.tables[cfg.Store.MaintenanceTable] = nil
	st.tables[cfg.Store.FuelTable] = nil

	res, err := Load(context.Background(), st, cfg, time.Now())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Dashboard.CurrentMileage != 150000 {
		t.Errorf("CurrentMileage = %d, want 150000", res.Dashboard.CurrentMileage)
	}
	if res.Dashboard.Fuel.AvgKMPerLiter != 0 || res.Dashboard.Fuel.TotalSpend != 0 {
		t.Errorf("Fuel = %+v, want zero", res.Dashboard.Fuel)
	}
	if res.Dashboard.Parts[0].Status != model.WearNoRecord {
		t.Errorf("Status = %s, want no_record", res.Dashboard.Parts[0].Status)
	}
}

func TestLoad_StoreErrorIsFatal(t *testing.T) {
	cfg := testConfig()
	st := newMemStore()
	st.tables[cfg.Store.MaintenanceTable] = nil // fuel table missing

	res, err := Load(context.Background(), st, cfg, time.Now())
	if err == nil {
		t.Fatal("Load returned nil error for missing table")
	}
	if res != nil {
		t.Error("partial result returned alongside error")
	}
	if !store.IsConnectionError(err) || !errors.Is(err, store.ErrTableNotFound) {
		t.Errorf("err = %v, want ConnectionError wrapping ErrTableNotFound", err)
	}
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)

	fuel, err := NewFuelRecord(FuelEntry{Date: date, OdometerKM: 148000, Liters: 30, TotalCost: 1000}, config.FuelEntryTotal)
	if err != nil {
		t.Fatal(err)
	}
	if err := AppendFuel(ctx, st, "加油紀錄", fuel); err != nil {
		t.Fatalf("AppendFuel: %v", err)
	}
	rows := st.appends["加油紀錄"]
	if len(rows) != 1 {
		t.Fatalf("fuel appends = %d, want exactly 1", len(rows))
	}
	if rows[0][0] != "2025-06-01" || rows[0][3] != 33.33 || rows[0][4] != 1000.0 {
		t.Errorf("fuel row = %v", rows[0])
	}

	m := model.MaintenanceRecord{
		Date: date, OdometerKM: 148000, Item: "機油更換",
		Category: model.CategoryScheduled, Cost: 1500, Part: "機油",
	}
	if err := AppendMaintenance(ctx, st, "維修紀錄", m); err != nil {
		t.Fatalf("AppendMaintenance: %v", err)
	}
	row := st.appends["維修紀錄"][0]
	if len(row) != len(model.MaintenanceColumns) {
		t.Fatalf("maintenance row has %d cells, want %d", len(row), len(model.MaintenanceColumns))
	}
	if row[3] != "定期保養 (有壽命)" || row[6] != "機油" {
		t.Errorf("maintenance row = %v", row)
	}
}

func TestLoad_WarnsWithoutPartColumn(t *testing.T) {
	cfg := testConfig()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)
	st := newMemStore()
	st.tables[cfg.Store.FuelTable] = nil
	st.tables[cfg.Store.MaintenanceTable] = []store.Row{
		{"日期": "2025-05-01", "里程": "140000", "項目": "保養", "類別": "定期保養 (有壽命)", "費用": "1500", "備註": ""},
	}

	res, err := Load(context.Background(), st, cfg, now)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want one about the part column", res.Warnings)
	}

	st.tables[cfg.Store.MaintenanceTable][0][model.ColPart] = "機油"
	res, err = Load(context.Background(), st, cfg, now)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none with a part column", res.Warnings)
	}
}

func TestAppendMaintenance_WidensOldHeader(t *testing.T) {
	ctx := context.Background()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "garage.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	cfg := testConfig()
	oldHeader := model.MaintenanceColumns[:len(model.MaintenanceColumns)-1]
	if err := db.EnsureTable(ctx, cfg.Store.MaintenanceTable, oldHeader); err != nil {
		t.Fatal(err)
	}
	if err := db.EnsureTable(ctx, cfg.Store.FuelTable, model.FuelColumns); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)
	m := model.MaintenanceRecord{
		Date: now.AddDate(0, 0, -7), OdometerKM: 147000, Item: "保養",
		Category: model.CategoryScheduled, Cost: 1500, Part: "機油",
	}
	if err := AppendMaintenance(ctx, db, cfg.Store.MaintenanceTable, m); err != nil {
		t.Fatalf("AppendMaintenance: %v", err)
	}

	res, err := Load(ctx, db, cfg, now)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none after the header was widened", res.Warnings)
	}
	if got := res.Dashboard.Maintenance[0].Part; got != "機油" {
		t.Fatalf("part tag read back = %q, want 機油", got)
	}
	// The item text alone does not name the part; the tag does.
	if p := res.Dashboard.Parts[0]; p.LastKM != 147000 {
		t.Errorf("oil wear = %+v, want last service at 147000 from the tag", p)
	}
}

func TestAppend_ErrorSurfaced(t *testing.T) {
	st := newMemStore()
	st.err = &store.ConnectionError{Backend: "mem", Op: "append", Err: errors.New("offline")}

	err := AppendFuel(context.Background(), st, "加油紀錄", model.FuelRecord{})
	if !store.IsConnectionError(err) {
		t.Fatalf("err = %v, want ConnectionError", err)
	}
	if len(st.appends) != 0 {
		t.Error("failed append left a row behind")
	}
}

func TestAppendThenLoad_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "garage.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	cfg := testConfig()
	if err := db.EnsureTable(ctx, cfg.Store.MaintenanceTable, model.MaintenanceColumns); err != nil {
		t.Fatal(err)
	}
	if err := db.EnsureTable(ctx, cfg.Store.FuelTable, model.FuelColumns); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)
	m := model.MaintenanceRecord{Date: now.AddDate(0, -1, 0), OdometerKM: 146000, Item: "換機油", Category: model.CategoryConsumable, Cost: 1200}
	if err := AppendMaintenance(ctx, db, cfg.Store.MaintenanceTable, m); err != nil {
		t.Fatal(err)
	}
	f, _ := NewFuelRecord(FuelEntry{Date: now, OdometerKM: 148000, Liters: 30, TotalCost: 1000}, config.FuelEntryTotal)
	if err := AppendFuel(ctx, db, cfg.Store.FuelTable, f); err != nil {
		t.Fatal(err)
	}

	res, err := Load(ctx, db, cfg, now)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Coercions) != 0 {
		t.Errorf("round trip produced coercions: %v", res.Coercions)
	}
	if res.Dashboard.CurrentMileage != 148000 {
		t.Errorf("CurrentMileage = %d", res.Dashboard.CurrentMileage)
	}
	got := res.Dashboard.FuelLog[0]
	if got.UnitPrice != 33.33 || got.TotalCost != 1000 || got.Liters != 30 {
		t.Errorf("fuel round trip = %+v", got)
	}
	if res.Dashboard.Maintenance[0].Category != model.CategoryConsumable {
		t.Errorf("category round trip = %q", res.Dashboard.Maintenance[0].Category)
	}
	w := res.Dashboard.Parts[0]
	if w.LastKM != 146000 || w.KMSince != 2000 {
		t.Errorf("wear = %+v", w)
	}
}
