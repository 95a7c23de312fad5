package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "garage.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_AppendThenReadAll(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	if err := s.EnsureTable(ctx, "fuel", []string{"日期", "里程", "公升數", "單價", "總價"}); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}

	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	if err := s.Append(ctx, "fuel", []any{date, 148000, 30.0, 33.33, 1000}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, "fuel", []any{"2025-03-15", 148450, 28.5, 32.1, 915}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rows, err := s.ReadAll(ctx, "fuel")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}

	first := rows[0]
	if first["日期"] != "2025-03-01" {
		t.Errorf("date = %q, want 2025-03-01", first["日期"])
	}
	if first["里程"] != "148000" {
		t.Errorf("odometer = %q, want 148000", first["里程"])
	}
	if first["公升數"] != "30" {
		t.Errorf("liters = %q, want 30", first["公升數"])
	}
	if first["單價"] != "33.33" {
		t.Errorf("unit price = %q, want 33.33", first["單價"])
	}
	if rows[1]["里程"] != "148450" {
		t.Errorf("rows out of append order: second odometer = %q", rows[1]["里程"])
	}
}

func TestSQLite_MissingTableIsConnectionError(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, err := s.ReadAll(ctx, "nope")
	if err == nil {
		t.Fatal("ReadAll on missing table returned nil error")
	}
	if !IsConnectionError(err) {
		t.Errorf("error %v is not a ConnectionError", err)
	}
	if !errors.Is(err, ErrTableNotFound) {
		t.Errorf("error %v does not wrap ErrTableNotFound", err)
	}

	if err := s.Append(ctx, "nope", []any{"x"}); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("Append on missing table = %v, want ErrTableNotFound", err)
	}
	n, err := s.RowCount(ctx, "nope")
	if err != nil || n != 0 {
		t.Errorf("RowCount = %d, %v; want 0, nil", n, err)
	}
}

func TestSQLite_EnsureTableWidensHeader(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	if err := s.EnsureTable(ctx, "maint", []string{"日期", "項目"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(ctx, "maint", []any{"2025-01-01", "機油更換"}); err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureTable(ctx, "maint", []string{"日期", "項目", "零件"}); err != nil {
		t.Fatal(err)
	}

	rows, err := s.ReadAll(ctx, "maint")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	part, ok := rows[0]["零件"]
	if !ok || part != "" {
		t.Errorf("widened column = %q (present=%v), want empty string", part, ok)
	}
	if rows[0]["項目"] != "機油更換" {
		t.Errorf("item = %q", rows[0]["項目"])
	}
}

func TestRowFromCells(t *testing.T) {
	row := RowFromCells([]string{"a", "", "c"}, []string{"1", "2", "3", "4"})
	if len(row) != 2 {
		t.Errorf("len(row) = %d, want 2 (blank header skipped)", len(row))
	}
	if row["a"] != "1" || row["c"] != "3" {
		t.Errorf("row = %v", row)
	}

	short := RowFromCells([]string{"a", "b"}, []string{"1"})
	if v, ok := short["b"]; !ok || v != "" {
		t.Errorf("missing cell = %q (present=%v), want empty", v, ok)
	}
}

func TestRowLine(t *testing.T) {
	if got := (Row{LineKey: "9"}).Line(2); got != 9 {
		t.Errorf("Line with key = %d, want 9", got)
	}
	if got := (Row{"a": "1"}).Line(2); got != 2 {
		t.Errorf("Line without key = %d, want fallback 2", got)
	}
	if got := (Row{LineKey: "x"}).Line(3); got != 3 {
		t.Errorf("Line with junk key = %d, want fallback 3", got)
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{42, "42"},
		{int64(7), "7"},
		{33.33, "33.33"},
		{30.0, "30"},
		{time.Date(2024, 12, 31, 15, 0, 0, 0, time.UTC), "2024-12-31"},
	}
	for _, tt := range tests {
		if got := FormatCell(tt.in); got != tt.want {
			t.Errorf("FormatCell(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
