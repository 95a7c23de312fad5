package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/store"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("sheet-1", StaticToken("tok"), WithBaseURL(srv.URL))
}

func TestReadAll_MapsHeaderAndSkipsBlankRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if !strings.HasSuffix(r.URL.Path, "/sheet-1/values/'加油紀錄'") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("valueRenderOption"); got != "FORMATTED_VALUE" {
			t.Errorf("valueRenderOption = %q", got)
		}
		_, _ = io.WriteString(w, `{
			"range": "'加油紀錄'!A1:E4",
			"majorDimension": "ROWS",
			"values": [
				["日期", "里程", "公升數", "單價", " 總價 "],
				["2025-03-01", "148,000", "30", "33.33", "1000"],
				["", "", ""],
				["2025-03-15", 148450, 28.5]
			]
		}`)
	})

	rows, err := c.ReadAll(context.Background(), "加油紀錄")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0]["里程"] != "148,000" {
		t.Errorf("odometer = %q, want formatted text", rows[0]["里程"])
	}
	if rows[0]["總價"] != "1000" {
		t.Errorf("header not trimmed: row = %v", rows[0])
	}
	if rows[1]["里程"] != "148450" {
		t.Errorf("numeric cell = %q, want 148450", rows[1]["里程"])
	}
	if v, ok := rows[1]["總價"]; !ok || v != "" {
		t.Errorf("short row total = %q (present=%v), want empty", v, ok)
	}
	// The blank third line is skipped but line numbers still match the sheet.
	if got := rows[1].Line(0); got != 4 {
		t.Errorf("rows[1].Line = %d, want 4", got)
	}
}

func TestReadAll_EmptySheet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"range":"'x'!A1:Z1000","majorDimension":"ROWS"}`)
	})

	rows, err := c.ReadAll(context.Background(), "x")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}

func TestAppend_SendsOneRawRow(t *testing.T) {
	var got valueRange
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "'維修紀錄':append") {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("valueInputOption") != "RAW" || q.Get("insertDataOption") != "INSERT_ROWS" {
			t.Errorf("query = %v", q)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1","updates":{"updatedRows":1,"updatedCells":7}}`)
	})

	date := time.Date(2025, 4, 2, 0, 0, 0, 0, time.Local)
	err := c.Append(context.Background(), "維修紀錄", []any{date, 150000, "機油更換", "消耗品", 1200, "=HYPERLINK(\"x\")", "機油"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(got.Values) != 1 {
		t.Fatalf("values rows = %d, want 1", len(got.Values))
	}
	row := got.Values[0]
	if row[0] != "2025-04-02" {
		t.Errorf("date cell = %v, want 2025-04-02", row[0])
	}
	if row[1] != float64(150000) {
		t.Errorf("odometer cell = %v (%T), want numeric 150000", row[1], row[1])
	}
	if row[2] != "機油更換" {
		t.Errorf("item cell = %v", row[2])
	}
	if row[5] != `=HYPERLINK("x")` {
		t.Errorf("note cell = %v, want the formula text unchanged", row[5])
	}
}

// fakeSheet serves a single worksheet from memory: full reads, header
// reads, header writes and appends.
type fakeSheet struct {
	mu   sync.Mutex
	rows [][]any
	puts []string // ranges written by values.update
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rng := r.URL.Path[strings.LastIndex(r.URL.Path, "/values/")+len("/values/"):]
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(rng, "!1:1"):
		var vals [][]any
		if len(f.rows) > 0 {
			vals = f.rows[:1]
		}
		_ = json.NewEncoder(w).Encode(valueRange{Values: vals})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(valueRange{Values: f.rows})
	case r.Method == http.MethodPut:
		var body valueRange
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.puts = append(f.puts, rng)
		cell := strings.TrimSuffix(rng[strings.LastIndex(rng, "!")+1:], "1")
		col := 0
		for _, ch := range cell {
			col = col*26 + int(ch-'A'+1)
		}
		if len(f.rows) == 0 {
			f.rows = [][]any{{}}
		}
		for len(f.rows[0]) < col-1 {
			f.rows[0] = append(f.rows[0], "")
		}
		f.rows[0] = append(f.rows[0][:col-1], body.Values[0]...)
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodPost:
		var body valueRange
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.rows = append(f.rows, body.Values...)
		_, _ = io.WriteString(w, `{"updates":{"updatedRows":1}}`)
	}
}

func (f *fakeSheet) writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.puts...)
}

func (f *fakeSheet) header() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rows) == 0 {
		return nil
	}
	return append([]any(nil), f.rows[0]...)
}

func TestEnsureTable_WidensOldHeader(t *testing.T) {
	ctx := context.Background()
	sheet := &fakeSheet{rows: [][]any{
		{"日期", "里程", "項目", "類別", "費用", "備註"},
		{"2025-01-05", "140000", "保養", "定期保養 (有壽命)", "1500", ""},
	}}
	c := newTestClient(t, sheet.ServeHTTP)

	if err := c.EnsureTable(ctx, "維修紀錄", model.MaintenanceColumns); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if w := sheet.writes(); len(w) != 1 || w[0] != "'維修紀錄'!G1" {
		t.Fatalf("header writes = %v, want one write at G1", w)
	}

	err := c.Append(ctx, "維修紀錄", []any{"2025-04-02", 150000, "保養", "定期保養 (有壽命)", 1500, "", "機油"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	rows, err := c.ReadAll(ctx, "維修紀錄")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if got := rows[1][model.ColPart]; got != "機油" {
		t.Errorf("part tag read back = %q, want 機油", got)
	}
	if v, ok := rows[0][model.ColPart]; !ok || v != "" {
		t.Errorf("old row part = %q (present=%v), want empty", v, ok)
	}

	// A complete header is not written again.
	if err := c.EnsureTable(ctx, "維修紀錄", model.MaintenanceColumns); err != nil {
		t.Fatalf("EnsureTable again: %v", err)
	}
	if w := sheet.writes(); len(w) != 1 {
		t.Errorf("header writes = %v, want no second write", w)
	}
}

func TestEnsureTable_EmptyAndForeignHeaders(t *testing.T) {
	ctx := context.Background()

	empty := &fakeSheet{}
	c := newTestClient(t, empty.ServeHTTP)
	if err := c.EnsureTable(ctx, "加油紀錄", model.FuelColumns); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if w := empty.writes(); len(w) != 1 || w[0] != "'加油紀錄'!A1" {
		t.Errorf("header writes = %v, want one write at A1", w)
	}
	if h := empty.header(); len(h) != len(model.FuelColumns) || h[0] != model.ColDate {
		t.Errorf("header = %v, want %v", h, model.FuelColumns)
	}

	foreign := &fakeSheet{rows: [][]any{{"Date", "Odometer"}}}
	c = newTestClient(t, foreign.ServeHTTP)
	if err := c.EnsureTable(ctx, "維修紀錄", model.MaintenanceColumns); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if w := foreign.writes(); len(w) != 0 {
		t.Errorf("header writes = %v, want a foreign header left alone", w)
	}
}

func TestColumnName(t *testing.T) {
	for i, want := range map[int]string{0: "A", 6: "G", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA"} {
		if got := columnName(i); got != want {
			t.Errorf("columnName(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"forbidden", http.StatusForbidden, `{"error":{"code":403,"message":"denied"}}`, ErrUnauthorized},
		{"unauthorized", http.StatusUnauthorized, ``, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, ``, ErrRateLimited},
		{"no spreadsheet", http.StatusNotFound, ``, ErrSpreadsheetNotFound},
		{"no worksheet", http.StatusBadRequest, `{"error":{"code":400,"message":"Unable to parse range: 'x'"}}`, store.ErrTableNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.ReadAll(context.Background(), "x")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var ce *store.ConnectionError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %T, want *store.ConnectionError", err)
			}
			if ce.Backend != "sheets" || ce.Op != "read" || ce.Table != "x" {
				t.Errorf("ConnectionError = %+v", ce)
			}
		})
	}
}

func TestNetworkFailureIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewClient("sheet-1", StaticToken("tok"), WithBaseURL(srv.URL))
	err := c.Append(context.Background(), "x", []any{"a"})
	if !store.IsConnectionError(err) {
		t.Fatalf("err = %v, want ConnectionError", err)
	}
}

func TestMissingSpreadsheetID(t *testing.T) {
	c := NewClient("  ", StaticToken("tok"))
	_, err := c.ReadAll(context.Background(), "x")
	if !store.IsConnectionError(err) {
		t.Fatalf("err = %v, want ConnectionError", err)
	}
}

func TestSheetRangeQuoting(t *testing.T) {
	if got := sheetRange("Bob's log"); got != "'Bob''s log'" {
		t.Errorf("sheetRange = %q", got)
	}
}
