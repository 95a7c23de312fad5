package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/pipeline"
)

func dashboardResult(km int, oil model.WearStatus, fuelSpend float64) *pipeline.LoadResult {
	return &pipeline.LoadResult{
		Dashboard: model.Dashboard{
			Vehicle:        "test car",
			CurrentMileage: km,
			Parts: []model.PartWear{
				{Part: model.PartSpec{Name: "機油", KMInterval: 5000, MonthInterval: 6}, Status: oil, Usage: 0.5},
				{Part: model.PartSpec{Name: "輪胎", KMInterval: 40000, MonthInterval: 36}, Status: model.WearNoRecord},
			},
			Fuel:        model.FuelSummary{Fills: 2, TotalSpend: fuelSpend, AvgKMPerLiter: 12.5},
			Maintenance: []model.MaintenanceRecord{{OdometerKM: km, Item: "機油", Cost: 1200}},
		},
	}
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{CurrentMileageKM: 148000, MaintenanceCount: 10, Fills: 20, FuelSpend: 20000, MaintenanceSpend: 15000.5}
	curr := Snapshot{CurrentMileageKM: 148450, MaintenanceCount: 10, Fills: 21, FuelSpend: 20945, MaintenanceSpend: 15000.5}

	delta := diffSnapshots(prev, curr)
	if delta.MileageKM != 450 {
		t.Fatalf("MileageKM delta = %d, want 450", delta.MileageKM)
	}
	if delta.Fills != 1 {
		t.Fatalf("Fills delta = %d, want 1", delta.Fills)
	}
	if math.Abs(delta.FuelSpend-945) > 1e-9 {
		t.Fatalf("FuelSpend delta = %.2f, want 945", delta.FuelSpend)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a non-zero delta")
	}
}

func TestDiffParts(t *testing.T) {
	prev := dashboardResult(148000, model.WearOK, 0).Dashboard.Parts
	curr := dashboardResult(148000, model.WearWarning, 0).Dashboard.Parts

	changes := diffParts(prev, curr)
	if len(changes) != 1 {
		t.Fatalf("changes = %v, want 1", changes)
	}
	if changes[0].Part != "機油" || changes[0].From != model.WearOK || changes[0].To != model.WearWarning {
		t.Errorf("change = %+v", changes[0])
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{Interval: 10 * time.Second, EventsBuffer: 2})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnce_EventsAndErrors(t *testing.T) {
	results := []*pipeline.LoadResult{
		dashboardResult(148000, model.WearOK, 1000),
		dashboardResult(148000, model.WearOK, 1000), // unchanged: no event
		nil, // store failure
		dashboardResult(148450, model.WearWarning, 1945),
	}
	call := 0
	s := New(Config{
		Backend: "sqlite",
		Load: func(context.Context, time.Time) (*pipeline.LoadResult, error) {
			r := results[call]
			call++
			if r == nil {
				return nil, errors.New("sheets: read \"加油紀錄\": sheets: rate limited")
			}
			return r, nil
		},
	})

	ctx := context.Background()
	for range results {
		s.pollOnce(ctx)
		if call == 3 {
			st := s.snapshotStatus()
			if !strings.Contains(st.LastError, "rate limited") {
				t.Errorf("LastError = %q after failed poll", st.LastError)
			}
			if st.Summary.CurrentMileageKM != 148000 {
				t.Errorf("failed poll replaced the snapshot: %+v", st.Summary)
			}
		}
	}

	st := s.snapshotStatus()
	if st.PollCount != 4 {
		t.Errorf("PollCount = %d, want 4", st.PollCount)
	}
	if st.LastError != "" {
		t.Errorf("LastError = %q, want cleared after success", st.LastError)
	}

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	if len(events) != 2 {
		t.Fatalf("events = %d, want snapshot + one delta", len(events))
	}
	if events[0].Type != "snapshot" || events[1].Type != "dashboard_delta" {
		t.Errorf("event types = %s, %s", events[0].Type, events[1].Type)
	}
	d := events[1].Delta
	if d.MileageKM != 450 || d.Fills != 0 || len(d.Parts) != 1 {
		t.Errorf("delta = %+v", d)
	}
}

func TestHandler(t *testing.T) {
	s := New(Config{
		Backend: "sqlite",
		Load: func(context.Context, time.Time) (*pipeline.LoadResult, error) {
			return dashboardResult(148000, model.WearOverdue, 1000), nil
		},
	})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	get := func(path string) (*http.Response, []byte) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		return resp, body
	}

	if resp, _ := get("/v1/dashboard"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("dashboard before poll: status %d, want 503", resp.StatusCode)
	}

	s.pollOnce(context.Background())

	resp, body := get("/v1/dashboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status = %d", resp.StatusCode)
	}
	var dash model.Dashboard
	if err := json.Unmarshal(body, &dash); err != nil {
		t.Fatalf("decoding dashboard: %v", err)
	}
	if dash.CurrentMileage != 148000 || len(dash.Parts) != 2 || len(dash.Maintenance) != 1 {
		t.Errorf("dashboard = %+v", dash)
	}

	resp, body = get("/v1/status")
	var st Status
	if err := json.Unmarshal(body, &st); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d %v", resp.StatusCode, err)
	}
	if st.Summary.Overdue != 1 || st.Summary.NoRecord != 1 || st.Backend != "sqlite" {
		t.Errorf("status summary = %+v", st)
	}

	resp, _ = get("/v1/parts/" + "機油")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("part lookup status = %d", resp.StatusCode)
	}
	resp, _ = get("/v1/parts/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown part status = %d, want 404", resp.StatusCode)
	}

	_, body = get("/metrics")
	for _, want := range []string{
		"garage_current_mileage_km 148000",
		`garage_parts{status="overdue"} 1`,
		`garage_polls_total{result="ok"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("/metrics missing %q", want)
		}
	}

	if resp, _ := get("/healthz"); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
}
