package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowPadsShorterCards(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	if shortLines >= tallLines {
		t.Fatal("test setup: short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}

	w := lipgloss.Width(lines[0])
	for i, line := range lines {
		if lipgloss.Width(line) != w {
			t.Errorf("line %d width %d, want %d", i, lipgloss.Width(line), w)
		}
		if i >= shortLines && !strings.Contains(line, "\x1b[") {
			t.Errorf("padding line %d has no styling: %q", i, line)
		}
	}
}

func TestLayoutRow(t *testing.T) {
	widths := LayoutRow(100, 3)
	if widths[0] != 34 || widths[1] != 33 || widths[2] != 33 {
		t.Errorf("LayoutRow(100, 3) = %v", widths)
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow with n=0 should be nil")
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Mileage", Value: "148,000 km"},
		{Label: "Economy", Value: "12.50 km/L", Note: "21 fills"},
		{Label: "Overdue", Value: "2", Color: theme.Active.Red},
	}, 90)
	for i, line := range strings.Split(row, "\n") {
		if lipgloss.Width(line) != 90 {
			t.Errorf("line %d width = %d, want 90", i, lipgloss.Width(line))
		}
	}
}

func TestWearGauge(t *testing.T) {
	w := model.PartWear{
		Part:     model.PartSpec{Name: "機油", KMInterval: 5000, MonthInterval: 6},
		Status:   model.WearOverdue,
		Usage:    1.6,
		Fraction: 1,
		Reason:   "8000 km since service (interval 5000 km)",
	}
	out := WearGauge(w, 8, 20)
	if !strings.Contains(out, "160%") || !strings.Contains(out, "8000 km since service") {
		t.Errorf("gauge = %q", out)
	}

	none := WearGauge(model.PartWear{Part: model.PartSpec{Name: "輪胎"}, Status: model.WearNoRecord}, 8, 20)
	if !strings.Contains(none, "no service record") {
		t.Errorf("no-record gauge = %q", none)
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('f'); Tabs[got].Name != "Fuel" {
		t.Errorf("TabIdxByKey('f') = %d", got)
	}
	if got := TabIdxByKey('x'); Tabs[got].Name != "Settings" {
		t.Errorf("TabIdxByKey('x') = %d", got)
	}
	if TabIdxByKey('z') != -1 {
		t.Error("unknown key should map to -1")
	}
}

func TestStackedBarChart(t *testing.T) {
	out := StackedBarChart([]Series{
		{Values: []float64{100, 0, 50}, Color: theme.Active.Blue},
		{Values: []float64{0, 200, 50}, Color: theme.Active.Orange},
	}, []string{"Jan", "Feb", "Mar"}, 40, 4)

	lines := strings.Split(out, "\n")
	if len(lines) != 6 { // 4 bar rows + axis + labels
		t.Fatalf("chart has %d lines, want 6:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "200") {
		t.Errorf("top tick missing peak: %q", lines[0])
	}
	if !strings.Contains(lines[5], "Feb") {
		t.Errorf("labels row = %q", lines[5])
	}
	if StackedBarChart(nil, nil, 40, 4) != "" {
		t.Error("empty chart should render nothing")
	}
}
