package source

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the date formats accepted in date cells, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-1-2",
	"2006/1/2",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
}

// numberReplacer strips thousands separators and currency marks that
// formatted spreadsheet values carry.
var numberReplacer = strings.NewReplacer(
	",", "",
	"NT$", "",
	"$", "",
	" ", "",
	"\u00a0", "",
)

// scanNumber parses a numeric cell. Blank cells report ok=true with blank=true.
func scanNumber(s string) (v float64, blank, ok bool) {
	s = numberReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, true, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, false
	}
	return v, false, true
}

// scanOdometer parses a kilometre reading. Fractions are truncated and
// negative readings are rejected.
func scanOdometer(s string) (km int, blank, ok bool) {
	v, blank, ok := scanNumber(s)
	if !ok || blank {
		return 0, blank, ok
	}
	if v < 0 || v > math.MaxInt32 {
		return 0, false, false
	}
	return int(v), false, true
}

// scanDate parses a date cell into local midnight.
func scanDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.Local), true
		}
	}
	return time.Time{}, false
}

// ParseDate parses an operator-typed date into local midnight.
func ParseDate(s string) (time.Time, error) {
	t, ok := scanDate(s)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// ParseOdometer parses an operator-typed kilometre reading.
func ParseOdometer(s string) (int, error) {
	km, blank, ok := scanOdometer(s)
	if blank {
		return 0, fmt.Errorf("odometer is required")
	}
	if !ok {
		return 0, fmt.Errorf("invalid odometer %q", s)
	}
	return km, nil
}

// ParseAmount parses an operator-typed non-negative number (liters, price,
// cost). Blank input is an error.
func ParseAmount(s string) (float64, error) {
	v, blank, ok := scanNumber(s)
	if blank {
		return 0, fmt.Errorf("value is required")
	}
	if !ok || v < 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}
