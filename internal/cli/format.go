// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/garage/internal/model"
)

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatKM formats an odometer reading or distance, e.g. "148,000 km".
func FormatKM(km int) string {
	return FormatNumber(int64(km)) + " km"
}

// FormatMoney formats a spend amount rounded to whole currency units.
func FormatMoney(v float64) string {
	return "$" + FormatNumber(int64(math.Round(v)))
}

// FormatPrice formats a per-liter price with two decimals.
func FormatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatAmount formats a recorded quantity without trailing zeros.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatEconomy formats average fuel economy.
func FormatEconomy(kmPerLiter float64) string {
	return fmt.Sprintf("%.2f km/L", kmPerLiter)
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}

// FormatDate formats a record date, or "-" when the cell failed coercion.
func FormatDate(d time.Time) string {
	if d.IsZero() {
		return "-"
	}
	return d.Format(model.DateLayout)
}

// FormatStatus returns a short marker for a wear status.
func FormatStatus(s model.WearStatus) string {
	switch s {
	case model.WearOK:
		return "✓ ok"
	case model.WearWarning:
		return "! warning"
	case model.WearOverdue:
		return "✗ overdue"
	default:
		return "· no record"
	}
}
