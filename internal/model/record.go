// Package model defines domain types for garage records and metrics.
package model

import "time"

// Category classifies a maintenance record.
type Category string

// Maintenance categories.
const (
	CategoryScheduled  Category = "scheduled"
	CategoryConsumable Category = "consumable"
	CategoryUpgrade    Category = "upgrade"
	CategoryRepair     Category = "repair"
)

// Categories lists the known categories in form order.
var Categories = []Category{CategoryScheduled, CategoryConsumable, CategoryUpgrade, CategoryRepair}

// categoryLabels are the cell values written to the spreadsheet.
var categoryLabels = map[Category]string{
	CategoryScheduled:  "定期保養 (有壽命)",
	CategoryConsumable: "消耗品",
	CategoryUpgrade:    "改裝升級",
	CategoryRepair:     "維修",
}

// Label returns the sheet label for c, or c itself for unrecognised values.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Known reports whether c is one of the four defined categories.
func (c Category) Known() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory maps a sheet label or category key to a Category.
// Unrecognised text is returned verbatim with ok=false.
func ParseCategory(s string) (Category, bool) {
	for c, l := range categoryLabels {
		if s == l || s == string(c) {
			return c, true
		}
	}
	return Category(s), false
}

// MaintenanceRecord is one row of the maintenance log.
type MaintenanceRecord struct {
	Date       time.Time `json:"date"` // zero when the cell could not be parsed
	OdometerKM int       `json:"odometer_km"`
	Item       string    `json:"item"`
	Category   Category  `json:"category"`
	Cost       float64   `json:"cost"`
	Note       string    `json:"note,omitempty"`
	Part       string    `json:"part,omitempty"` // explicit part tag; empty on legacy rows
}

// FuelRecord is one row of the fuel log.
type FuelRecord struct {
	Date            time.Time `json:"date"`
	OdometerKM      int       `json:"odometer_km"`
	OdometerMissing bool      `json:"odometer_missing,omitempty"` // odometer cell was empty or non-numeric
	Liters          float64   `json:"liters"`
	UnitPrice       float64   `json:"unit_price"`
	TotalCost       float64   `json:"total_cost"`
}

// PartSpec is the rated service interval for a tracked part.
type PartSpec struct {
	Name          string `toml:"name" json:"name"`
	KMInterval    int    `toml:"km_interval" json:"km_interval"`
	MonthInterval int    `toml:"month_interval" json:"month_interval"`
}

// Column headers of the maintenance table, in row order.
const (
	ColDate     = "日期"
	ColOdometer = "里程"
	ColItem     = "項目"
	ColCategory = "類別"
	ColCost     = "費用"
	ColNote     = "備註"
	ColPart     = "零件"
	ColLiters   = "公升數"
	ColUnit     = "單價"
	ColTotal    = "總價"
)

// MaintenanceColumns is the header row of the maintenance table.
var MaintenanceColumns = []string{ColDate, ColOdometer, ColItem, ColCategory, ColCost, ColNote, ColPart}

// FuelColumns is the header row of the fuel table.
var FuelColumns = []string{ColDate, ColOdometer, ColLiters, ColUnit, ColTotal}

// DateLayout is the cell format for record dates.
const DateLayout = "2006-01-02"
