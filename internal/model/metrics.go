package model

// WearStatus classifies a part's consumed life.
type WearStatus string

// Wear statuses. NoRecord means no service event was found for the part.
const (
	WearOK       WearStatus = "ok"
	WearWarning  WearStatus = "warning"
	WearOverdue  WearStatus = "overdue"
	WearNoRecord WearStatus = "no_record"
)

// PartWear is the estimated wear of one tracked part.
type PartWear struct {
	Part         PartSpec   `json:"part"`
	Status       WearStatus `json:"status"`
	Usage        float64    `json:"usage"`    // unclamped max(usage_km, usage_time)
	Fraction     float64    `json:"fraction"` // Usage clamped to [0, 1] for display
	UsageKM      float64    `json:"usage_km"`
	UsageTime    float64    `json:"usage_time"`
	TimeCritical bool       `json:"time_critical"`
	KMSince      int        `json:"km_since"`
	MonthsSince  float64    `json:"months_since"`
	LastKM       int        `json:"last_km,omitempty"`
	LastDate     string     `json:"last_date,omitempty"`
	Reason       string     `json:"reason"`
}

// HasRecord reports whether a service event was found for the part.
func (w PartWear) HasRecord() bool {
	return w.Status != WearNoRecord
}

// FuelSummary holds aggregate fuel economy and spend.
type FuelSummary struct {
	Fills           int     `json:"fills"`
	TotalDistanceKM int     `json:"total_distance_km"`
	TotalLiters     float64 `json:"total_liters"`
	AvgKMPerLiter   float64 `json:"avg_km_per_liter"`
	TotalSpend      float64 `json:"total_spend"`
	LatestUnitPrice float64 `json:"latest_unit_price"`
}

// Dashboard is the plain data handed to the presentation layer.
type Dashboard struct {
	Vehicle        string              `json:"vehicle"`
	CurrentMileage int                 `json:"current_mileage"`
	Parts          []PartWear          `json:"parts"`
	Fuel           FuelSummary         `json:"fuel"`
	Maintenance    []MaintenanceRecord `json:"maintenance"`
	FuelLog        []FuelRecord        `json:"fuel_log"`
}

// CountByStatus returns how many parts are in each wear status.
func (d Dashboard) CountByStatus() map[WearStatus]int {
	counts := make(map[WearStatus]int, 4)
	for _, p := range d.Parts {
		counts[p.Status]++
	}
	return counts
}
