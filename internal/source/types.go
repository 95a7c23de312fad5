package source

import (
	"fmt"

	"github.com/theirongolddev/garage/internal/model"
)

// CoercionError records a cell that could not be coerced to its column type.
// The record keeps a safe default for the cell; the error is only reported.
type CoercionError struct {
	Table  string
	Row    int // sheet row number, header is row 1
	Column string
	Value  string
}

func (e CoercionError) Error() string {
	return fmt.Sprintf("%s row %d: %s: cannot coerce %q", e.Table, e.Row, e.Column, e.Value)
}

// MaintenanceResult holds the coerced maintenance log.
type MaintenanceResult struct {
	Records   []model.MaintenanceRecord
	Coercions []CoercionError
}

// FuelResult holds the coerced fuel log.
type FuelResult struct {
	Records   []model.FuelRecord
	Coercions []CoercionError
}
