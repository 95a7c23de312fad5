// Package store defines the record store contract and its local SQLite backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/theirongolddev/garage/internal/model"
)

// Row maps a column header to the cell text of one record.
type Row map[string]string

// LineKey holds a row's 1-based line number in its table (the header is
// line 1). Backends that skip blank lines set it so reports point at the
// right line; it is never a column header.
const LineKey = "#line"

// Line returns the row's line number, or fallback when the backend did
// not record one.
func (r Row) Line(fallback int) int {
	if n, err := strconv.Atoi(r[LineKey]); err == nil && n > 0 {
		return n
	}
	return fallback
}

// RecordStore is a tabular append-only store. Tables are addressed by name;
// the first row of each table is its header.
type RecordStore interface {
	// ReadAll returns every data row of table, in stored order.
	ReadAll(ctx context.Context, table string) ([]Row, error)
	// Append adds one row of ordered cell values to table.
	Append(ctx context.Context, table string, cells []any) error
}

// ErrTableNotFound is wrapped by a ConnectionError when a table is missing.
var ErrTableNotFound = errors.New("table not found")

// ConnectionError reports that the store was unreachable, misconfigured,
// or rejected the request. It is fatal for the current render cycle.
type ConnectionError struct {
	Backend string
	Op      string
	Table   string
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: %s %q: %v", e.Backend, e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError reports whether err is or wraps a *ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// FormatCell renders a cell value the way it is stored in a table.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(model.DateLayout)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// RowFromCells pairs a header with cell values. Missing cells become empty
// strings and cells beyond the header are dropped.
func RowFromCells(header, cells []string) Row {
	row := make(Row, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		if i < len(cells) {
			row[h] = cells[i]
		} else {
			row[h] = ""
		}
	}
	return row
}
