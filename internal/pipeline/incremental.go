package pipeline

import (
	"context"
	"fmt"

	"github.com/theirongolddev/garage/internal/logging"
	"github.com/theirongolddev/garage/internal/store"
)

// Mirror is a local store that can hold a copy of remote tables.
type Mirror interface {
	store.RecordStore
	EnsureTable(ctx context.Context, table string, columns []string) error
	RowCount(ctx context.Context, table string) (int, error)
}

// TableSpec names a table and its header.
type TableSpec struct {
	Name    string
	Columns []string
}

// SyncResult reports how many rows a sync copied per table.
type SyncResult struct {
	Copied  map[string]int
	Skipped map[string]int // rows already present in the mirror
}

// Sync copies rows from src into dst. Both logs are append-only, so rows
// already mirrored are a prefix of the source and only the tail is copied.
func Sync(ctx context.Context, src store.RecordStore, dst Mirror, tables []TableSpec) (*SyncResult, error) {
	res := &SyncResult{
		Copied:  make(map[string]int, len(tables)),
		Skipped: make(map[string]int, len(tables)),
	}

	for _, t := range tables {
		rows, err := src.ReadAll(ctx, t.Name)
		if err != nil {
			return res, fmt.Errorf("reading %s: %w", t.Name, err)
		}
		if err := dst.EnsureTable(ctx, t.Name, t.Columns); err != nil {
			return res, fmt.Errorf("preparing mirror of %s: %w", t.Name, err)
		}
		have, err := dst.RowCount(ctx, t.Name)
		if err != nil {
			return res, fmt.Errorf("counting mirrored rows of %s: %w", t.Name, err)
		}

		if have > len(rows) {
			logging.Warn("mirror has more rows than source; leaving it untouched",
				"table", t.Name, "mirror", have, "source", len(rows))
			res.Skipped[t.Name] = have
			continue
		}

		for _, row := range rows[have:] {
			cells := make([]any, len(t.Columns))
			for i, col := range t.Columns {
				cells[i] = row[col]
			}
			if err := dst.Append(ctx, t.Name, cells); err != nil {
				return res, fmt.Errorf("mirroring %s: %w", t.Name, err)
			}
			res.Copied[t.Name]++
		}
		res.Skipped[t.Name] = have
		logging.Info("table mirrored", "table", t.Name, "copied", res.Copied[t.Name], "skipped", have)
	}
	return res, nil
}
