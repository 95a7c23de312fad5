package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

const backendSQLite = "sqlite"

// SQLite is a local RecordStore. Each table keeps its header row and an
// append-only list of rows, mirroring a spreadsheet tab.
type SQLite struct {
	db *sql.DB
}

var _ RecordStore = (*SQLite)(nil)

// OpenSQLite opens or creates the database at dbPath.
func OpenSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, &ConnectionError{Backend: backendSQLite, Op: "open", Err: fmt.Errorf("creating db dir: %w", err)}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, &ConnectionError{Backend: backendSQLite, Op: "open", Err: err}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Backend: backendSQLite, Op: "open", Err: fmt.Errorf("creating schema: %w", err)}
	}

	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// EnsureTable creates table with the given header if it does not exist.
// An existing table whose header is a prefix of columns is widened, so a
// column added later (like the part tag) appears on old tables.
func (s *SQLite) EnsureTable(ctx context.Context, table string, columns []string) error {
	existing, err := s.columns(ctx, table)
	if err != nil && !errors.Is(err, ErrTableNotFound) {
		return &ConnectionError{Backend: backendSQLite, Op: "create", Table: table, Err: err}
	}
	if err == nil && !isPrefix(existing, columns) {
		return nil
	}

	data, err := json.Marshal(columns)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO record_tables (name, columns, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET columns = excluded.columns`,
		table, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &ConnectionError{Backend: backendSQLite, Op: "create", Table: table, Err: err}
	}
	return nil
}

// ReadAll returns every row of table in append order.
func (s *SQLite) ReadAll(ctx context.Context, table string) ([]Row, error) {
	header, err := s.columns(ctx, table)
	if err != nil {
		return nil, &ConnectionError{Backend: backendSQLite, Op: "read", Table: table, Err: err}
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT cells FROM record_rows WHERE table_name = ? ORDER BY seq", table)
	if err != nil {
		return nil, &ConnectionError{Backend: backendSQLite, Op: "read", Table: table, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var result []Row
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, &ConnectionError{Backend: backendSQLite, Op: "read", Table: table, Err: err}
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, &ConnectionError{Backend: backendSQLite, Op: "read", Table: table, Err: fmt.Errorf("decoding row: %w", err)}
		}
		result = append(result, RowFromCells(header, cells))
	}
	if err := rows.Err(); err != nil {
		return nil, &ConnectionError{Backend: backendSQLite, Op: "read", Table: table, Err: err}
	}
	return result, nil
}

// Append stores one row in table. The insert is a single statement, so a
// failed append leaves nothing behind.
func (s *SQLite) Append(ctx context.Context, table string, cells []any) error {
	if _, err := s.columns(ctx, table); err != nil {
		return &ConnectionError{Backend: backendSQLite, Op: "append", Table: table, Err: err}
	}

	text := make([]string, len(cells))
	for i, c := range cells {
		text[i] = FormatCell(c)
	}
	data, err := json.Marshal(text)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO record_rows (table_name, cells, appended_at) VALUES (?, ?, ?)",
		table, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &ConnectionError{Backend: backendSQLite, Op: "append", Table: table, Err: err}
	}
	return nil
}

// RowCount returns the number of rows stored in table.
func (s *SQLite) RowCount(ctx context.Context, table string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM record_rows WHERE table_name = ?", table).Scan(&count)
	return count, err
}

func (s *SQLite) columns(ctx context.Context, table string) ([]string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT columns FROM record_tables WHERE name = ?", table).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}
	var cols []string
	if err := json.Unmarshal([]byte(raw), &cols); err != nil {
		return nil, fmt.Errorf("decoding header: %w", err)
	}
	return cols, nil
}

func isPrefix(short, long []string) bool {
	if len(short) >= len(long) {
		return false
	}
	for i := range short {
		if short[i] != long[i] {
			return false
		}
	}
	return true
}
