package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS record_tables (
    name                 TEXT PRIMARY KEY,
    columns              TEXT NOT NULL,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS record_rows (
    seq                  INTEGER PRIMARY KEY AUTOINCREMENT,
    table_name           TEXT NOT NULL REFERENCES record_tables(name) ON DELETE CASCADE,
    cells                TEXT NOT NULL,
    appended_at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_record_rows_table ON record_rows(table_name, seq);
`
