package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS batches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    label TEXT NOT NULL,
    source_file TEXT,
    record_count INTEGER DEFAULT 0,
    entry_count INTEGER DEFAULT 0,
    imported_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id INTEGER REFERENCES batches(id),
    entry_date TEXT,
    date_precision INTEGER DEFAULT 0,
    content TEXT NOT NULL,
    type TEXT,
    originator TEXT,
    sources TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS narratives (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    period TEXT NOT NULL,
    plain_text TEXT NOT NULL,
    rich_text TEXT NOT NULL,
    entry_count INTEGER DEFAULT 0,
    generated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS narrative_refs (
    id TEXT PRIMARY KEY,
    narrative_id INTEGER NOT NULL REFERENCES narratives(id),
    matched TEXT NOT NULL,
    ref_date TEXT,
    snippet TEXT,
    multi INTEGER DEFAULT 0,
    support TEXT
);

CREATE INDEX IF NOT EXISTS idx_entries_batch ON entries(batch_id);
CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(entry_date);
CREATE INDEX IF NOT EXISTS idx_refs_narrative ON narrative_refs(narrative_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
