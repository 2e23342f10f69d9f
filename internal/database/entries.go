package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mcallison/chartline/internal/note"
)

// InsertBatch records one import run and returns its id.
func (db *DB) InsertBatch(label string, sourceFile *string, recordCount, entryCount int) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO batches (label, source_file, record_count, entry_count)
		VALUES (?, ?, ?, ?)`,
		label, sourceFile, recordCount, entryCount,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting batch: %w", err)
	}
	return result.LastInsertId()
}

// InsertEntries stores a batch of pipeline entries in one transaction.
func (db *DB) InsertEntries(batchID int64, entries []note.Entry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin insert entries: %w", err)
	}

	for _, e := range entries {
		var date *string
		if e.HasDate() {
			s := e.Date.Format(time.RFC3339)
			date = &s
		}
		_, err := tx.Exec(
			`INSERT INTO entries (batch_id, entry_date, date_precision, content, type, originator, sources)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			batchID, date, int(e.Precision), e.Content, nullable(e.Type), nullable(e.Originator), encodeSources(e.Sources),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting entry: %w", err)
		}
	}

	return tx.Commit()
}

// GetAllEntries returns every stored entry ordered by date ascending,
// undated entries last.
func (db *DB) GetAllEntries() ([]StoredEntry, error) {
	rows, err := db.conn.Query(
		`SELECT id, batch_id, entry_date, date_precision, content, type, originator, sources, created_at
		FROM entries ORDER BY entry_date IS NULL, entry_date ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// GetEntriesForBatch returns the entries imported in one batch.
func (db *DB) GetEntriesForBatch(batchID int64) ([]StoredEntry, error) {
	rows, err := db.conn.Query(
		`SELECT id, batch_id, entry_date, date_precision, content, type, originator, sources, created_at
		FROM entries WHERE batch_id = ? ORDER BY entry_date IS NULL, entry_date ASC, id ASC`, batchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// GetAllBatches returns batches newest first.
func (db *DB) GetAllBatches() ([]Batch, error) {
	rows, err := db.conn.Query(
		`SELECT id, label, source_file, record_count, entry_count, imported_at
		FROM batches ORDER BY imported_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Label, &b.SourceFile, &b.RecordCount, &b.EntryCount, &b.ImportedAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// GetStats returns aggregate store statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM batches", &s.Batches},
		{"SELECT COUNT(*) FROM entries", &s.TotalEntries},
		{"SELECT COUNT(*) FROM entries WHERE entry_date IS NOT NULL", &s.DatedEntries},
		{"SELECT COUNT(*) FROM narratives", &s.Narratives},
		{"SELECT COUNT(*) FROM narrative_refs", &s.References},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("getting stats: %w", err)
		}
	}
	return s, nil
}

func scanEntries(rows *sql.Rows) ([]StoredEntry, error) {
	var entries []StoredEntry
	for rows.Next() {
		var e StoredEntry
		var sources *string
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Date, &e.Precision, &e.Content,
			&e.Type, &e.Originator, &sources, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Sources = decodeSources(sources)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
