package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcallison/chartline/internal/narrative"
)

// InsertNarrative stores a generated narrative together with its
// references in one transaction and returns the narrative id.
func (db *DB) InsertNarrative(period string, result *narrative.Result, entryCount int) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin insert narrative: %w", err)
	}

	res, err := tx.Exec(
		`INSERT INTO narratives (period, plain_text, rich_text, entry_count)
		VALUES (?, ?, ?, ?)`,
		period, result.PlainText, result.RichText, entryCount,
	)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("inserting narrative: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	for _, ref := range result.Refs.References() {
		var date *string
		if ref.Date != nil {
			s := ref.Date.Format(time.RFC3339)
			date = &s
		}

		support := make([]SupportingEntry, 0, len(ref.Entries))
		for _, e := range ref.Entries {
			se := SupportingEntry{Snippet: clip(e.Content), Sources: e.Sources}
			if e.HasDate() {
				s := e.Date.Format(time.RFC3339)
				se.Date = &s
			}
			support = append(support, se)
		}
		supportJSON, err := json.Marshal(support)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("encoding reference support: %w", err)
		}

		_, err = tx.Exec(
			`INSERT INTO narrative_refs (id, narrative_id, matched, ref_date, snippet, multi, support)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ref.ID, id, ref.Matched, date, ref.Snippet, boolInt(ref.Multi), string(supportJSON),
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("inserting reference: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetNarrative returns one narrative by id, or nil if absent.
func (db *DB) GetNarrative(id int64) (*Narrative, error) {
	row := db.conn.QueryRow(
		`SELECT id, period, plain_text, rich_text, entry_count, generated_at
		FROM narratives WHERE id = ?`, id,
	)
	var n Narrative
	err := row.Scan(&n.ID, &n.Period, &n.PlainText, &n.RichText, &n.EntryCount, &n.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetAllNarratives returns narratives newest first.
func (db *DB) GetAllNarratives() ([]Narrative, error) {
	rows, err := db.conn.Query(
		`SELECT id, period, plain_text, rich_text, entry_count, generated_at
		FROM narratives ORDER BY generated_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var narratives []Narrative
	for rows.Next() {
		var n Narrative
		if err := rows.Scan(&n.ID, &n.Period, &n.PlainText, &n.RichText, &n.EntryCount, &n.GeneratedAt); err != nil {
			return nil, err
		}
		narratives = append(narratives, n)
	}
	return narratives, rows.Err()
}

// GetReference resolves a persisted reference id, or nil if unknown.
func (db *DB) GetReference(id string) (*StoredReference, error) {
	row := db.conn.QueryRow(
		`SELECT id, narrative_id, matched, ref_date, snippet, multi, support
		FROM narrative_refs WHERE id = ?`, id,
	)
	var r StoredReference
	var multi int
	var support *string
	err := row.Scan(&r.ID, &r.NarrativeID, &r.Matched, &r.Date, &r.Snippet, &multi, &support)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Multi = multi != 0
	if support != nil {
		if err := json.Unmarshal([]byte(*support), &r.Support); err != nil {
			return nil, fmt.Errorf("decoding reference support: %w", err)
		}
	}
	return &r, nil
}

// GetReferencesForNarrative returns a narrative's references in insert order.
func (db *DB) GetReferencesForNarrative(narrativeID int64) ([]StoredReference, error) {
	rows, err := db.conn.Query(
		`SELECT id, narrative_id, matched, ref_date, snippet, multi, support
		FROM narrative_refs WHERE narrative_id = ? ORDER BY rowid`, narrativeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []StoredReference
	for rows.Next() {
		var r StoredReference
		var multi int
		var support *string
		if err := rows.Scan(&r.ID, &r.NarrativeID, &r.Matched, &r.Date, &r.Snippet, &multi, &support); err != nil {
			return nil, err
		}
		r.Multi = multi != 0
		if support != nil {
			if err := json.Unmarshal([]byte(*support), &r.Support); err != nil {
				return nil, fmt.Errorf("decoding reference support: %w", err)
			}
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func clip(s string) string {
	const max = 160
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
