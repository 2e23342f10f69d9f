package database

import (
	"encoding/json"
	"time"

	"github.com/mcallison/chartline/internal/note"
)

// Batch represents one import run.
type Batch struct {
	ID          int64
	Label       string
	SourceFile  *string
	RecordCount int
	EntryCount  int
	ImportedAt  *string
}

// StoredEntry is one persisted entry row.
type StoredEntry struct {
	ID         int64
	BatchID    *int64
	Date       *string
	Precision  int
	Content    string
	Type       *string
	Originator *string
	Sources    []string
	CreatedAt  *string
}

// Narrative is one persisted narrative generation.
type Narrative struct {
	ID          int64
	Period      string
	PlainText   string
	RichText    string
	EntryCount  int
	GeneratedAt *string
}

// SupportingEntry is the snapshot of one entry backing a reference, kept
// so provenance survives re-imports.
type SupportingEntry struct {
	Date    *string  `json:"date,omitempty"`
	Snippet string   `json:"snippet"`
	Sources []string `json:"sources,omitempty"`
}

// StoredReference is one persisted narrative reference.
type StoredReference struct {
	ID          string
	NarrativeID int64
	Matched     string
	Date        *string
	Snippet     string
	Multi       bool
	Support     []SupportingEntry
}

// Stats contains aggregate database statistics.
type Stats struct {
	Batches      int
	TotalEntries int
	DatedEntries int
	Narratives   int
	References   int
}

// AsNote converts a stored entry back into a pipeline entry.
func (e StoredEntry) AsNote() note.Entry {
	n := note.Entry{
		Content:   e.Content,
		Precision: note.DatePrecision(e.Precision),
		Sources:   e.Sources,
	}
	if e.Type != nil {
		n.Type = *e.Type
	}
	if e.Originator != nil {
		n.Originator = *e.Originator
	}
	if e.Date != nil {
		if t, err := time.Parse(time.RFC3339, *e.Date); err == nil {
			n.Date = &t
		}
	}
	return n
}

func encodeSources(sources []string) *string {
	if len(sources) == 0 {
		return nil
	}
	b, err := json.Marshal(sources)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

func decodeSources(raw *string) []string {
	if raw == nil || *raw == "" {
		return nil
	}
	var sources []string
	if err := json.Unmarshal([]byte(*raw), &sources); err != nil {
		return nil
	}
	return sources
}
