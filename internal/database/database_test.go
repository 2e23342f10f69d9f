package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mcallison/chartline/internal/narrative"
	"github.com/mcallison/chartline/internal/note"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestInsertAndGetEntries(t *testing.T) {
	db := openTestDB(t)

	bid, err := db.InsertBatch("march export", nil, 3, 2)
	if err != nil {
		t.Fatal(err)
	}

	entries := []note.Entry{
		{Date: day(2024, 1, 6), Precision: note.PrecisionDay, Content: "Aggressive towards staff.",
			Type: "progress note", Originator: "Dr Hale", Sources: []string{"RiO", "SystmOne"}},
		{Content: "Undated scanned letter.", Type: "letter"},
	}
	if err := db.InsertEntries(bid, entries); err != nil {
		t.Fatal(err)
	}

	stored, err := db.GetAllEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(stored))
	}

	// Dated entries sort before undated.
	first := stored[0].AsNote()
	if !first.HasDate() || first.Date.Day() != 6 {
		t.Errorf("first entry should be the dated one, got %+v", first)
	}
	if first.Type != "progress note" || first.Originator != "Dr Hale" {
		t.Errorf("round-trip lost fields: %+v", first)
	}
	if len(first.Sources) != 2 {
		t.Errorf("round-trip lost sources: %v", first.Sources)
	}

	second := stored[1].AsNote()
	if second.HasDate() {
		t.Error("undated entry should stay undated after round-trip")
	}
}

func TestGetEntriesForBatch(t *testing.T) {
	db := openTestDB(t)

	b1, _ := db.InsertBatch("one", nil, 1, 1)
	b2, _ := db.InsertBatch("two", nil, 1, 1)
	db.InsertEntries(b1, []note.Entry{{Content: "from batch one"}})
	db.InsertEntries(b2, []note.Entry{{Content: "from batch two"}})

	got, err := db.GetEntriesForBatch(b2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Content != "from batch two" {
		t.Errorf("unexpected batch entries: %v", got)
	}
}

func TestNarrativeRoundTrip(t *testing.T) {
	db := openTestDB(t)

	tracker := narrative.NewTracker()
	id := tracker.Register("aggressive", []note.Entry{
		{Date: day(2024, 1, 6), Precision: note.PrecisionDay,
			Content: "Patient became aggressive towards staff.", Sources: []string{"RiO"}},
	})
	result := &narrative.Result{
		PlainText: "The notes record aggression towards others, with mention of aggressive.",
		RichText:  "The notes record aggression towards others, with mention of [aggressive](ref://" + id + ").",
		Refs:      tracker,
	}

	nid, err := db.InsertNarrative("all", result, 1)
	if err != nil {
		t.Fatal(err)
	}

	n, err := db.GetNarrative(nid)
	if err != nil {
		t.Fatal(err)
	}
	if n == nil || n.Period != "all" {
		t.Fatalf("narrative round-trip failed: %+v", n)
	}

	ref, err := db.GetReference(id)
	if err != nil {
		t.Fatal(err)
	}
	if ref == nil {
		t.Fatal("expected reference to resolve")
	}
	if ref.Matched != "aggressive" || ref.Multi {
		t.Errorf("reference round-trip lost fields: %+v", ref)
	}
	if len(ref.Support) != 1 || ref.Support[0].Date == nil {
		t.Errorf("reference support lost: %+v", ref.Support)
	}

	refs, err := db.GetReferencesForNarrative(nid)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 {
		t.Errorf("expected 1 reference for narrative, got %d", len(refs))
	}
}

func TestGetReferenceUnknownID(t *testing.T) {
	db := openTestDB(t)

	ref, err := db.GetReference("no-such-id")
	if err != nil {
		t.Fatal(err)
	}
	if ref != nil {
		t.Error("unknown reference id should return nil, not an error")
	}
}

func TestGetNarrativeUnknownID(t *testing.T) {
	db := openTestDB(t)

	n, err := db.GetNarrative(999)
	if err != nil {
		t.Fatal(err)
	}
	if n != nil {
		t.Error("unknown narrative id should return nil")
	}
}

func TestStats(t *testing.T) {
	db := openTestDB(t)

	bid, _ := db.InsertBatch("b", nil, 2, 2)
	db.InsertEntries(bid, []note.Entry{
		{Date: day(2024, 1, 6), Precision: note.PrecisionDay, Content: "dated"},
		{Content: "undated"},
	})

	stats, err := db.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Batches != 1 || stats.TotalEntries != 2 || stats.DatedEntries != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db1, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	db1.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopening migrated db: %v", err)
	}
	db2.Close()
}
