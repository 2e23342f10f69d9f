package dedupe

import (
	"reflect"
	"testing"
	"time"

	"github.com/mcallison/chartline/internal/note"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestDeduplicateMergesSameEventAcrossSources(t *testing.T) {
	entries := []note.Entry{
		{
			Date: day(2024, 1, 5), Precision: note.PrecisionDay,
			Content: "Patient became aggressive towards staff",
			Type:    "progress note", Sources: []string{"RiO"},
		},
		{
			Date: day(2024, 1, 5), Precision: note.PrecisionDay,
			Content: "Patient became AGGRESSIVE  towards staff!!",
			Type:    "Progress Note", Sources: []string{"SystmOne"},
		},
	}

	out := Deduplicate(entries)
	if len(out) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(out))
	}
	if out[0].Content != entries[1].Content {
		t.Errorf("representative should be the longest content, got %q", out[0].Content)
	}
	if !reflect.DeepEqual(out[0].Sources, []string{"RiO", "SystmOne"}) {
		t.Errorf("sources = %v, want sorted union", out[0].Sources)
	}
}

func TestDeduplicateNormalizesPunctuationAndCase(t *testing.T) {
	entries := []note.Entry{
		{Date: day(2024, 1, 5), Precision: note.PrecisionDay, Type: "note",
			Content: "Seen on the ward - settled, no concerns!", Sources: []string{"a"}},
		{Date: day(2024, 1, 5), Precision: note.PrecisionDay, Type: "note",
			Content: "Seen on the ward: settled. No concerns.", Sources: []string{"b"}},
	}
	if out := Deduplicate(entries); len(out) != 1 {
		t.Errorf("cosmetic differences should not defeat grouping, got %d entries", len(out))
	}
}

func TestDeduplicateKeepsDistinctDates(t *testing.T) {
	entries := []note.Entry{
		{Date: day(2024, 1, 5), Precision: note.PrecisionDay, Type: "note", Content: "Settled on the ward."},
		{Date: day(2024, 1, 6), Precision: note.PrecisionDay, Type: "note", Content: "Settled on the ward."},
	}
	if out := Deduplicate(entries); len(out) != 2 {
		t.Errorf("same text on different days is not a duplicate, got %d entries", len(out))
	}
}

func TestDeduplicateMonthBucketForMonthPrecision(t *testing.T) {
	entries := []note.Entry{
		{Date: day(2024, 3, 1), Precision: note.PrecisionMonth, Type: "letter", Content: "Clinic letter follow up."},
		{Date: day(2024, 3, 15), Precision: note.PrecisionMonth, Type: "letter", Content: "Clinic letter follow up."},
	}
	if out := Deduplicate(entries); len(out) != 1 {
		t.Errorf("month-precision entries in the same month should merge, got %d", len(out))
	}
}

func TestDeduplicateUndatedBucket(t *testing.T) {
	entries := []note.Entry{
		{Type: "note", Content: "Undated scanned document."},
		{Type: "note", Content: "Undated scanned document."},
		{Type: "note", Content: "A different undated document."},
	}
	out := Deduplicate(entries)
	if len(out) != 2 {
		t.Errorf("expected 2 entries after merging identical undated pair, got %d", len(out))
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	entries := []note.Entry{
		{Date: day(2024, 1, 5), Precision: note.PrecisionDay, Type: "note",
			Content: "Aggressive towards staff.", Sources: []string{"RiO"}},
		{Date: day(2024, 1, 5), Precision: note.PrecisionDay, Type: "note",
			Content: "Aggressive towards staff!", Sources: []string{"SystmOne"}},
		{Date: day(2024, 1, 6), Precision: note.PrecisionDay, Type: "note",
			Content: "Settled day."},
		{Type: "letter", Content: "Undated letter."},
	}

	once := Deduplicate(entries)
	twice := Deduplicate(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("deduplicate must be idempotent:\nonce:  %v\ntwice: %v", once, twice)
	}
}

func TestDeduplicatePreservesOrderOfFirstAppearance(t *testing.T) {
	entries := []note.Entry{
		{Date: day(2024, 1, 6), Precision: note.PrecisionDay, Type: "note", Content: "Second day note."},
		{Date: day(2024, 1, 5), Precision: note.PrecisionDay, Type: "note", Content: "First day note."},
	}
	out := Deduplicate(entries)
	if out[0].Content != "Second day note." || out[1].Content != "First day note." {
		t.Errorf("input order should be preserved, got %v", out)
	}
}

func TestNormalizeText(t *testing.T) {
	got := NormalizeText("  Patient   SEEN—on ward. (Settled)  ")
	want := "patient seen on ward settled"
	if got != want {
		t.Errorf("NormalizeText = %q, want %q", got, want)
	}
}
