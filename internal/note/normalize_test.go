package note

import (
	"testing"
	"time"
)

func TestNormalizeContentFallback(t *testing.T) {
	entries := Normalize([]RawRecord{
		{"content": "from content"},
		{"text": "from text"},
		{"body": "from body"},
		{"note": "from note"},
		{"title": "nothing usable"},
	})

	want := []string{"from content", "from text", "from body", "from note", ""}
	for i, w := range want {
		if entries[i].Content != w {
			t.Errorf("entry %d: content = %q, want %q", i, entries[i].Content, w)
		}
	}
}

func TestNormalizePrefersContentOverLaterFields(t *testing.T) {
	entries := Normalize([]RawRecord{
		{"content": "primary", "text": "secondary", "body": "tertiary"},
	})
	if entries[0].Content != "primary" {
		t.Errorf("content = %q, want %q", entries[0].Content, "primary")
	}
}

func TestNormalizeTrimsStringFields(t *testing.T) {
	entries := Normalize([]RawRecord{
		{"content": "x", "type": "  progress note ", "originator": " Dr Hale ", "source": " RiO "},
	})
	e := entries[0]
	if e.Type != "progress note" {
		t.Errorf("type = %q", e.Type)
	}
	if e.Originator != "Dr Hale" {
		t.Errorf("originator = %q", e.Originator)
	}
	if len(e.Sources) != 1 || e.Sources[0] != "RiO" {
		t.Errorf("sources = %v", e.Sources)
	}
}

func TestNormalizeDateFormats(t *testing.T) {
	entries := Normalize([]RawRecord{
		{"content": "a", "date": "2024-01-05"},
		{"content": "b", "date": "05/01/2024 14:30"},
		{"content": "c", "date": "March 2024"},
		{"content": "d", "date": "not a date"},
		{"content": "e"},
		{"content": "f", "date": time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
	})

	if !entries[0].HasDate() || entries[0].Precision != PrecisionDay {
		t.Error("ISO date should parse with day precision")
	}
	if entries[0].Date.Year() != 2024 || entries[0].Date.Month() != time.January || entries[0].Date.Day() != 5 {
		t.Errorf("parsed date = %v", entries[0].Date)
	}
	if !entries[1].HasDate() {
		t.Error("slash date with time should parse")
	}
	if !entries[2].HasDate() || entries[2].Precision != PrecisionMonth {
		t.Errorf("month-year date should parse with month precision, got %v", entries[2].Precision)
	}
	if entries[3].HasDate() {
		t.Error("garbage date should be left absent")
	}
	if entries[4].HasDate() {
		t.Error("missing date should be left absent")
	}
	if !entries[5].HasDate() || entries[5].Precision != PrecisionDay {
		t.Error("native timestamp should be kept with day precision")
	}
}

func TestNormalizeMonthOnlyFormats(t *testing.T) {
	cases := []struct {
		raw   string
		year  int
		month time.Month
	}{
		{"2024-03", 2024, time.March},
		{"2024/03", 2024, time.March},
		{"03/2024", 2024, time.March},
		{"3/2024", 2024, time.March},
		{"03-2024", 2024, time.March},
		{"March 2024", 2024, time.March},
		{"Mar 2024", 2024, time.March},
		{"Mar. 2024", 2024, time.March},
		{"December, 2019", 2019, time.December},
	}

	for _, c := range cases {
		entries := Normalize([]RawRecord{{"content": "x", "date": c.raw}})
		e := entries[0]
		if !e.HasDate() {
			t.Errorf("%q: month-only date should parse", c.raw)
			continue
		}
		if e.Precision != PrecisionMonth {
			t.Errorf("%q: precision = %v, want PrecisionMonth", c.raw, e.Precision)
		}
		if e.Date.Year() != c.year || e.Date.Month() != c.month {
			t.Errorf("%q: parsed %v, want %d-%02d", c.raw, e.Date, c.year, c.month)
		}
	}
}

func TestNormalizeKeepsUndatedEntries(t *testing.T) {
	entries := Normalize([]RawRecord{
		{"content": "undated note", "date": "??"},
	})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Content != "undated note" {
		t.Error("undated entry should be retained for scoring")
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	if got := Normalize(nil); len(got) != 0 {
		t.Errorf("expected empty slice, got %d entries", len(got))
	}
}
