package note

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// RawRecord is a loosely typed record as produced by a format-specific
// importer. Field values may be strings, native timestamps, numbers, or
// missing entirely.
type RawRecord map[string]any

// contentFields is the fallback order for locating an entry's text.
var contentFields = []string{"content", "text", "body", "note"}

// Normalize canonicalizes raw importer records into Entry values. No record
// is dropped: entries without a parseable date are kept with Date left nil.
func Normalize(records []RawRecord) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		e := Entry{
			Content:    coerceContent(rec),
			Type:       coerceString(rec["type"]),
			Originator: coerceString(rec["originator"]),
		}
		if src := coerceString(rec["source"]); src != "" {
			e.Sources = []string{src}
		}
		e.Date, e.Precision = coerceDate(rec["date"])
		entries = append(entries, e)
	}
	return entries
}

func coerceContent(rec RawRecord) string {
	for _, field := range contentFields {
		if s := coerceString(rec[field]); s != "" {
			return s
		}
	}
	return ""
}

func coerceString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// monthOnlyPatterns match date strings that carry a month and year but no
// day component, e.g. "2024-03", "March 2024", "03/2024".
var monthOnlyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}[-/]\d{1,2}$`),
	regexp.MustCompile(`^\d{1,2}[-/]\d{4}$`),
	regexp.MustCompile(`^[A-Za-z]{3,9}\.?,?\s+\d{4}$`),
}

// monthLayouts are tried when dateparse rejects a month-only string; it
// handles "2024-03" but not "03/2024" or "March 2024".
var monthLayouts = []string{"2006-1", "2006/1", "1/2006", "1-2006", "January 2006", "Jan 2006"}

func coerceDate(v any) (*time.Time, DatePrecision) {
	switch d := v.(type) {
	case time.Time:
		return &d, PrecisionDay
	case *time.Time:
		if d == nil {
			return nil, PrecisionNone
		}
		t := *d
		return &t, PrecisionDay
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return nil, PrecisionNone
		}
		t, err := dateparse.ParseAny(s)
		if err != nil {
			if monthOnly(s) {
				return parseMonthOnly(s)
			}
			return nil, PrecisionNone
		}
		if monthOnly(s) {
			return &t, PrecisionMonth
		}
		return &t, PrecisionDay
	default:
		return nil, PrecisionNone
	}
}

func monthOnly(s string) bool {
	for _, p := range monthOnlyPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func parseMonthOnly(s string) (*time.Time, DatePrecision) {
	cleaned := strings.NewReplacer(".", "", ",", "").Replace(s)
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return &t, PrecisionMonth
		}
	}
	return nil, PrecisionNone
}
