// Package dedupe merges entries that describe the same clinical event
// duplicated across source systems or exports.
package dedupe

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mcallison/chartline/internal/note"
)

var (
	punctuation = regexp.MustCompile(`[^\pL\pN\s]+`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Key identifies a group of duplicate entries: the entry category, its
// normalized text, and a date bucket whose granularity follows the date
// precision recorded by the normalizer.
type Key struct {
	Category   string
	Normalized string
	DateBucket string
}

// KeyFor computes the deduplication key for an entry.
func KeyFor(e note.Entry) Key {
	return Key{
		Category:   strings.ToLower(strings.TrimSpace(e.Type)),
		Normalized: NormalizeText(e.Content),
		DateBucket: dateBucket(e),
	}
}

// NormalizeText lower-cases, strips punctuation, and collapses whitespace
// so cosmetic differences between exports do not defeat grouping.
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	s = punctuation.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func dateBucket(e note.Entry) string {
	if !e.HasDate() {
		return "undated"
	}
	if e.Precision == note.PrecisionMonth {
		return e.Date.Format("2006-01")
	}
	return e.Date.Format("2006-01-02")
}

// Deduplicate merges entries sharing a key into one representative: the
// member with the longest content, carrying the sorted union of all group
// members' sources. Output order follows first appearance of each key, so
// the reduction is stable regardless of import order within a group and
// idempotent overall.
func Deduplicate(entries []note.Entry) []note.Entry {
	groups := make(map[Key][]note.Entry, len(entries))
	var order []Key

	for _, e := range entries {
		k := KeyFor(e)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}

	out := make([]note.Entry, 0, len(order))
	for _, k := range order {
		out = append(out, merge(groups[k]))
	}
	return out
}

func merge(group []note.Entry) note.Entry {
	if len(group) == 1 {
		return group[0]
	}

	rep := group[0]
	for _, e := range group[1:] {
		if len(e.Content) > len(rep.Content) {
			rep = e
		}
	}

	seen := make(map[string]bool)
	var sources []string
	for _, e := range group {
		for _, s := range e.Sources {
			if s != "" && !seen[s] {
				seen[s] = true
				sources = append(sources, s)
			}
		}
	}
	sort.Strings(sources)

	rep.Sources = sources
	return rep
}
