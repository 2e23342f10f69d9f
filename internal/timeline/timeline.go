// Package timeline segments dated entries into non-overlapping care
// episodes using admission/discharge signal phrases and gap detection,
// with an optional cross-check against administrative admission records.
package timeline

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/mcallison/chartline/internal/lexicon"
	"github.com/mcallison/chartline/internal/note"
)

// DefaultGapDays is the gap between consecutive entries that implies a
// change of care setting when no explicit signal is present.
const DefaultGapDays = 28

// ErrNoDatedEntries is returned when no entry carries a parseable date.
// Callers degrade to the unfiltered entry set rather than failing.
var ErrNoDatedEntries = errors.New("timeline: no dated entries")

// AdmissionRecord is a secondary administrative signal used to
// cross-validate inferred inpatient boundaries.
type AdmissionRecord struct {
	Start time.Time
	End   time.Time
}

// Builder infers episodes from entry dates and content.
type Builder struct {
	admission []string
	discharge []string
	gap       time.Duration
}

// New creates a builder from lexicon episode signals. gapDays <= 0 falls
// back to DefaultGapDays.
func New(lex *lexicon.Lexicon, gapDays int) *Builder {
	if gapDays <= 0 {
		gapDays = DefaultGapDays
	}
	b := &Builder{gap: time.Duration(gapDays) * 24 * time.Hour}
	for _, s := range lex.Episodes.Admission {
		b.admission = append(b.admission, strings.ToLower(s))
	}
	for _, s := range lex.Episodes.Discharge {
		b.discharge = append(b.discharge, strings.ToLower(s))
	}
	return b
}

// Build walks dated entries in ascending date order and returns ordered
// episodes. Undated entries never participate. Deterministic: the same
// input always yields the same episodes.
func (b *Builder) Build(entries []note.Entry) ([]note.Episode, error) {
	dated := make([]note.Entry, 0, len(entries))
	for _, e := range entries {
		if e.HasDate() {
			dated = append(dated, e)
		}
	}
	if len(dated) == 0 {
		return nil, ErrNoDatedEntries
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].Date.Before(*dated[j].Date) })

	var episodes []note.Episode
	var current *note.Episode
	seenDischarge := false

	flush := func() {
		if current != nil {
			episodes = append(episodes, *current)
			current = nil
		}
	}
	open := func(t note.EpisodeType, at time.Time) {
		current = &note.Episode{Type: t, Start: at, End: at}
	}

	for _, e := range dated {
		d := *e.Date
		lower := strings.ToLower(e.Content)

		if current != nil && d.Sub(current.End) > b.gap {
			flush()
		}

		switch {
		case containsAny(lower, b.admission):
			if current != nil && current.Type == note.EpisodeInpatient {
				current.End = d
				continue
			}
			flush()
			open(note.EpisodeInpatient, d)
		case containsAny(lower, b.discharge):
			if current != nil && current.Type == note.EpisodeInpatient {
				current.End = d
				flush()
				seenDischarge = true
				continue
			}
			if current != nil {
				current.End = d
				continue
			}
			// Discharge signal with no open inpatient episode: treat as
			// the tail of an admission that predates the record set.
			open(note.EpisodeInpatient, d)
			flush()
			seenDischarge = true
		default:
			if current == nil {
				t := note.EpisodeUnknown
				if seenDischarge {
					t = note.EpisodeCommunity
				}
				open(t, d)
				continue
			}
			current.End = d
		}
	}
	flush()

	return episodes, nil
}

// BuildWithRecords cross-validates inferred inpatient episodes against
// administrative admission records. Records win on disagreement: inferred
// inpatient boundaries snap to an overlapping record, and records with no
// inferred counterpart become inpatient episodes in their own right. With
// an empty record set this degrades to heuristic-only segmentation.
func (b *Builder) BuildWithRecords(entries []note.Entry, records []AdmissionRecord) ([]note.Episode, error) {
	inferred, err := b.Build(entries)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return inferred, nil
	}

	matched := make([]bool, len(records))
	var out []note.Episode
	for _, ep := range inferred {
		if ep.Type != note.EpisodeInpatient {
			out = append(out, ep)
			continue
		}
		snapped := false
		for i, rec := range records {
			if overlaps(ep, rec) {
				if !matched[i] {
					out = append(out, note.Episode{Type: note.EpisodeInpatient, Start: rec.Start, End: rec.End})
					matched[i] = true
				}
				snapped = true
				break
			}
		}
		if !snapped {
			out = append(out, ep)
		}
	}
	for i, rec := range records {
		if !matched[i] {
			out = append(out, note.Episode{Type: note.EpisodeInpatient, Start: rec.Start, End: rec.End})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// LastInpatient returns the inpatient episode with the latest start.
func LastInpatient(episodes []note.Episode) (note.Episode, bool) {
	var last note.Episode
	found := false
	for _, ep := range episodes {
		if ep.Type != note.EpisodeInpatient {
			continue
		}
		if !found || ep.Start.After(last.Start) {
			last = ep
			found = true
		}
	}
	return last, found
}

func overlaps(ep note.Episode, rec AdmissionRecord) bool {
	return !ep.End.Before(rec.Start) && !ep.Start.After(rec.End)
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
