// Package narrative filters entries by time period, groups scored entries
// by topic, and renders flowing prose whose clauses link back to their
// supporting entries through a per-generation reference tracker.
package narrative

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/mcallison/chartline/internal/lexicon"
	"github.com/mcallison/chartline/internal/note"
	"github.com/mcallison/chartline/internal/score"
	"github.com/mcallison/chartline/internal/timeline"
)

// Period selects the time window a narrative covers.
type Period string

const (
	PeriodAll           Period = "all"
	PeriodYear          Period = "1_year"
	PeriodSixMonths     Period = "6_months"
	PeriodLastAdmission Period = "last_admission"
)

// ParsePeriod validates a period string.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodAll, PeriodYear, PeriodSixMonths, PeriodLastAdmission:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period %q (want all, 1_year, 6_months, or last_admission)", s)
}

// NoSignificantFindings is returned when no entry in the selected period
// scores above zero. Never an empty string.
const NoSignificantFindings = "No significant findings were identified in the selected period."

// Result is one generated narrative. Refs is the tracker created for this
// generation; every anchor embedded in RichText resolves against it.
type Result struct {
	PlainText string
	RichText  string
	Refs      *Tracker
}

// Synthesizer generates narratives from scored, deduplicated entries.
type Synthesizer struct {
	lex     *lexicon.Lexicon
	scorer  *score.Scorer
	builder *timeline.Builder
}

// New creates a synthesizer.
func New(lex *lexicon.Lexicon, scorer *score.Scorer, builder *timeline.Builder) *Synthesizer {
	return &Synthesizer{lex: lex, scorer: scorer, builder: builder}
}

// Generate filters entries to the requested period, scores them, groups
// them by category, and renders plain and rich prose. A fresh tracker is
// created per call and returned with the result.
func (s *Synthesizer) Generate(entries []note.Entry, period Period) (*Result, error) {
	if _, err := ParsePeriod(string(period)); err != nil {
		return nil, err
	}

	tracker := NewTracker()
	filtered := s.filterByPeriod(entries, period)

	scored := s.scorer.ScoreAll(filtered)
	var positive []note.ScoredEntry
	for _, se := range scored {
		if se.Score > 0 {
			positive = append(positive, se)
		}
	}
	if len(positive) == 0 {
		return &Result{PlainText: NoSignificantFindings, RichText: NoSignificantFindings, Refs: tracker}, nil
	}

	groups := groupByCategory(positive)
	plain, rich := s.render(groups, tracker)
	return &Result{PlainText: plain, RichText: rich, Refs: tracker}, nil
}

// filterByPeriod applies the period window. Entries without a date are
// silently dropped from windowed views but kept for "all". Window cutoffs
// anchor on the most recent entry date, not the wall clock, so generation
// is reproducible.
func (s *Synthesizer) filterByPeriod(entries []note.Entry, period Period) []note.Entry {
	switch period {
	case PeriodAll:
		return entries
	case PeriodYear:
		return filterWindow(entries, 365)
	case PeriodSixMonths:
		return filterWindow(entries, 182)
	case PeriodLastAdmission:
		episodes, err := s.builder.Build(entries)
		if err != nil {
			log.Printf("episode detection failed (%v), using unfiltered entries", err)
			return entries
		}
		last, ok := timeline.LastInpatient(episodes)
		if !ok {
			log.Print("no inpatient episode found, using unfiltered entries")
			return entries
		}
		var kept []note.Entry
		for _, e := range entries {
			if e.HasDate() && last.Contains(*e.Date) {
				kept = append(kept, e)
			}
		}
		return kept
	}
	return entries
}

func filterWindow(entries []note.Entry, days int) []note.Entry {
	var latest time.Time
	found := false
	for _, e := range entries {
		if e.HasDate() && (!found || e.Date.After(latest)) {
			latest = *e.Date
			found = true
		}
	}
	if !found {
		return nil
	}
	cutoff := latest.AddDate(0, 0, -days)
	var kept []note.Entry
	for _, e := range entries {
		if e.HasDate() && !e.Date.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept
}

// categoryGroup accumulates the scored entries and drivers for one topic.
type categoryGroup struct {
	name        string
	totalWeight int
	earliest    time.Time
	hasDate     bool
	termOrder   []string
	termEntries map[string][]note.Entry
}

func groupByCategory(scored []note.ScoredEntry) []*categoryGroup {
	byName := make(map[string]*categoryGroup)
	var order []string

	for _, se := range scored {
		for _, d := range se.Drivers {
			g, ok := byName[d.Category]
			if !ok {
				g = &categoryGroup{name: d.Category, termEntries: make(map[string][]note.Entry)}
				byName[d.Category] = g
				order = append(order, d.Category)
			}
			g.totalWeight += d.Weight
			if se.Entry.HasDate() && (!g.hasDate || se.Entry.Date.Before(g.earliest)) {
				g.earliest = *se.Entry.Date
				g.hasDate = true
			}
			if _, seen := g.termEntries[d.Term]; !seen {
				g.termOrder = append(g.termOrder, d.Term)
			}
			g.termEntries[d.Term] = append(g.termEntries[d.Term], se.Entry)
		}
	}

	groups := make([]*categoryGroup, 0, len(order))
	for _, name := range order {
		groups = append(groups, byName[name])
	}
	// Total category weight descending; ties broken by earliest date.
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].totalWeight != groups[j].totalWeight {
			return groups[i].totalWeight > groups[j].totalWeight
		}
		switch {
		case groups[i].hasDate && groups[j].hasDate:
			return groups[i].earliest.Before(groups[j].earliest)
		case groups[i].hasDate:
			return true
		default:
			return false
		}
	})
	return groups
}

// render produces one sentence per category. Every driver term in the
// rich rendering is an anchor whose id resolves in the tracker.
func (s *Synthesizer) render(groups []*categoryGroup, tracker *Tracker) (plain, rich string) {
	var plainSentences, richSentences []string

	for i, g := range groups {
		lead := g.name
		if cat := s.lex.Category(g.name); cat != nil && cat.Lead != "" {
			lead = cat.Lead
		}

		var plainTerms, richTerms []string
		for _, term := range g.termOrder {
			entries := sortByDate(g.termEntries[term])
			id := tracker.Register(term, entries)
			plainTerms = append(plainTerms, term)
			richTerms = append(richTerms, fmt.Sprintf("[%s](ref://%s)", term, id))
		}

		opening := "The notes record"
		if i > 0 {
			opening = "There is also reference to"
		}
		plainSentences = append(plainSentences,
			fmt.Sprintf("%s %s, with mention of %s.", opening, lead, joinTerms(plainTerms)))
		richSentences = append(richSentences,
			fmt.Sprintf("%s %s, with mention of %s.", opening, lead, joinTerms(richTerms)))
	}

	return strings.Join(plainSentences, " "), strings.Join(richSentences, " ")
}

func sortByDate(entries []note.Entry) []note.Entry {
	out := make([]note.Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		switch {
		case out[i].HasDate() && out[j].HasDate():
			return out[i].Date.Before(*out[j].Date)
		case out[i].HasDate():
			return true
		default:
			return false
		}
	})
	return out
}

// joinTerms joins a term list grammatically: one item as-is, two joined
// by "and", three or more as "a, b, and c".
func joinTerms(terms []string) string {
	switch len(terms) {
	case 0:
		return ""
	case 1:
		return terms[0]
	case 2:
		return terms[0] + " and " + terms[1]
	default:
		return strings.Join(terms[:len(terms)-1], ", ") + ", and " + terms[len(terms)-1]
	}
}
