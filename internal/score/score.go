// Package score assigns relevance scores to entries by scanning for
// weighted lexicon terms, suppressing matches that sit inside negated,
// historical, or hypothetical contexts.
package score

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mcallison/chartline/internal/lexicon"
	"github.com/mcallison/chartline/internal/note"
)

// termMatcher is one surface term with its compiled word matcher and the
// negation patterns specialized for it.
type termMatcher struct {
	term      string
	category  string
	weight    int
	word      *regexp.Regexp
	negations []*regexp.Regexp
}

// Scorer scores entries against a lexicon. Scoring is a pure function of
// the entry content given the lexicon in force at construction time.
type Scorer struct {
	matchers []termMatcher
}

// New compiles a scorer from a lexicon. Every negation rule is expanded
// once per term so rule precedence stays auditable in the rule table
// rather than implicit in code.
func New(lex *lexicon.Lexicon) (*Scorer, error) {
	var matchers []termMatcher
	for _, cat := range lex.Categories {
		for _, t := range cat.Terms {
			lowered := strings.ToLower(t.Term)
			quoted := regexp.QuoteMeta(lowered)

			word, err := regexp.Compile(`\b` + quoted + `\b`)
			if err != nil {
				return nil, fmt.Errorf("compiling term %q: %w", t.Term, err)
			}

			var negations []*regexp.Regexp
			for _, rule := range lex.NegationRules {
				pattern := strings.ReplaceAll(rule.Pattern, "{term}", quoted)
				re, err := regexp.Compile(pattern)
				if err != nil {
					return nil, fmt.Errorf("compiling negation rule %q for term %q: %w", rule.Name, t.Term, err)
				}
				negations = append(negations, re)
			}

			matchers = append(matchers, termMatcher{
				term:      lowered,
				category:  cat.Name,
				weight:    t.Weight,
				word:      word,
				negations: negations,
			})
		}
	}
	return &Scorer{matchers: matchers}, nil
}

// Score scans one entry and returns it with a score and drivers attached.
// The input entry is never mutated. Each distinct term contributes its
// weight at most once; drivers are ordered by first unsuppressed match.
func (s *Scorer) Score(e note.Entry) note.ScoredEntry {
	lower := strings.ToLower(e.Content)

	type hit struct {
		pos    int
		driver note.Driver
	}
	var hits []hit

	for _, m := range s.matchers {
		occurrences := m.word.FindAllStringIndex(lower, -1)
		if occurrences == nil {
			continue
		}

		var negated [][]int
		for _, re := range m.negations {
			negated = append(negated, re.FindAllStringIndex(lower, -1)...)
		}

		for _, occ := range occurrences {
			if covered(occ, negated) {
				continue
			}
			hits = append(hits, hit{pos: occ[0], driver: note.Driver{
				Term:     m.term,
				Category: m.category,
				Weight:   m.weight,
			}})
			break // one contribution per distinct term
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	scored := note.ScoredEntry{Entry: e}
	for _, h := range hits {
		scored.Score += h.driver.Weight
		scored.Drivers = append(scored.Drivers, h.driver)
	}
	return scored
}

// ScoreAll scores a batch of entries.
func (s *Scorer) ScoreAll(entries []note.Entry) []note.ScoredEntry {
	scored := make([]note.ScoredEntry, len(entries))
	for i, e := range entries {
		scored[i] = s.Score(e)
	}
	return scored
}

// covered reports whether the occurrence range falls inside any of the
// negation match ranges.
func covered(occ []int, negated [][]int) bool {
	for _, n := range negated {
		if occ[0] >= n[0] && occ[1] <= n[1] {
			return true
		}
	}
	return false
}
