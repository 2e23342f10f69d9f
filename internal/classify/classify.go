// Package classify infers report types from phrase fingerprints and
// screens out blank form templates before they reach the scorer.
package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mcallison/chartline/internal/lexicon"
)

const (
	strongWeight = 3
	mediumWeight = 1

	// UnknownType is returned when no fingerprint matches.
	UnknownType = "unknown"

	blankStrongThreshold  = 3
	blankBracketThreshold = 5
)

var bracketToken = regexp.MustCompile(`\[[^\[\]\n]{1,40}\]`)

// Result holds the outcome of classifying one text blob.
type Result struct {
	ReportType string
	Confidence float64
	Scores     map[string]int
}

// Classifier scores free text against per-report-type phrase fingerprints.
type Classifier struct {
	types       []lexicon.ReportType
	blankStrong []string
	headings    []*regexp.Regexp
}

// New creates a classifier from a lexicon. Report types are kept in
// priority order so ties resolve deterministically.
func New(lex *lexicon.Lexicon) *Classifier {
	types := make([]lexicon.ReportType, len(lex.ReportTypes))
	copy(types, lex.ReportTypes)
	sort.SliceStable(types, func(i, j int) bool { return types[i].Priority < types[j].Priority })

	var blankStrong []string
	for _, f := range lex.BlankTemplate.Strong {
		blankStrong = append(blankStrong, strings.ToLower(f))
	}

	var headings []*regexp.Regexp
	for _, h := range lex.Headings {
		headings = append(headings, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(h)))
	}

	return &Classifier{types: types, blankStrong: blankStrong, headings: headings}
}

// Classify scores text against every report type fingerprint and returns
// the argmax, with ties resolved by category priority. When nothing
// matches, the report type is "unknown" with zero confidence.
func (c *Classifier) Classify(text string) Result {
	lower := strings.ToLower(text)

	scores := make(map[string]int, len(c.types))
	total := 0
	best := ""
	bestScore := 0
	for _, rt := range c.types {
		score := 0
		for _, p := range rt.Strong {
			score += strongWeight * strings.Count(lower, strings.ToLower(p))
		}
		for _, p := range rt.Medium {
			score += mediumWeight * strings.Count(lower, strings.ToLower(p))
		}
		scores[rt.Name] = score
		total += score
		// Strictly greater: earlier (higher-priority) types win ties.
		if score > bestScore {
			bestScore = score
			best = rt.Name
		}
	}

	if bestScore == 0 {
		return Result{ReportType: UnknownType, Scores: scores}
	}
	return Result{
		ReportType: best,
		Confidence: float64(bestScore) / float64(total),
		Scores:     scores,
	}
}

// IsBlankTemplate reports whether text looks like an unfilled form
// template: three or more distinct strong fingerprints, or five or more
// bracketed placeholder tokens.
func (c *Classifier) IsBlankTemplate(text string) bool {
	lower := strings.ToLower(text)

	distinct := 0
	for _, f := range c.blankStrong {
		if strings.Contains(lower, f) {
			distinct++
		}
	}
	if distinct >= blankStrongThreshold {
		return true
	}

	return len(bracketToken.FindAllString(text, -1)) >= blankBracketThreshold
}

// StripFormHeadings removes known question/heading phrases from extracted
// text and collapses the blank lines left behind.
func (c *Classifier) StripFormHeadings(text string) string {
	for _, h := range c.headings {
		text = h.ReplaceAllString(text, "")
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
