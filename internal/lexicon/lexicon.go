// Package lexicon holds the declarative vocabulary the engine runs on:
// category/term/weight tables, negation rules, report-type fingerprints,
// form headings, and episode boundary signals. The tables are data, not
// code — swapping a lexicon file changes behaviour without touching any
// pipeline algorithm.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultLexiconYAML []byte

// Term is one weighted surface term within a category.
type Term struct {
	Term   string `yaml:"term"`
	Weight int    `yaml:"weight"`
}

// Category is a clinical topic with its weighted surface terms and the
// language used to lead its narrative clause.
type Category struct {
	Name  string `yaml:"name"`
	Lead  string `yaml:"lead"`
	Terms []Term `yaml:"terms"`
}

// NegationRule describes a linguistic context that nullifies an otherwise
// matching term. Pattern is a regular expression containing the literal
// placeholder {term}; rules are evaluated in listed order.
type NegationRule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Note    string `yaml:"note"`
}

// ReportType carries the phrase fingerprints for one report category.
// Lower Priority wins classifier ties.
type ReportType struct {
	Name     string   `yaml:"name"`
	Priority int      `yaml:"priority"`
	Strong   []string `yaml:"strong"`
	Medium   []string `yaml:"medium"`
}

// BlankTemplate holds the fingerprints that identify unfilled form
// templates which must be excluded from the pipeline.
type BlankTemplate struct {
	Strong []string `yaml:"strong"`
}

// EpisodeSignals are the phrases that open and close inpatient episodes.
type EpisodeSignals struct {
	Admission []string `yaml:"admission"`
	Discharge []string `yaml:"discharge"`
}

// Lexicon is the full vocabulary document.
type Lexicon struct {
	Categories    []Category     `yaml:"categories"`
	NegationRules []NegationRule `yaml:"negation_rules"`
	ReportTypes   []ReportType   `yaml:"report_types"`
	BlankTemplate BlankTemplate  `yaml:"blank_template"`
	Headings      []string       `yaml:"headings"`
	Episodes      EpisodeSignals `yaml:"episodes"`
}

// Default parses the embedded lexicon.
func Default() (*Lexicon, error) {
	return parse(DefaultLexiconYAML)
}

// Load reads and parses a lexicon YAML file.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lexicon: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Lexicon, error) {
	lex := &Lexicon{}
	if err := yaml.Unmarshal(data, lex); err != nil {
		return nil, fmt.Errorf("parsing lexicon: %w", err)
	}
	if err := lex.validate(); err != nil {
		return nil, err
	}
	return lex, nil
}

func (l *Lexicon) validate() error {
	seen := make(map[string]bool)
	for _, c := range l.Categories {
		if c.Name == "" {
			return fmt.Errorf("lexicon: category with empty name")
		}
		if seen[c.Name] {
			return fmt.Errorf("lexicon: duplicate category %q", c.Name)
		}
		seen[c.Name] = true
		for _, t := range c.Terms {
			if t.Weight <= 0 {
				return fmt.Errorf("lexicon: term %q in %s has non-positive weight %d", t.Term, c.Name, t.Weight)
			}
		}
	}
	for _, r := range l.NegationRules {
		if !strings.Contains(r.Pattern, "{term}") {
			return fmt.Errorf("lexicon: negation rule %q lacks {term} placeholder", r.Name)
		}
	}
	return nil
}

// Category returns the named category, or nil if unknown.
func (l *Lexicon) Category(name string) *Category {
	for i := range l.Categories {
		if l.Categories[i].Name == name {
			return &l.Categories[i]
		}
	}
	return nil
}
