// Package pipeline runs the import-side stages in order: normalize raw
// records, classify and screen them, then deduplicate. Scoring and
// narrative generation run downstream on the pipeline's output.
package pipeline

import (
	"fmt"
	"log"

	"github.com/mcallison/chartline/internal/classify"
	"github.com/mcallison/chartline/internal/dedupe"
	"github.com/mcallison/chartline/internal/lexicon"
	"github.com/mcallison/chartline/internal/note"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the processed entries and per-step summaries.
type Result struct {
	Entries []note.Entry
	Steps   []StepResult
}

// Pipeline processes raw importer records into clean, attributed,
// deduplicated entries.
type Pipeline struct {
	classifier *classify.Classifier
}

// New creates a pipeline over the given lexicon.
func New(lex *lexicon.Lexicon) *Pipeline {
	return &Pipeline{classifier: classify.New(lex)}
}

// Process runs the full import pipeline. Blank form templates are
// excluded entirely; every other record survives as an entry.
func (p *Pipeline) Process(records []note.RawRecord) *Result {
	r := &Result{}

	log.Printf("Step 1/3: Normalizing %d records...", len(records))
	entries := note.Normalize(records)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Normalize",
		Summary: fmt.Sprintf("Normalized %d records", len(entries)),
	})

	log.Print("Step 2/3: Classifying and screening...")
	kept, blanks, attributed := p.classifyEntries(entries)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Classify",
		Summary: fmt.Sprintf("Kept %d entries (%d blank templates dropped, %d report types attributed)", len(kept), blanks, attributed),
	})

	log.Print("Step 3/3: Deduplicating...")
	deduped := dedupe.Deduplicate(kept)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Deduplicate",
		Summary: fmt.Sprintf("Merged %d entries into %d", len(kept), len(deduped)),
	})

	r.Entries = deduped
	log.Printf("Pipeline complete: %d entries from %d records", len(deduped), len(records))
	return r
}

// classifyEntries drops blank templates, strips form headings from
// content, and attributes a report type where the importer left the
// type or source blank. Input entries are not mutated; cleaned copies
// replace them.
func (p *Pipeline) classifyEntries(entries []note.Entry) (kept []note.Entry, blanks, attributed int) {
	for _, e := range entries {
		if p.classifier.IsBlankTemplate(e.Content) {
			blanks++
			continue
		}

		cleaned := e
		cleaned.Content = p.classifier.StripFormHeadings(e.Content)

		if cleaned.Type == "" || len(cleaned.Sources) == 0 {
			res := p.classifier.Classify(cleaned.Content)
			if res.ReportType != classify.UnknownType {
				if cleaned.Type == "" {
					cleaned.Type = res.ReportType
				}
				if len(cleaned.Sources) == 0 {
					cleaned.Sources = []string{res.ReportType}
				}
				attributed++
			}
		}
		kept = append(kept, cleaned)
	}
	return kept, blanks, attributed
}
