package classify

import (
	"strings"
	"testing"

	"github.com/mcallison/chartline/internal/lexicon"
)

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	lex, err := lexicon.Default()
	if err != nil {
		t.Fatalf("loading default lexicon: %v", err)
	}
	return New(lex)
}

func TestClassifyDischargeSummary(t *testing.T) {
	c := testClassifier(t)

	r := c.Classify(`Discharge Summary
Date of discharge: 12 March 2024
Discharge medication: olanzapine 10mg
Follow-up arrangements: CMHT review in two weeks.`)

	if r.ReportType != "discharge_summary" {
		t.Errorf("report type = %q, want discharge_summary (scores: %v)", r.ReportType, r.Scores)
	}
	if r.Confidence <= 0 {
		t.Errorf("confidence = %f, want > 0", r.Confidence)
	}
}

func TestClassifyRiskAssessment(t *testing.T) {
	c := testClassifier(t)

	r := c.Classify("Risk assessment completed. Risk to self: moderate. Risk to others: low. Protective factors include family support.")
	if r.ReportType != "risk_assessment" {
		t.Errorf("report type = %q, want risk_assessment (scores: %v)", r.ReportType, r.Scores)
	}
}

func TestClassifyUnknownWhenNoFingerprints(t *testing.T) {
	c := testClassifier(t)

	r := c.Classify("Patient seen on the ward today, settled, no concerns raised.")
	if r.ReportType != UnknownType {
		t.Errorf("report type = %q, want %q", r.ReportType, UnknownType)
	}
	if r.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", r.Confidence)
	}
}

func TestClassifyTieResolvesByPriority(t *testing.T) {
	c := testClassifier(t)

	// One strong phrase from each of discharge_summary (priority 1) and
	// ward_round (priority 3) produces equal scores.
	r := c.Classify("discharge summary ward round")
	if r.Scores["discharge_summary"] != r.Scores["ward_round"] {
		t.Fatalf("test assumes a tie, got %v", r.Scores)
	}
	if r.ReportType != "discharge_summary" {
		t.Errorf("tie should resolve to higher-priority type, got %q", r.ReportType)
	}
}

func TestIsBlankTemplateByStrongFingerprints(t *testing.T) {
	c := testClassifier(t)

	blank := `Report template. Delete as appropriate.
Patient name: [name]
Date of birth: [dob]
This section to be completed by the responsible clinician.`
	if !c.IsBlankTemplate(blank) {
		t.Error("expected blank template detection by strong fingerprints")
	}
}

func TestIsBlankTemplateByBracketTokens(t *testing.T) {
	c := testClassifier(t)

	blank := "Seen by [clinician] on [date] at [location]. Diagnosis: [diagnosis]. Plan: [plan]."
	if !c.IsBlankTemplate(blank) {
		t.Error("expected blank template detection by bracket count")
	}
}

func TestIsBlankTemplateNegative(t *testing.T) {
	c := testClassifier(t)

	real := "Patient reviewed today. Mood improved since last week. Will continue current medication [as discussed]."
	if c.IsBlankTemplate(real) {
		t.Error("real note with a single bracketed aside should not be flagged blank")
	}
}

func TestStripFormHeadings(t *testing.T) {
	c := testClassifier(t)

	text := "Past psychiatric history:\nTwo previous admissions.\n\n\nPlan:\nContinue medication."
	got := c.StripFormHeadings(text)

	if strings.Contains(strings.ToLower(got), "past psychiatric history:") {
		t.Errorf("heading not stripped: %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank lines not collapsed: %q", got)
	}
	if !strings.Contains(got, "Two previous admissions.") || !strings.Contains(got, "Continue medication.") {
		t.Errorf("content lost during stripping: %q", got)
	}
}
