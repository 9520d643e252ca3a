package output

import (
	"time"

	"github.com/wesleyorama2/settle/bench"
	"github.com/wesleyorama2/settle/bench/suite"
	"github.com/wesleyorama2/settle/internal/compare"
)

// Document is everything one `settle run` reports, in a form every output
// format can render.
type Document struct {
	RunID     string `json:"runId,omitempty" yaml:"runId,omitempty"`
	CommitSha string `json:"commitSha,omitempty" yaml:"commitSha,omitempty"`
	Branch    string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`

	Results  []*bench.Result `json:"results" yaml:"results"`
	Failures []FailureData   `json:"failures,omitempty" yaml:"failures,omitempty"`
	Skipped  []string        `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	// Comparison is set when a previous benchmark was available.
	Comparison *compare.PerformanceReport `json:"comparison,omitempty" yaml:"comparison,omitempty"`
}

// FailureData describes a benchmark that returned an error.
type FailureData struct {
	ID    string `json:"id" yaml:"id"`
	Error string `json:"error" yaml:"error"`
}

// NewDocument builds a document from a suite report.
func NewDocument(report *suite.Report, now time.Time) *Document {
	doc := &Document{
		RunID:     report.RunID,
		Timestamp: now.UTC().Format(time.RFC3339),
		Results:   report.Results,
		Skipped:   report.Skipped,
	}
	for _, f := range report.Failures {
		doc.Failures = append(doc.Failures, FailureData{ID: f.ID, Error: f.Err.Error()})
	}
	return doc
}

// Failed reports whether any benchmark errored or regressed.
func (d *Document) Failed() bool {
	return len(d.Failures) > 0 || (d.Comparison != nil && d.Comparison.SomeFailed)
}
