// Package compare evaluates benchmark results against earlier ones.
package compare

import (
	"github.com/wesleyorama2/settle/internal/history"
)

// DefaultThreshold is the slowdown ratio that fails a comparison when
// neither the result nor the caller sets one.
const DefaultThreshold = 2.0

// PerformanceResult compares one benchmark id across two runs.
type PerformanceResult struct {
	ID            string   `json:"id" yaml:"id"`
	CurrAverageNs float64  `json:"currAverageNs" yaml:"currAverageNs"`
	PrevAverageNs *float64 `json:"prevAverageNs" yaml:"prevAverageNs"`

	// Ratio is curr/prev, nil when there is no previous result.
	Ratio      *float64 `json:"ratio" yaml:"ratio"`
	Threshold  float64  `json:"threshold" yaml:"threshold"`
	IsFailed   bool     `json:"isFailed" yaml:"isFailed"`
	IsImproved bool     `json:"isImproved" yaml:"isImproved"`
}

// PerformanceReport compares a run with the previous one.
type PerformanceReport struct {
	CurrCommitSha string              `json:"currCommitSha" yaml:"currCommitSha"`
	PrevCommitSha string              `json:"prevCommitSha,omitempty" yaml:"prevCommitSha,omitempty"`
	SomeFailed    bool                `json:"someFailed" yaml:"someFailed"`
	Results       []PerformanceResult `json:"results" yaml:"results"`
}

// NewPerformanceReport compares every result of curr with the result of the
// same id in prev. prev may be nil. threshold applies to results that do not
// carry their own.
func NewPerformanceReport(curr, prev *history.Benchmark, threshold float64) *PerformanceReport {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	report := &PerformanceReport{
		CurrCommitSha: curr.CommitSha,
		Results:       make([]PerformanceResult, 0, len(curr.Results)),
	}
	if prev != nil {
		report.PrevCommitSha = prev.CommitSha
	}

	for _, r := range curr.Results {
		res := PerformanceResult{
			ID:            r.ID,
			CurrAverageNs: r.AverageNs,
			Threshold:     threshold,
		}
		if r.Threshold != nil {
			res.Threshold = *r.Threshold
		}

		if prev != nil {
			if p := prev.Result(r.ID); p != nil && p.AverageNs > 0 {
				prevAvg := p.AverageNs
				ratio := r.AverageNs / prevAvg
				res.PrevAverageNs = &prevAvg
				res.Ratio = &ratio
				res.IsFailed = ratio > res.Threshold
				res.IsImproved = ratio < 1/res.Threshold
			}
		}

		if res.IsFailed {
			report.SomeFailed = true
		}
		report.Results = append(report.Results, res)
	}
	return report
}

// Failed returns the results that exceeded their threshold.
func (r *PerformanceReport) Failed() []PerformanceResult {
	var out []PerformanceResult
	for _, res := range r.Results {
		if res.IsFailed {
			out = append(out, res)
		}
	}
	return out
}

// ComparisonResult is one id of one target benchmark against the origin.
type ComparisonResult struct {
	OriginAverageNs *float64 `json:"originAverageNs" yaml:"originAverageNs"`
	TargetAverageNs *float64 `json:"targetAverageNs" yaml:"targetAverageNs"`
	Ratio           *float64 `json:"ratio" yaml:"ratio"`
	IsFailed        bool     `json:"isFailed" yaml:"isFailed"`
	IsImproved      bool     `json:"isImproved" yaml:"isImproved"`
}

// ComparisonReport compares one origin benchmark with any number of targets.
type ComparisonReport struct {
	CommitShas []string `json:"commitShas" yaml:"commitShas"`
	DirNames   []string `json:"dirNames" yaml:"dirNames"`
	SomeFailed bool     `json:"someFailed" yaml:"someFailed"`

	// IDs lists the origin ids in their original order.
	IDs []string `json:"ids" yaml:"ids"`

	// Results maps an id to one entry per benchmark. The first entry is the
	// origin itself.
	Results map[string][]ComparisonResult `json:"results" yaml:"results"`
}

// NewComparisonReport compares benchmarks[1:] with benchmarks[0]. Only ids
// present in the origin are reported.
func NewComparisonReport(threshold float64, benchmarks ...*history.Benchmark) *ComparisonReport {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	report := &ComparisonReport{Results: make(map[string][]ComparisonResult)}
	if len(benchmarks) == 0 {
		return report
	}

	for _, b := range benchmarks {
		report.CommitShas = append(report.CommitShas, b.CommitSha)
		report.DirNames = append(report.DirNames, b.DirName)
	}

	origin := benchmarks[0]
	for _, r := range origin.Results {
		avg := r.AverageNs
		one := 1.0
		report.IDs = append(report.IDs, r.ID)
		report.Results[r.ID] = []ComparisonResult{{OriginAverageNs: &avg, Ratio: &one}}
	}

	for _, target := range benchmarks[1:] {
		for _, r := range target.Results {
			list, ok := report.Results[r.ID]
			if !ok {
				continue
			}

			limit := threshold
			if r.Threshold != nil {
				limit = *r.Threshold
			}

			targetAvg := r.AverageNs
			res := ComparisonResult{TargetAverageNs: &targetAvg}
			if originAvg := *list[0].OriginAverageNs; originAvg > 0 {
				ratio := targetAvg / originAvg
				res.OriginAverageNs = list[0].OriginAverageNs
				res.Ratio = &ratio
				res.IsFailed = ratio > limit
				res.IsImproved = ratio < 1/limit
			}
			if res.IsFailed {
				report.SomeFailed = true
			}
			report.Results[r.ID] = append(list, res)
		}
	}
	return report
}
