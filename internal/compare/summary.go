package compare

import (
	"fmt"

	"github.com/wesleyorama2/settle/bench/stats"
)

// SampleSummary describes one raw sample set, in nanoseconds.
type SampleSummary struct {
	Count    int     `json:"count" yaml:"count"`
	Mean     float64 `json:"mean" yaml:"mean"`
	Median   float64 `json:"median" yaml:"median"`
	Q1       float64 `json:"q1" yaml:"q1"`
	Q3       float64 `json:"q3" yaml:"q3"`
	StdDev   float64 `json:"stdDev" yaml:"stdDev"`
	CV       float64 `json:"cv" yaml:"cv"`
	Min      int64   `json:"min" yaml:"min"`
	Max      int64   `json:"max" yaml:"max"`
	Outliers int     `json:"outliers" yaml:"outliers"`

	// CleanMean is the mean once mild outliers are removed.
	CleanMean float64 `json:"cleanMean" yaml:"cleanMean"`
}

// Summarize computes descriptive statistics of samples.
func Summarize(samples []int64) (*SampleSummary, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples")
	}

	sorted := stats.SortAscending(samples)
	out := &SampleSummary{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}

	var err error
	if out.Mean, err = stats.Mean(sorted); err != nil {
		return nil, err
	}
	if out.Median, err = stats.Median(sorted, true); err != nil {
		return nil, err
	}
	if out.Q1, err = stats.Quartile(sorted, true, 0.25); err != nil {
		return nil, err
	}
	if out.Q3, err = stats.Quartile(sorted, true, 0.75); err != nil {
		return nil, err
	}
	if out.StdDev, err = stats.StdDev(sorted); err != nil {
		return nil, err
	}
	if out.Mean != 0 {
		out.CV = out.StdDev / out.Mean
	}

	clean := stats.FilterOutliers(sorted, true, stats.Mild)
	out.Outliers = len(sorted) - len(clean)
	if out.CleanMean, err = stats.Mean(clean); err != nil {
		return nil, err
	}
	return out, nil
}
