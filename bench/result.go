package bench

import "github.com/wesleyorama2/settle/bench/metrics"

// Result is the outcome of one successful benchmark run.
type Result struct {
	ID string `json:"id" yaml:"id"`

	// AverageNs is the average time per call in nanoseconds, already divided
	// by RunsDivisor.
	AverageNs float64 `json:"averageNs" yaml:"averageNs"`
	Runs      int     `json:"runsDone" yaml:"runsDone"`
	TotalMs   int64   `json:"totalMs" yaml:"totalMs"`

	// Threshold is the slowdown ratio that fails a comparison against this
	// result. Nil means the comparison default applies.
	Threshold *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`

	Percentiles *metrics.Summary `json:"percentiles,omitempty" yaml:"percentiles,omitempty"`

	// Phases lists the engine's phase transitions with the run counters at
	// each one.
	Phases []metrics.PhaseChange `json:"phases,omitempty" yaml:"phases,omitempty"`
}
