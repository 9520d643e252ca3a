package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/wesleyorama2/settle/bench/clock"
)

// Phase is the lifecycle stage of a single benchmark run.
type Phase string

const (
	PhaseInit      Phase = "init"
	PhaseWarmup    Phase = "warmup"
	PhaseMeasuring Phase = "measuring"
	PhaseDone      Phase = "done"
)

// Recorder collects the measured samples of one benchmark run in an HDR
// histogram and tracks which phase the run is in.
//
// Key features:
//   - HDR histogram for percentiles without keeping a sorted copy
//   - Warm-up calls are counted but never enter the histogram
//   - Phase history with the run counters at every transition
//
// # Thread Safety
//
// Recorder is safe for concurrent use. The engine writes from the benchmark
// goroutine while callers may read a Summary from elsewhere.
type Recorder struct {
	// Range: 1 nanosecond to 1 hour, 3 significant figures
	hist   *hdrhistogram.Histogram
	histMu sync.Mutex

	warmupRuns  int64
	clampedRuns int64

	currentPhase Phase
	phaseMu      sync.RWMutex
	phaseHistory []PhaseChange

	clk    clock.Clock
	config RecorderConfig
}

// RecorderConfig contains configuration for the recorder histogram.
type RecorderConfig struct {
	// HistogramMin is the minimum recordable value in nanoseconds (default: 1)
	HistogramMin int64

	// HistogramMax is the maximum recordable value in nanoseconds (default: 1 hour)
	HistogramMax int64

	// HistogramSigFigs is the number of significant figures (default: 3)
	HistogramSigFigs int
}

// DefaultRecorderConfig returns the default configuration.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		HistogramMin:     1,
		HistogramMax:     int64(time.Hour),
		HistogramSigFigs: 3,
	}
}

// PhaseChange records when a phase transition occurred.
type PhaseChange struct {
	Phase      Phase     `json:"phase" yaml:"phase"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	WarmupRuns int64     `json:"warmupRuns" yaml:"warmupRuns"`
	Runs       int64     `json:"runs" yaml:"runs"`
}

// NewRecorder creates a recorder with the default histogram configuration.
func NewRecorder(clk clock.Clock) *Recorder {
	return NewRecorderWithConfig(DefaultRecorderConfig(), clk)
}

// NewRecorderWithConfig creates a recorder with a custom histogram configuration.
func NewRecorderWithConfig(config RecorderConfig, clk clock.Clock) *Recorder {
	return &Recorder{
		hist:         hdrhistogram.New(config.HistogramMin, config.HistogramMax, config.HistogramSigFigs),
		currentPhase: PhaseInit,
		phaseHistory: make([]PhaseChange, 0, 4),
		clk:          clk,
		config:       config,
	}
}

// RecordWarmup counts one discarded warm-up call.
func (r *Recorder) RecordWarmup() {
	r.histMu.Lock()
	r.warmupRuns++
	r.histMu.Unlock()
}

// RecordSample records one measured call duration in nanoseconds.
//
// Values outside the histogram range are clamped and counted separately so
// that a Summary can flag a distorted tail.
func (r *Recorder) RecordSample(ns int64) {
	clamped := false
	if ns < r.config.HistogramMin {
		ns, clamped = r.config.HistogramMin, true
	}
	if ns > r.config.HistogramMax {
		ns, clamped = r.config.HistogramMax, true
	}

	r.histMu.Lock()
	defer r.histMu.Unlock()

	// RecordValue only fails for out-of-range values, which were clamped above.
	_ = r.hist.RecordValue(ns)
	if clamped {
		r.clampedRuns++
	}
}

// SetPhase updates the current phase. Setting the current phase again is a
// no-op and does not add a history entry.
func (r *Recorder) SetPhase(phase Phase) {
	r.phaseMu.Lock()
	defer r.phaseMu.Unlock()

	if r.currentPhase == phase {
		return
	}

	r.histMu.Lock()
	warmup, runs := r.warmupRuns, r.hist.TotalCount()
	r.histMu.Unlock()

	r.currentPhase = phase
	r.phaseHistory = append(r.phaseHistory, PhaseChange{
		Phase:      phase,
		Timestamp:  r.clk.Now(),
		WarmupRuns: warmup,
		Runs:       runs,
	})
}

// PhaseHistory returns a copy of the phase transitions so far.
func (r *Recorder) PhaseHistory() []PhaseChange {
	r.phaseMu.RLock()
	defer r.phaseMu.RUnlock()

	result := make([]PhaseChange, len(r.phaseHistory))
	copy(result, r.phaseHistory)
	return result
}

// Summary returns a point-in-time view of the measured distribution.
func (r *Recorder) Summary() Summary {
	r.histMu.Lock()
	defer r.histMu.Unlock()

	if r.hist.TotalCount() == 0 {
		return Summary{WarmupRuns: r.warmupRuns}
	}

	return Summary{
		Min:        time.Duration(r.hist.Min()),
		Max:        time.Duration(r.hist.Max()),
		Mean:       time.Duration(r.hist.Mean()),
		StdDev:     time.Duration(r.hist.StdDev()),
		P50:        time.Duration(r.hist.ValueAtQuantile(50)),
		P90:        time.Duration(r.hist.ValueAtQuantile(90)),
		P95:        time.Duration(r.hist.ValueAtQuantile(95)),
		P99:        time.Duration(r.hist.ValueAtQuantile(99)),
		Count:      r.hist.TotalCount(),
		WarmupRuns: r.warmupRuns,
		Clamped:    r.clampedRuns,
	}
}

// Summary describes the measured sample distribution. Values carry the
// histogram's precision, so they can differ from exact statistics by up to
// one part in a thousand.
type Summary struct {
	Min        time.Duration `json:"min" yaml:"min"`
	Max        time.Duration `json:"max" yaml:"max"`
	Mean       time.Duration `json:"mean" yaml:"mean"`
	StdDev     time.Duration `json:"stdDev" yaml:"stdDev"`
	P50        time.Duration `json:"p50" yaml:"p50"`
	P90        time.Duration `json:"p90" yaml:"p90"`
	P95        time.Duration `json:"p95" yaml:"p95"`
	P99        time.Duration `json:"p99" yaml:"p99"`
	Count      int64         `json:"count" yaml:"count"`
	WarmupRuns int64         `json:"warmupRuns" yaml:"warmupRuns"`
	Clamped    int64         `json:"clamped,omitempty" yaml:"clamped,omitempty"`
}
