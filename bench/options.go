package bench

import (
	"fmt"
	"math"
	"time"

	"github.com/wesleyorama2/settle/bench/termination"
)

const (
	// Unlimited disables the MaxRuns cap.
	Unlimited = math.MaxInt

	// NoDeadline disables the MaxDuration cap.
	NoDeadline = time.Duration(math.MaxInt64)
)

// Averaging selects how the final average is computed from the samples.
type Averaging string

const (
	// AveragingSimple divides the exact total by the run count.
	AveragingSimple Averaging = "simple"

	// AveragingCleanOutliers drops mild IQR outliers before averaging.
	AveragingCleanOutliers Averaging = "clean-outliers"
)

// Valid reports whether a names a known averaging mode.
func (a Averaging) Valid() bool {
	return a == AveragingSimple || a == AveragingCleanOutliers
}

// Options is the resolved configuration of one benchmark run.
//
// Options values are built with Merge and treated as immutable afterwards.
type Options struct {
	MaxRuns           int
	MinRuns           int
	MaxDuration       time.Duration
	MinDuration       time.Duration
	MaxWarmupDuration time.Duration
	MaxWarmupRuns     int

	// ConvergeFactor is the relative tolerance of the termination strategy,
	// in (0, 1].
	ConvergeFactor float64

	// RunsDivisor divides the reported average, for functions that repeat
	// their work internally.
	RunsDivisor int

	// YieldAfterEach calls runtime.Gosched after every timed call. The yield
	// is not part of the measured duration.
	YieldAfterEach bool

	// HardTimeout aborts the whole run. Zero disables it. See
	// EffectiveHardTimeout.
	HardTimeout time.Duration

	Termination termination.Kind
	Averaging   Averaging

	// WarmupBudgetRatio ends warm-up once this fraction of MaxDuration has
	// elapsed.
	WarmupBudgetRatio float64

	// Threshold is the slowdown ratio after which a comparison fails.
	Threshold   float64
	NoThreshold bool
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		MaxRuns:           Unlimited,
		MinRuns:           1,
		MaxDuration:       NoDeadline,
		MinDuration:       100 * time.Millisecond,
		MaxWarmupDuration: 500 * time.Millisecond,
		MaxWarmupRuns:     1000,
		ConvergeFactor:    0.005,
		RunsDivisor:       1,
		YieldAfterEach:    false,
		HardTimeout:       10 * time.Second,
		Termination:       termination.KindLinear,
		Averaging:         AveragingSimple,
		WarmupBudgetRatio: 0.5,
		Threshold:         2,
		NoThreshold:       false,
	}
}

// Overrides holds optional values for every knob of Options. A nil field
// leaves the underlying value alone.
type Overrides struct {
	MaxRuns           *int
	MinRuns           *int
	MaxDuration       *time.Duration
	MinDuration       *time.Duration
	MaxWarmupDuration *time.Duration
	MaxWarmupRuns     *int
	ConvergeFactor    *float64
	RunsDivisor       *int
	YieldAfterEach    *bool
	HardTimeout       *time.Duration
	Termination       *termination.Kind
	Averaging         *Averaging
	WarmupBudgetRatio *float64
	Threshold         *float64
	NoThreshold       *bool
}

// Ptr returns a pointer to v, for filling Overrides literals.
func Ptr[T any](v T) *T {
	return &v
}

// Merge overlays layers onto base in order; for every field the last layer
// that sets it wins.
func Merge(base Options, layers ...Overrides) Options {
	out := base
	for _, l := range layers {
		set(&out.MaxRuns, l.MaxRuns)
		set(&out.MinRuns, l.MinRuns)
		set(&out.MaxDuration, l.MaxDuration)
		set(&out.MinDuration, l.MinDuration)
		set(&out.MaxWarmupDuration, l.MaxWarmupDuration)
		set(&out.MaxWarmupRuns, l.MaxWarmupRuns)
		set(&out.ConvergeFactor, l.ConvergeFactor)
		set(&out.RunsDivisor, l.RunsDivisor)
		set(&out.YieldAfterEach, l.YieldAfterEach)
		set(&out.HardTimeout, l.HardTimeout)
		set(&out.Termination, l.Termination)
		set(&out.Averaging, l.Averaging)
		set(&out.WarmupBudgetRatio, l.WarmupBudgetRatio)
		set(&out.Threshold, l.Threshold)
		set(&out.NoThreshold, l.NoThreshold)
	}
	return out
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// WarmupEnabled reports whether the run has a warm-up phase.
func (o Options) WarmupEnabled() bool {
	return o.MaxWarmupDuration > 0 && o.MaxWarmupRuns > 0
}

// EffectiveHardTimeout returns HardTimeout raised to 1.5x MaxDuration, then
// to 1.5x MinDuration, whenever those bounds exceed it. Zero means no
// timeout.
func (o Options) EffectiveHardTimeout() time.Duration {
	timeout := o.HardTimeout
	if timeout <= 0 {
		return 0
	}
	if o.MaxDuration != NoDeadline && o.MaxDuration > timeout {
		timeout = scale(o.MaxDuration, 1.5)
	}
	if o.MinDuration > timeout {
		timeout = scale(o.MinDuration, 1.5)
	}
	return timeout
}

func scale(d time.Duration, f float64) time.Duration {
	v := float64(d) * f
	if v >= math.MaxInt64 {
		return NoDeadline
	}
	return time.Duration(v)
}

// ThresholdValue returns the comparison threshold recorded on results.
// NoThreshold maps to math.MaxFloat64, which no ratio can exceed.
func (o Options) ThresholdValue() float64 {
	if o.NoThreshold {
		return math.MaxFloat64
	}
	return o.Threshold
}

// Validate checks the options for consistency.
//
// Returns nil if valid, or a *ValidationErrors containing all problems.
func (o Options) Validate() error {
	errs := &ValidationErrors{}

	if o.MaxRuns < 1 {
		errs.Add("maxRuns", fmt.Sprintf("must be at least 1, got %d", o.MaxRuns))
	}
	if o.MinRuns < 0 {
		errs.Add("minRuns", fmt.Sprintf("must not be negative, got %d", o.MinRuns))
	}
	if o.MaxDuration < 0 {
		errs.Add("maxDuration", "must not be negative")
	}
	if o.MinDuration < 0 {
		errs.Add("minDuration", "must not be negative")
	}
	if o.MaxWarmupDuration < 0 {
		errs.Add("maxWarmupDuration", "must not be negative")
	}
	if o.MaxWarmupRuns < 0 {
		errs.Add("maxWarmupRuns", "must not be negative")
	}
	if o.ConvergeFactor <= 0 || o.ConvergeFactor > 1 || math.IsNaN(o.ConvergeFactor) {
		errs.Add("convergeFactor", fmt.Sprintf("must be in (0, 1], got %g", o.ConvergeFactor))
	}
	if o.RunsDivisor < 1 {
		errs.Add("runsDivisor", fmt.Sprintf("must be at least 1, got %d", o.RunsDivisor))
	}
	if o.HardTimeout < 0 {
		errs.Add("hardTimeout", "must not be negative")
	}
	if !o.Termination.Valid() {
		errs.Add("termination", fmt.Sprintf("unknown termination strategy: %q (valid: %v)", o.Termination, termination.Kinds()))
	}
	if !o.Averaging.Valid() {
		errs.Add("averaging", fmt.Sprintf("unknown averaging mode: %q (valid: %s, %s)", o.Averaging, AveragingSimple, AveragingCleanOutliers))
	}
	if o.WarmupBudgetRatio <= 0 || o.WarmupBudgetRatio > 1 || math.IsNaN(o.WarmupBudgetRatio) {
		errs.Add("warmupBudgetRatio", fmt.Sprintf("must be in (0, 1], got %g", o.WarmupBudgetRatio))
	}
	if !o.NoThreshold && (o.Threshold <= 0 || math.IsNaN(o.Threshold)) {
		errs.Add("threshold", fmt.Sprintf("must be positive, got %g", o.Threshold))
	}

	if o.MaxWarmupDuration >= o.MaxDuration {
		errs.Add("maxWarmupDuration", fmt.Sprintf("warm-up time must be lower than max run time (maxWarmupDuration: %s, maxDuration: %s)",
			o.MaxWarmupDuration, formatDuration(o.MaxDuration)))
	}
	if o.MaxWarmupRuns >= o.MaxRuns {
		errs.Add("maxWarmupRuns", fmt.Sprintf("warm-up runs must be lower than max runs (maxWarmupRuns: %d, maxRuns: %s)",
			o.MaxWarmupRuns, formatRuns(o.MaxRuns)))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func formatDuration(d time.Duration) string {
	if d == NoDeadline {
		return "unlimited"
	}
	return d.String()
}

func formatRuns(n int) string {
	if n == Unlimited {
		return "unlimited"
	}
	return fmt.Sprint(n)
}
