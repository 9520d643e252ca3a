// Package termination decides, from a growing history of samples, when a
// benchmark has collected enough runs.
//
// Every strategy shares the same outer contract:
//
//   - it must stop once the elapsed time reaches MaxDuration or the run
//     count reaches MaxRuns, whatever the samples look like;
//   - it must not stop before both MinDuration and MinRuns are reached.
//
// Between those two gates each strategy applies its own convergence test.
// A strategy instance keeps private state across calls and belongs to exactly
// one benchmark run; create a fresh one with New for every run.
package termination

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/wesleyorama2/settle/bench/clock"
	"github.com/wesleyorama2/settle/bench/stats"
)

// Kind identifies a termination strategy.
type Kind string

const (
	// KindLinear watches the cumulative average settle between checks.
	KindLinear Kind = "linear"

	// KindCV stops once the coefficient of variation of the cleaned samples
	// is small enough.
	KindCV Kind = "cv"

	// KindConfidenceInterval stops once the approximate 95% confidence
	// interval of the mean is narrow enough.
	KindConfidenceInterval Kind = "confidence-interval"
)

// Config holds the bounds shared by all strategies.
type Config struct {
	MaxRuns        int
	MinRuns        int
	MaxDuration    time.Duration
	MinDuration    time.Duration
	ConvergeFactor float64

	// Logger receives debug records for every evaluated check. Optional.
	Logger *slog.Logger
}

// Strategy answers "stop now?" after each measured run.
//
// CanTerminate receives the number of measured runs so far, their exact
// total in nanoseconds and every sample recorded so far. Implementations
// must treat samples as read-only.
type Strategy interface {
	Kind() Kind
	CanTerminate(runIndex int, total stats.Int128, samples []int64) bool
}

// Constructor builds a strategy bound to the benchmark start time.
type Constructor func(start time.Time, cfg Config, clk clock.Clock) Strategy

var constructors = map[Kind]Constructor{
	KindLinear:             newLinear,
	KindCV:                 newCV,
	KindConfidenceInterval: newConfidenceInterval,
}

// New creates a strategy of the given kind.
//
// Returns an error for an unknown kind.
func New(kind Kind, start time.Time, cfg Config, clk clock.Clock) (Strategy, error) {
	ctor, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("unknown termination strategy: %q (valid: %v)", kind, Kinds())
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return ctor(start, cfg, clk), nil
}

// Kinds returns all known strategy kinds in a stable order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(constructors))
	for k := range constructors {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Valid reports whether k names a known strategy.
func (k Kind) Valid() bool {
	_, ok := constructors[k]
	return ok
}

// gate evaluates the hard and soft bounds common to every strategy.
type gate struct {
	start time.Time
	cfg   Config
	clk   clock.Clock
}

func (g gate) check(runIndex int) (now time.Time, mustStop, mayStop bool) {
	now = g.clk.Now()
	elapsed := now.Sub(g.start)
	mustStop = elapsed >= g.cfg.MaxDuration || runIndex >= g.cfg.MaxRuns
	mayStop = elapsed >= g.cfg.MinDuration && runIndex >= g.cfg.MinRuns
	return now, mustStop, mayStop
}

// adaptiveInterval throttles expensive checks. When calls keep arriving in
// less than half the interval, the interval shrinks by 10% so that fast
// benchmarks get evaluated more often.
type adaptiveInterval struct {
	every time.Duration
	last  time.Time
}

func (a *adaptiveInterval) ready(now time.Time) bool {
	since := now.Sub(a.last)
	if since < a.every {
		if a.every > 2*time.Millisecond && a.every/2 > since {
			a.every -= a.every / 10
		}
		return false
	}
	a.last = now
	return true
}
