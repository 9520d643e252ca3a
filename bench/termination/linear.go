package termination

import (
	"log/slog"
	"math"
	"time"

	"github.com/wesleyorama2/settle/bench/clock"
	"github.com/wesleyorama2/settle/bench/stats"
)

// linearSampleEvery is the minimum wall time between two convergence checks.
const linearSampleEvery = 100 * time.Millisecond

// linear compares the current cumulative average with the two previous
// checks. The first-order term catches drift, the second-order term catches
// an average that is still bending.
type linear struct {
	gate
	logger *slog.Logger

	prevAvg0  float64
	prevAvg1  float64
	lastCheck time.Time
}

func newLinear(start time.Time, cfg Config, clk clock.Clock) Strategy {
	return &linear{
		gate:      gate{start: start, cfg: cfg, clk: clk},
		logger:    cfg.Logger,
		lastCheck: start,
	}
}

func (l *linear) Kind() Kind { return KindLinear }

func (l *linear) CanTerminate(runIndex int, total stats.Int128, _ []int64) bool {
	now, mustStop, mayStop := l.check(runIndex)
	if mustStop {
		return true
	}
	if runIndex <= 0 || now.Sub(l.lastCheck) <= linearSampleEvery {
		return false
	}
	l.lastCheck = now

	avg := total.Quo(int64(runIndex))
	a, b, c := l.prevAvg0, l.prevAvg1, avg

	// a == 0 until two checks have shifted a real average into place.
	if mayStop && a != 0 {
		linearDelta := math.Abs(c - a)
		quadraticDelta := math.Abs(b - (a+c)/2)
		convergence := math.Max(linearDelta, quadraticDelta) / a

		l.logger.Debug("linear convergence check",
			"runs", runIndex,
			"convergence", convergence,
			"converge_factor", l.cfg.ConvergeFactor)

		if convergence < l.cfg.ConvergeFactor {
			return true
		}
	}

	l.prevAvg0 = l.prevAvg1
	l.prevAvg1 = avg
	return false
}
