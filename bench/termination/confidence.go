package termination

import (
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wesleyorama2/settle/bench/clock"
	"github.com/wesleyorama2/settle/bench/stats"
)

// confidenceLevel is the two-sided coverage of the interval.
const confidenceLevel = 0.95

// confidenceInterval stops once the half-width of the normal-approximation
// confidence interval around the mean drops below ConvergeFactor times the
// mean. It is an approximation and makes no claim of statistical rigour.
type confidenceInterval struct {
	gate
	logger     *slog.Logger
	interval   adaptiveInterval
	minSamples int
	z          float64
}

func newConfidenceInterval(start time.Time, cfg Config, clk clock.Clock) Strategy {
	return &confidenceInterval{
		gate:       gate{start: start, cfg: cfg, clk: clk},
		logger:     cfg.Logger,
		interval:   adaptiveInterval{every: min(maxSampleEvery, cfg.MinDuration), last: start},
		minSamples: max(cvMinSamples, cfg.MinRuns),
		z:          distuv.UnitNormal.Quantile(1 - (1-confidenceLevel)/2),
	}
}

func (c *confidenceInterval) Kind() Kind { return KindConfidenceInterval }

func (c *confidenceInterval) CanTerminate(runIndex int, _ stats.Int128, samples []int64) bool {
	now, mustStop, mayStop := c.check(runIndex)
	if mustStop {
		return true
	}
	if !mayStop || runIndex < c.minSamples || len(samples) == 0 {
		return false
	}
	if !c.interval.ready(now) {
		return false
	}

	mean, err := stats.Mean(samples)
	if err != nil || mean == 0 {
		return false
	}
	variance, err := stats.UnbiasedVariance(samples, mean)
	if err != nil {
		return false
	}

	sem := math.Sqrt(variance / float64(len(samples)))
	relative := math.Abs(c.z * sem / mean)

	c.logger.Debug("confidence interval check",
		"runs", runIndex,
		"relative_half_width", relative,
		"converge_factor", c.cfg.ConvergeFactor)

	return relative < c.cfg.ConvergeFactor
}
