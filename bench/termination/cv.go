package termination

import (
	"log/slog"
	"math"
	"time"

	"github.com/wesleyorama2/settle/bench/clock"
	"github.com/wesleyorama2/settle/bench/stats"
)

const (
	// cvMinSamples is the floor below which the CV is not trusted.
	cvMinSamples = 5

	// cvMaxSamples is the run count after which the CV test gives way to
	// the median/mean comparison. Multi-modal or heavy-tailed timings can
	// keep the CV from ever stabilizing.
	cvMaxSamples = 1000

	// maxSampleEvery caps the initial interval between checks.
	maxSampleEvery = 100 * time.Millisecond
)

// cv stops when the spread of the outlier-cleaned samples relative to their
// mean is below the convergence factor.
type cv struct {
	gate
	logger     *slog.Logger
	interval   adaptiveInterval
	minSamples int
}

func newCV(start time.Time, cfg Config, clk clock.Clock) Strategy {
	return &cv{
		gate:       gate{start: start, cfg: cfg, clk: clk},
		logger:     cfg.Logger,
		interval:   adaptiveInterval{every: min(maxSampleEvery, cfg.MinDuration), last: start},
		minSamples: max(cvMinSamples, cfg.MinRuns),
	}
}

func (c *cv) Kind() Kind { return KindCV }

func (c *cv) CanTerminate(runIndex int, _ stats.Int128, samples []int64) bool {
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

	clean := stats.FilterOutliers(stats.SortAscending(samples), true, stats.Mild)
	mean, err := stats.Mean(clean)
	if err != nil || mean == 0 {
		return false
	}

	if len(samples) > cvMaxSamples {
		median, err := stats.Median(clean, true)
		if err != nil || median == 0 {
			return false
		}
		medianFactor := math.Abs(mean-median) / median

		c.logger.Debug("median convergence check",
			"runs", runIndex,
			"median_factor", medianFactor,
			"converge_factor", c.cfg.ConvergeFactor)

		return medianFactor < c.cfg.ConvergeFactor
	}

	variance, err := stats.Variance(clean, mean)
	if err != nil {
		return false
	}
	coeff := math.Sqrt(variance) / mean

	c.logger.Debug("cv convergence check",
		"runs", runIndex,
		"cv", coeff,
		"outliers", len(samples)-len(clean),
		"converge_factor", c.cfg.ConvergeFactor)

	return coeff < c.cfg.ConvergeFactor
}
