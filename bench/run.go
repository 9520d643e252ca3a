// Package bench runs a function repeatedly until its average call duration
// can be trusted.
//
// A run moves through four phases: init, warm-up, measuring and done. Warm-up
// calls are timed but discarded. Every measured call is appended to the run
// history, and the configured termination strategy decides after each one
// whether to stop. Hard caps on runs and elapsed time are checked before
// every iteration, so no strategy can overrun them.
package bench

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/wesleyorama2/settle/bench/metrics"
	"github.com/wesleyorama2/settle/bench/stats"
	"github.com/wesleyorama2/settle/bench/termination"
)

// Func describes the function under test and its optional hooks.
//
// Before runs once and produces a fixture S shared by every iteration.
// BeforeEach runs before every iteration, outside the timed region, and
// produces the input T of that call. Its run argument is the number of
// measured calls completed so far, so it stays 0 for every warm-up call.
// Errors returned by any of the three are
// returned from Run unchanged.
type Func[T, S any] struct {
	Fn         func(input T) error
	Before     func() (S, error)
	BeforeEach func(fixture S, run int) (T, error)
}

// RunFunc benchmarks a function without fixtures.
func RunFunc(ctx context.Context, rc RunContext, fn func() error) (*Result, error) {
	return Run(ctx, rc, Func[struct{}, struct{}]{
		Fn: func(struct{}) error { return fn() },
	})
}

// Run benchmarks spec.Fn and blocks until the run completes.
//
// When the effective hard timeout elapses first, Run returns a
// *HardTimeoutError immediately. The benchmark goroutine is cancelled and
// exits at its next iteration boundary, which may be after Run has returned
// if the current call blocks. Samples are only written for runs that
// complete before the timeout.
func Run[T, S any](ctx context.Context, rc RunContext, spec Func[T, S]) (*Result, error) {
	rc = rc.withDefaults()

	if spec.Fn == nil {
		return nil, &ConfigError{ID: rc.ID, Err: fmt.Errorf("no function to benchmark")}
	}
	if err := rc.Options.Validate(); err != nil {
		return nil, &ConfigError{ID: rc.ID, Err: err}
	}

	r := &runner[T, S]{rc: rc, spec: spec}

	timeout := rc.Options.EffectiveHardTimeout()
	if timeout <= 0 {
		res, samples, err := r.run(ctx)
		if err != nil {
			return nil, err
		}
		r.writeSamples(samples)
		return res, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		result  *Result
		samples []int64
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		res, samples, err := r.run(ctx)
		done <- outcome{result: res, samples: samples, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-done:
		if o.err != nil {
			return nil, o.err
		}
		r.writeSamples(o.samples)
		return o.result, nil
	case <-timer.C:
		rc.Logger.Warn("hard timeout exceeded", "timeout", timeout)
		return nil, &HardTimeoutError{ID: rc.ID, Timeout: timeout}
	}
}

type runner[T, S any] struct {
	rc   RunContext
	spec Func[T, S]
}

func (r *runner[T, S]) writeSamples(samples []int64) {
	if r.rc.Samples == nil {
		return
	}
	if err := r.rc.Samples.WriteSamples(r.rc.ID, samples); err != nil {
		r.rc.Logger.Warn("failed to write samples", "error", err)
	}
}

// run returns the measured samples alongside the result so that Run can
// persist them only once the outcome is accepted.
func (r *runner[T, S]) run(ctx context.Context) (*Result, []int64, error) {
	opts := r.rc.Options
	clk := r.rc.Clock
	logger := r.rc.Logger

	start := clk.Now()
	strategy, err := termination.New(opts.Termination, start, termination.Config{
		MaxRuns:        opts.MaxRuns,
		MinRuns:        opts.MinRuns,
		MaxDuration:    opts.MaxDuration,
		MinDuration:    opts.MinDuration,
		ConvergeFactor: opts.ConvergeFactor,
		Logger:         logger,
	}, clk)
	if err != nil {
		return nil, nil, &ConfigError{ID: r.rc.ID, Err: err}
	}

	recorder := metrics.NewRecorder(clk)
	logger.Debug("benchmark started", "termination", opts.Termination, "averaging", opts.Averaging)

	var fixture S
	if r.spec.Before != nil {
		logger.Debug("running before hook")
		if fixture, err = r.spec.Before(); err != nil {
			return nil, nil, err
		}
	}

	warming := opts.WarmupEnabled()
	if warming {
		recorder.SetPhase(metrics.PhaseWarmup)
	} else {
		recorder.SetPhase(metrics.PhaseMeasuring)
	}

	var (
		history    RunHistory
		warmupNs   int64
		warmupRuns int
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("benchmark %q interrupted: %w", r.rc.ID, err)
		}

		elapsed := clk.Now().Sub(start)
		if elapsed >= opts.MaxDuration || history.Len() >= opts.MaxRuns {
			break
		}

		var input T
		if r.spec.BeforeEach != nil {
			if input, err = r.spec.BeforeEach(fixture, history.Len()); err != nil {
				return nil, nil, err
			}
		}

		t0 := clk.Nanotime()
		callErr := r.spec.Fn(input)
		ns := clk.Nanotime() - t0
		if callErr != nil {
			return nil, nil, callErr
		}

		if opts.YieldAfterEach {
			runtime.Gosched()
		}

		if warming {
			warmupRuns++
			warmupNs += ns
			recorder.RecordWarmup()

			if warmupNs >= int64(opts.MaxWarmupDuration) ||
				warmupRuns >= opts.MaxWarmupRuns ||
				float64(elapsed)/float64(opts.MaxDuration) >= opts.WarmupBudgetRatio {
				warming = false
				recorder.SetPhase(metrics.PhaseMeasuring)
				logger.Debug("warm-up finished", "warmup_runs", warmupRuns, "warmup_ns", warmupNs)
			}
			continue
		}

		history.Append(ns)
		recorder.RecordSample(ns)

		if strategy.CanTerminate(history.Len(), history.Total(), history.Samples()) {
			break
		}
	}

	recorder.SetPhase(metrics.PhaseDone)

	if history.Len() == 0 {
		return nil, nil, &NoProgressError{ID: r.rc.ID, MaxDuration: opts.MaxDuration, WarmupRuns: warmupRuns}
	}

	average := averageNs(opts.Averaging, &history) / float64(opts.RunsDivisor)
	threshold := opts.ThresholdValue()
	summary := recorder.Summary()

	result := &Result{
		ID:          r.rc.ID,
		AverageNs:   average,
		Runs:        history.Len(),
		TotalMs:     clk.Now().Sub(start).Milliseconds(),
		Threshold:   &threshold,
		Percentiles: &summary,
		Phases:      recorder.PhaseHistory(),
	}

	logger.Debug("benchmark finished",
		"runs", result.Runs,
		"warmup_runs", warmupRuns,
		"average_ns", result.AverageNs,
		"total_ms", result.TotalMs)

	return result, history.Samples(), nil
}

func averageNs(mode Averaging, h *RunHistory) float64 {
	if mode == AveragingCleanOutliers {
		clean := stats.FilterOutliers(h.Samples(), false, stats.Mild)
		// Filtering never empties a non-empty sample: the quartiles lie
		// inside the bounds.
		total, _ := stats.Sum(clean)
		return total.Quo(int64(len(clean)))
	}
	return h.Total().Quo(int64(h.Len()))
}
