package suite

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/wesleyorama2/settle/bench"
	"github.com/wesleyorama2/settle/bench/clock"
)

// LayerSource supplies option layers that sit between the built-in defaults
// and the suite's own scopes, typically from a configuration file.
type LayerSource interface {
	Layers(id string) []bench.Overrides
}

// Runner runs the benchmarks of a suite sequentially.
// A Runner must not run two suites at once.
type Runner struct {
	layers  LayerSource
	logger  *slog.Logger
	clock   clock.Clock
	sink    bench.SampleSink
	filter  []string
	skip    map[string]bool
	metrics *Metrics
	onDone  func(*bench.Result, error)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// NewRunner creates a runner with the given options.
//
// Example:
//
//	r := suite.NewRunner(
//	    suite.WithLayers(cfg),
//	    suite.WithLogger(logger),
//	    suite.WithSamplesDir("bench-samples"),
//	)
func NewRunner(options ...RunnerOption) *Runner {
	r := &Runner{
		logger:  slog.New(slog.DiscardHandler),
		clock:   clock.Real(),
		metrics: NewMetrics(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// WithLayers adds configuration layers below the suite scopes.
func WithLayers(src LayerSource) RunnerOption {
	return func(r *Runner) { r.layers = src }
}

// WithLogger sets the logger. Each benchmark logs with its id attached.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithClock replaces the real clock, for tests.
func WithClock(clk clock.Clock) RunnerOption {
	return func(r *Runner) { r.clock = clk }
}

// WithSamplesDir writes raw samples of every benchmark to dir.
// An empty dir disables sample output.
func WithSamplesDir(dir string) RunnerOption {
	return func(r *Runner) {
		if dir == "" {
			r.sink = nil
			return
		}
		r.sink = CSVSink{Dir: dir}
	}
}

// WithSampleSink sets a custom destination for raw samples.
func WithSampleSink(sink bench.SampleSink) RunnerOption {
	return func(r *Runner) { r.sink = sink }
}

// WithFilter restricts the run to ids matching any of the path.Match
// patterns. No patterns runs everything.
func WithFilter(patterns ...string) RunnerOption {
	return func(r *Runner) { r.filter = patterns }
}

// WithSkip skips the listed ids on top of the suite's own Skip entries.
func WithSkip(ids ...string) RunnerOption {
	return func(r *Runner) {
		r.skip = make(map[string]bool, len(ids))
		for _, id := range ids {
			r.skip[id] = true
		}
	}
}

// WithProgress calls fn after every benchmark.
func WithProgress(fn func(result *bench.Result, err error)) RunnerOption {
	return func(r *Runner) { r.onDone = fn }
}

// Metrics returns the runner's metrics.
func (r *Runner) Metrics() *Metrics { return r.metrics }

// Failure records a benchmark that returned an error.
type Failure struct {
	ID  string
	Err error
}

// Report is the outcome of one suite run.
type Report struct {
	RunID    string
	Results  []*bench.Result
	Failures []Failure
	Skipped  []string
}

// Err joins every benchmark failure, or returns nil.
func (rep *Report) Err() error {
	errs := make([]error, 0, len(rep.Failures))
	for _, f := range rep.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// Run executes the selected benchmarks of s in registration order. A
// failing benchmark is recorded and the next one runs; cancelling ctx stops
// the run and returns what completed so far.
//
// A benchmark that hits its hard timeout is abandoned, not stopped. Its
// function may still be executing while the next benchmark runs and skew
// that measurement. No samples are written for it.
//
// Returns a *bench.ConfigError, before anything runs, when s has duplicate ids.
func (r *Runner) Run(ctx context.Context, s *Suite) (*Report, error) {
	if err := s.Err(); err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString()}
	logger := r.logger.With("run_id", report.RunID)

	selected := make(map[*Entry]bool)
	for _, e := range s.Selected() {
		selected[e] = r.matches(e.ID)
	}

	logger.Info("suite started", "benchmarks", len(s.entries))
	for _, e := range s.entries {
		if !selected[e] {
			report.Skipped = append(report.Skipped, e.ID)
			r.metrics.observe(StatusSkipped, 0)
			logger.Debug("benchmark skipped", "benchmark", e.ID)
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		rc := bench.RunContext{
			ID:      e.ID,
			Options: bench.Merge(bench.DefaultOptions(), r.layersFor(e)...),
			Clock:   r.clock,
			Logger:  logger,
			Samples: r.sink,
		}

		started := r.clock.Now()
		result, err := e.run(ctx, rc)
		seconds := r.clock.Now().Sub(started).Seconds()

		if err != nil {
			report.Failures = append(report.Failures, Failure{ID: e.ID, Err: err})
			r.metrics.observe(StatusFailed, seconds)
			logger.Error("benchmark failed", "benchmark", e.ID, "scope", e.ScopePath(), "error", err)
		} else {
			report.Results = append(report.Results, result)
			r.metrics.observe(StatusOK, seconds)
			r.metrics.record(result.ID, result.AverageNs, result.Runs)
			logger.Info("benchmark finished",
				"benchmark", e.ID,
				"average", time.Duration(result.AverageNs),
				"runs", result.Runs,
				"total_ms", result.TotalMs)
		}

		if r.onDone != nil {
			r.onDone(result, err)
		}
	}

	logger.Info("suite finished",
		"passed", len(report.Results),
		"failed", len(report.Failures),
		"skipped", len(report.Skipped))

	return report, nil
}

// layersFor orders layers from the least to the most specific source.
func (r *Runner) layersFor(e *Entry) []bench.Overrides {
	var layers []bench.Overrides
	if r.layers != nil {
		layers = append(layers, r.layers.Layers(e.ID)...)
	}
	return append(layers, e.Layers...)
}

func (r *Runner) matches(id string) bool {
	if r.skip[id] {
		return false
	}
	if len(r.filter) == 0 {
		return true
	}
	for _, pattern := range r.filter {
		if ok, _ := path.Match(pattern, id); ok {
			return true
		}
	}
	return false
}
