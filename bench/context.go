package bench

import (
	"log/slog"

	"github.com/wesleyorama2/settle/bench/clock"
)

// SampleSink receives the measured samples of a successful run, for callers
// that persist raw data.
type SampleSink interface {
	WriteSamples(id string, samples []int64) error
}

// RunContext carries everything one benchmark invocation needs. It is built
// once per invocation and passed down explicitly.
type RunContext struct {
	ID      string
	Options Options

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to a logger that discards everything.
	Logger *slog.Logger

	// Samples is optional.
	Samples SampleSink
}

// NewRunContext returns a context with DefaultOptions overlaid by layers.
func NewRunContext(id string, layers ...Overrides) RunContext {
	return RunContext{
		ID:      id,
		Options: Merge(DefaultOptions(), layers...),
	}
}

func (rc RunContext) withDefaults() RunContext {
	if rc.Clock == nil {
		rc.Clock = clock.Real()
	}
	if rc.Logger == nil {
		rc.Logger = slog.New(slog.DiscardHandler)
	}
	rc.Logger = rc.Logger.With("benchmark", rc.ID)
	return rc
}
