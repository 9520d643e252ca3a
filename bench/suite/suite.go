// Package suite groups benchmarks, layers their options and runs them one
// after another.
package suite

import (
	"context"
	"fmt"
	"strings"

	"github.com/wesleyorama2/settle/bench"
)

// BenchFunc runs one benchmark with a fully prepared context.
type BenchFunc func(ctx context.Context, rc bench.RunContext) (*bench.Result, error)

// Entry is a registered benchmark.
type Entry struct {
	ID string

	// Scope is the path of enclosing scope names, outermost first.
	Scope []string

	// Layers are the suite scope overrides followed by the per-call ones.
	Layers []bench.Overrides

	Skip bool
	Only bool

	run BenchFunc
}

// ScopePath joins Scope with "/".
func (e *Entry) ScopePath() string {
	return strings.Join(e.Scope, "/")
}

// Suite is an ordered set of benchmarks. The zero value is not usable; call
// New.
type Suite struct {
	entries []*Entry
	ids     map[string]bool
	dupes   []string

	scope  []string
	layers []bench.Overrides
}

// New returns an empty suite.
func New() *Suite {
	return &Suite{ids: make(map[string]bool)}
}

// Add registers fn under id.
func (s *Suite) Add(id string, fn func() error, layers ...bench.Overrides) {
	s.add(id, false, false, runFunc(fn), layers)
}

// Skip registers fn under id without running it.
func (s *Suite) Skip(id string, fn func() error, layers ...bench.Overrides) {
	s.add(id, true, false, runFunc(fn), layers)
}

// Only registers fn under id. When any benchmark is marked only, the others
// are skipped.
func (s *Suite) Only(id string, fn func() error, layers ...bench.Overrides) {
	s.add(id, false, true, runFunc(fn), layers)
}

// AddFunc registers a benchmark with fixtures and per-iteration hooks.
func AddFunc[T, S any](s *Suite, id string, spec bench.Func[T, S], layers ...bench.Overrides) {
	s.add(id, false, false, func(ctx context.Context, rc bench.RunContext) (*bench.Result, error) {
		return bench.Run(ctx, rc, spec)
	}, layers)
}

// Scope runs fn with a nested scope. Benchmarks added inside inherit
// overrides below their own.
func (s *Suite) Scope(name string, overrides bench.Overrides, fn func(s *Suite)) {
	prevScope, prevLayers := s.scope, s.layers
	s.scope = append(clone(s.scope), name)
	s.layers = append(clone(s.layers), overrides)
	defer func() { s.scope, s.layers = prevScope, prevLayers }()

	fn(s)
}

// Entries returns the registered benchmarks in registration order.
func (s *Suite) Entries() []*Entry {
	return clone(s.entries)
}

// Len returns the number of registered benchmarks.
func (s *Suite) Len() int { return len(s.entries) }

// Err reports duplicate ids as a *bench.ConfigError wrapping
// bench.ErrDuplicateID.
func (s *Suite) Err() error {
	if len(s.dupes) == 0 {
		return nil
	}
	return &bench.ConfigError{
		ID:  s.dupes[0],
		Err: fmt.Errorf("%w: %s", bench.ErrDuplicateID, strings.Join(s.dupes, ", ")),
	}
}

// Selected returns the entries that should run: the only-marked ones if any
// exist, otherwise every entry not marked skip.
func (s *Suite) Selected() []*Entry {
	var only, rest []*Entry
	for _, e := range s.entries {
		switch {
		case e.Only:
			only = append(only, e)
		case !e.Skip:
			rest = append(rest, e)
		}
	}
	if len(only) > 0 {
		return only
	}
	return rest
}

func (s *Suite) add(id string, skip, only bool, run BenchFunc, layers []bench.Overrides) {
	if s.ids[id] {
		s.dupes = append(s.dupes, id)
		return
	}
	s.ids[id] = true

	s.entries = append(s.entries, &Entry{
		ID:     id,
		Scope:  clone(s.scope),
		Layers: append(clone(s.layers), layers...),
		Skip:   skip,
		Only:   only,
		run:    run,
	})
}

func runFunc(fn func() error) BenchFunc {
	return func(ctx context.Context, rc bench.RunContext) (*bench.Result, error) {
		return bench.RunFunc(ctx, rc, fn)
	}
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T(nil), s...)
}
