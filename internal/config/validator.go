package config

import (
	"fmt"
	"path"

	"github.com/wesleyorama2/settle/bench"
)

// Validate validates the entire configuration.
//
// Option layers are checked the way the engine will see them: defaults on
// top of the built-in defaults, every scope on top of defaults, every
// benchmark with all the layers that apply to it.
//
// Returns nil if valid, or a *bench.ValidationErrors containing all problems.
func (c *Config) Validate() error {
	errs := &bench.ValidationErrors{}

	validateLayers("defaults", errs, c.Defaults)

	seenScopes := make(map[string]bool)
	for i, scope := range c.Scopes {
		prefix := fmt.Sprintf("scopes[%d]", i)
		if scope.Name == "" {
			errs.Add(prefix+".name", "scope name is required")
		} else if seenScopes[scope.Name] {
			errs.Add(prefix+".name", fmt.Sprintf("duplicate scope name: %s", scope.Name))
		}
		seenScopes[scope.Name] = true

		if _, err := path.Match(scope.Match, ""); err != nil {
			errs.Add(prefix+".match", fmt.Sprintf("invalid pattern %q: %v", scope.Match, err))
		}
		validateLayers(prefix, errs, c.Defaults, scope.OverridesConfig)
	}

	seenIDs := make(map[string]bool)
	for i, b := range c.Benchmarks {
		prefix := fmt.Sprintf("benchmarks[%d]", i)
		if b.ID == "" {
			errs.Add(prefix+".id", "benchmark id is required")
			continue
		}
		if seenIDs[b.ID] {
			errs.Add(prefix+".id", fmt.Sprintf("duplicate benchmark id: %s", b.ID))
		}
		seenIDs[b.ID] = true

		validateOptions(prefix, errs, c.Layers(b.ID)...)
	}

	validateHistory(&c.History, errs)

	if c.Compare.Threshold < 0 {
		errs.Add("compare.threshold", "must not be negative")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Layers returns the option layers that apply to id, outermost first:
// defaults, matching scopes in file order, then the benchmark entry.
func (c *Config) Layers(id string) []bench.Overrides {
	layers := []bench.Overrides{c.Defaults.ToOverrides()}
	for _, scope := range c.Scopes {
		if scope.Matches(id) {
			layers = append(layers, scope.ToOverrides())
		}
	}
	if b, ok := c.Benchmark(id); ok {
		layers = append(layers, b.ToOverrides())
	}
	return layers
}

// Benchmark returns the entry for id, if any.
func (c *Config) Benchmark(id string) (BenchmarkConfig, bool) {
	for _, b := range c.Benchmarks {
		if b.ID == id {
			return b, true
		}
	}
	return BenchmarkConfig{}, false
}

// Matches reports whether the scope applies to id.
func (s ScopeConfig) Matches(id string) bool {
	if s.Match == "" {
		return true
	}
	ok, err := path.Match(s.Match, id)
	return err == nil && ok
}

func validateLayers(prefix string, errs *bench.ValidationErrors, layers ...OverridesConfig) {
	overrides := make([]bench.Overrides, len(layers))
	for i, l := range layers {
		overrides[i] = l.ToOverrides()
	}
	validateOptions(prefix, errs, overrides...)
}

func validateOptions(prefix string, errs *bench.ValidationErrors, layers ...bench.Overrides) {
	opts := bench.Merge(bench.DefaultOptions(), layers...)
	if err := opts.Validate(); err != nil {
		if verrs, ok := err.(*bench.ValidationErrors); ok {
			errs.Merge(prefix, verrs)
			return
		}
		errs.Add(prefix, err.Error())
	}
}

func validateHistory(h *HistoryConfig, errs *bench.ValidationErrors) {
	switch h.Provider {
	case "":
		// History disabled
	case "local":
		// Path defaults in ApplyDefaults
	case "gcs":
		if h.Bucket == "" {
			errs.Add("history.bucket", "bucket is required for the gcs provider")
		}
	default:
		errs.Add("history.provider", fmt.Sprintf("unknown history provider: %s", h.Provider))
	}

	if h.BenchmarksPerBranch < 0 {
		errs.Add("history.benchmarksPerBranch", "must not be negative")
	}
}
