// Package config loads and validates settle configuration files.
package config

import (
	"time"

	"github.com/wesleyorama2/settle/bench"
	"github.com/wesleyorama2/settle/bench/termination"
)

// Config is the root of a settle configuration file.
//
// Example YAML:
//
//	defaults:
//	  minDuration: 200ms
//	  termination: cv
//	scopes:
//	  - name: slow
//	    match: "sleep-*"
//	    maxDuration: 5s
//	benchmarks:
//	  - id: sha256-1KiB
//	    runsDivisor: 1
//	history:
//	  provider: local
//	  path: .settle
//	  branch: main
//	compare:
//	  branch: main
//	  threshold: 1.5
//	output:
//	  samplesDir: .settle/samples
type Config struct {
	// Defaults apply to every benchmark, on top of the built-in defaults.
	Defaults OverridesConfig `json:"defaults,omitempty" yaml:"defaults,omitempty"`

	// Scopes apply in file order to benchmarks whose id matches.
	Scopes []ScopeConfig `json:"scopes,omitempty" yaml:"scopes,omitempty"`

	// Benchmarks selects catalog benchmarks. Empty means all of them.
	Benchmarks []BenchmarkConfig `json:"benchmarks,omitempty" yaml:"benchmarks,omitempty"`

	History HistoryConfig `json:"history,omitempty" yaml:"history,omitempty"`
	Compare CompareConfig `json:"compare,omitempty" yaml:"compare,omitempty"`
	Output  OutputConfig  `json:"output,omitempty" yaml:"output,omitempty"`
}

// OverridesConfig is the file form of bench.Overrides. Unset fields keep the
// value of the layer below.
type OverridesConfig struct {
	MaxRuns           *int      `json:"maxRuns,omitempty" yaml:"maxRuns,omitempty"`
	MinRuns           *int      `json:"minRuns,omitempty" yaml:"minRuns,omitempty"`
	MaxDuration       *Duration `json:"maxDuration,omitempty" yaml:"maxDuration,omitempty"`
	MinDuration       *Duration `json:"minDuration,omitempty" yaml:"minDuration,omitempty"`
	MaxWarmupDuration *Duration `json:"maxWarmupDuration,omitempty" yaml:"maxWarmupDuration,omitempty"`
	MaxWarmupRuns     *int      `json:"maxWarmupRuns,omitempty" yaml:"maxWarmupRuns,omitempty"`
	ConvergeFactor    *float64  `json:"convergeFactor,omitempty" yaml:"convergeFactor,omitempty"`
	RunsDivisor       *int      `json:"runsDivisor,omitempty" yaml:"runsDivisor,omitempty"`
	YieldAfterEach    *bool     `json:"yieldAfterEach,omitempty" yaml:"yieldAfterEach,omitempty"`
	HardTimeout       *Duration `json:"hardTimeout,omitempty" yaml:"hardTimeout,omitempty"`
	Termination       *string   `json:"termination,omitempty" yaml:"termination,omitempty"`
	Averaging         *string   `json:"averaging,omitempty" yaml:"averaging,omitempty"`
	WarmupBudgetRatio *float64  `json:"warmupBudgetRatio,omitempty" yaml:"warmupBudgetRatio,omitempty"`
	Threshold         *float64  `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	NoThreshold       *bool     `json:"noThreshold,omitempty" yaml:"noThreshold,omitempty"`
}

// ScopeConfig applies overrides to every benchmark id matching a glob.
type ScopeConfig struct {
	Name string `json:"name" yaml:"name"`

	// Match is a path.Match pattern. Empty matches every benchmark.
	Match string `json:"match,omitempty" yaml:"match,omitempty"`

	OverridesConfig `json:",inline" yaml:",inline"`
}

// BenchmarkConfig selects one catalog benchmark.
type BenchmarkConfig struct {
	ID   string `json:"id" yaml:"id"`
	Skip bool   `json:"skip,omitempty" yaml:"skip,omitempty"`
	Only bool   `json:"only,omitempty" yaml:"only,omitempty"`

	OverridesConfig `json:",inline" yaml:",inline"`
}

// HistoryConfig selects where results are persisted.
type HistoryConfig struct {
	// Provider is "local" or "gcs". Empty disables history.
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`

	// Path is the local history directory.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// CredentialsFile is an optional service account key for GCS.
	CredentialsFile string `json:"credentialsFile,omitempty" yaml:"credentialsFile,omitempty"`

	Branch        string `json:"branch,omitempty" yaml:"branch,omitempty"`
	DefaultBranch string `json:"defaultBranch,omitempty" yaml:"defaultBranch,omitempty"`

	// Persist forces persistence on or off. Unset persists on the default
	// branch only.
	Persist *bool `json:"persist,omitempty" yaml:"persist,omitempty"`

	// PersistBranches lists branches whose results are persisted when
	// Persist is unset.
	PersistBranches []string `json:"persistBranches,omitempty" yaml:"persistBranches,omitempty"`

	BenchmarksPerBranch int `json:"benchmarksPerBranch,omitempty" yaml:"benchmarksPerBranch,omitempty"`
}

// CompareConfig controls comparison against a previous benchmark.
type CompareConfig struct {
	// Branch whose latest benchmark is the baseline. Defaults to the
	// history default branch.
	Branch    string  `json:"branch,omitempty" yaml:"branch,omitempty"`
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// OutputConfig controls what is written besides the console report.
type OutputConfig struct {
	SamplesDir  string `json:"samplesDir,omitempty" yaml:"samplesDir,omitempty"`
	MetricsFile string `json:"metricsFile,omitempty" yaml:"metricsFile,omitempty"`
	NoColor     bool   `json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// ToOverrides converts the file form to engine overrides. Enum values are
// passed through unchecked; bench.Options.Validate rejects unknown ones.
func (o OverridesConfig) ToOverrides() bench.Overrides {
	out := bench.Overrides{
		MaxRuns:           o.MaxRuns,
		MinRuns:           o.MinRuns,
		MaxDuration:       o.MaxDuration.ptr(),
		MinDuration:       o.MinDuration.ptr(),
		MaxWarmupDuration: o.MaxWarmupDuration.ptr(),
		MaxWarmupRuns:     o.MaxWarmupRuns,
		ConvergeFactor:    o.ConvergeFactor,
		RunsDivisor:       o.RunsDivisor,
		YieldAfterEach:    o.YieldAfterEach,
		HardTimeout:       o.HardTimeout.ptr(),
		WarmupBudgetRatio: o.WarmupBudgetRatio,
		Threshold:         o.Threshold,
		NoThreshold:       o.NoThreshold,
	}
	if o.Termination != nil {
		out.Termination = bench.Ptr(termination.Kind(*o.Termination))
	}
	if o.Averaging != nil {
		out.Averaging = bench.Ptr(bench.Averaging(*o.Averaging))
	}
	return out
}

// Duration is a time.Duration that reads and writes as a string such as
// "500ms". Plain integers are read as seconds.
type Duration time.Duration

func (d *Duration) ptr() *time.Duration {
	if d == nil {
		return nil
	}
	v := time.Duration(*d)
	return &v
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes if present
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "null" {
		s = ""
	}

	dur, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	dur, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}
