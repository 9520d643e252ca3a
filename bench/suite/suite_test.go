package suite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/settle/bench"
	"github.com/wesleyorama2/settle/bench/clock"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fiveRuns measures exactly five calls without warm-up.
var fiveRuns = bench.Overrides{
	MaxRuns:       bench.Ptr(5),
	MaxWarmupRuns: bench.Ptr(0),
}

func takes(clk *clock.Manual, d time.Duration) func() error {
	return func() error {
		clk.Advance(d)
		return nil
	}
}

type layerMap map[string][]bench.Overrides

func (m layerMap) Layers(id string) []bench.Overrides { return m[id] }

func TestSuite_ScopesOrderLayers(t *testing.T) {
	s := New()
	s.Add("top", func() error { return nil })
	s.Scope("outer", bench.Overrides{MaxRuns: bench.Ptr(10)}, func(s *Suite) {
		s.Scope("inner", bench.Overrides{MaxRuns: bench.Ptr(20)}, func(s *Suite) {
			s.Add("deep", func() error { return nil }, bench.Overrides{MaxRuns: bench.Ptr(30)})
		})
		s.Add("shallow", func() error { return nil })
	})

	entries := s.Entries()
	require.Len(t, entries, 3)

	assert.Empty(t, entries[0].Scope)
	assert.Equal(t, "outer/inner", entries[1].ScopePath())
	assert.Equal(t, []string{"outer"}, entries[2].Scope)

	deep := bench.Merge(bench.DefaultOptions(), entries[1].Layers...)
	assert.Equal(t, 30, deep.MaxRuns)
	require.Len(t, entries[1].Layers, 3)
	assert.Equal(t, 10, *entries[1].Layers[0].MaxRuns)

	shallow := bench.Merge(bench.DefaultOptions(), entries[2].Layers...)
	assert.Equal(t, 10, shallow.MaxRuns)
}

func TestSuite_DuplicateIDs(t *testing.T) {
	s := New()
	s.Add("a", func() error { return nil })
	s.Add("a", func() error { return nil })

	err := s.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, bench.ErrDuplicateID))

	var cfgErr *bench.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "a", cfgErr.ID)

	called := false
	s.Add("b", func() error { called = true; return nil })
	_, err = NewRunner().Run(context.Background(), s)
	assert.Error(t, err)
	assert.False(t, called, "nothing runs when the suite is invalid")
}

func TestSuite_SkipAndOnly(t *testing.T) {
	s := New()
	s.Add("a", func() error { return nil })
	s.Skip("b", func() error { return nil })
	ids := func(es []*Entry) []string {
		var out []string
		for _, e := range es {
			out = append(out, e.ID)
		}
		return out
	}
	assert.Equal(t, []string{"a"}, ids(s.Selected()))

	s.Only("c", func() error { return nil })
	assert.Equal(t, []string{"c"}, ids(s.Selected()))
}

func TestRunner_Run(t *testing.T) {
	clk := clock.NewManual(epoch)
	dir := t.TempDir()

	s := New()
	s.Add("fast", takes(clk, time.Microsecond), fiveRuns)
	s.Add("slow", takes(clk, time.Millisecond), fiveRuns)
	s.Add("broken", func() error { return errors.New("boom") }, fiveRuns)
	s.Skip("skipped", takes(clk, time.Millisecond), fiveRuns)

	var progress []string
	r := NewRunner(
		WithClock(clk),
		WithSamplesDir(dir),
		WithProgress(func(res *bench.Result, err error) {
			if err != nil {
				progress = append(progress, "err")
				return
			}
			progress = append(progress, res.ID)
		}),
	)

	report, err := r.Run(context.Background(), s)
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)

	require.Len(t, report.Results, 2)
	assert.Equal(t, float64(time.Microsecond), report.Results[0].AverageNs)
	assert.Equal(t, 5, report.Results[1].Runs)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "broken", report.Failures[0].ID)
	assert.EqualError(t, report.Err(), "boom")
	assert.Equal(t, []string{"skipped"}, report.Skipped)
	assert.Equal(t, []string{"fast", "slow", "err"}, progress)

	samples, err := ReadSamples(filepath.Join(dir, "slow.csv"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1e6, 1e6, 1e6, 1e6, 1e6}, samples)

	assert.Equal(t, 2.0, counterValue(t, r.Metrics(), "settle_benchmark_runs_total", "status", StatusOK))
	assert.Equal(t, 1.0, counterValue(t, r.Metrics(), "settle_benchmark_runs_total", "status", StatusFailed))
	assert.Equal(t, 1.0, counterValue(t, r.Metrics(), "settle_benchmark_runs_total", "status", StatusSkipped))
	assert.Equal(t, 5.0, gaugeValue(t, r.Metrics(), "settle_benchmark_iterations", "slow"))
}

func TestRunner_LayersAndFilter(t *testing.T) {
	clk := clock.NewManual(epoch)

	s := New()
	s.Scope("group", bench.Overrides{MaxRuns: bench.Ptr(3)}, func(s *Suite) {
		s.Add("x/one", takes(clk, time.Millisecond), bench.Overrides{MaxWarmupRuns: bench.Ptr(0)})
		s.Add("y/two", takes(clk, time.Millisecond), fiveRuns)
	})

	cfg := layerMap{"x/one": {{MaxRuns: bench.Ptr(100), RunsDivisor: bench.Ptr(2)}}}
	report, err := NewRunner(WithClock(clk), WithLayers(cfg), WithFilter("x/*")).Run(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.Equal(t, 3, res.Runs, "suite scope beats the config layer")
	assert.Equal(t, float64(time.Millisecond)/2, res.AverageNs, "config layer still applies")
	assert.Equal(t, []string{"y/two"}, report.Skipped)
}

func TestRunner_Skip(t *testing.T) {
	clk := clock.NewManual(epoch)

	s := New()
	s.Add("a", takes(clk, time.Millisecond), fiveRuns)
	s.Add("b", takes(clk, time.Millisecond), fiveRuns)

	report, err := NewRunner(WithClock(clk), WithSkip("a")).Run(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "b", report.Results[0].ID)
	assert.Equal(t, []string{"a"}, report.Skipped)
}

func TestRunner_Cancelled(t *testing.T) {
	clk := clock.NewManual(epoch)
	ctx, cancel := context.WithCancel(context.Background())

	s := New()
	s.Add("first", func() error { cancel(); clk.Advance(time.Millisecond); return nil }, fiveRuns)
	s.Add("second", takes(clk, time.Millisecond), fiveRuns)

	report, err := NewRunner(WithClock(clk)).Run(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, report.Results)
	require.Len(t, report.Failures, 1)
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.observe(StatusOK, 0.2)
	m.record("noop", 12.5, 1000)

	path := filepath.Join(t.TempDir(), "settle.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `settle_benchmark_average_ns{id="noop"} 12.5`)
	assert.Contains(t, text, `settle_benchmark_runs_total{status="ok"} 1`)
	assert.True(t, strings.Contains(text, "settle_benchmark_duration_seconds_bucket"))
}

func TestCSVSink(t *testing.T) {
	sink := CSVSink{Dir: filepath.Join(t.TempDir(), "nested")}
	require.NoError(t, sink.WriteSamples("group/a b", []int64{3, 1, 2}))
	assert.Equal(t, "group_a_b.csv", filepath.Base(sink.Path("group/a b")))

	got, err := ReadSamples(sink.Path("group/a b"))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, got)

	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("12\nabc\n"), 0o644))
	_, err = ReadSamples(bad)
	assert.ErrorContains(t, err, "line 2")
}

func findMetric(t *testing.T, m *Metrics, name, label, value string) *dto.Metric {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == label && l.GetValue() == value {
					return metric
				}
			}
		}
	}
	t.Fatalf("metric %s{%s=%q} not found", name, label, value)
	return nil
}

func counterValue(t *testing.T, m *Metrics, name, label, value string) float64 {
	return findMetric(t, m, name, label, value).GetCounter().GetValue()
}

func gaugeValue(t *testing.T, m *Metrics, name, id string) float64 {
	return findMetric(t, m, name, "id", id).GetGauge().GetValue()
}
