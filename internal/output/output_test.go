package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/settle/bench"
	"github.com/wesleyorama2/settle/bench/metrics"
	"github.com/wesleyorama2/settle/bench/suite"
	"github.com/wesleyorama2/settle/internal/compare"
	"github.com/wesleyorama2/settle/internal/history"
)

func sampleDocument() *Document {
	report := &suite.Report{
		RunID: "run-1",
		Results: []*bench.Result{
			{
				ID: "noop", AverageNs: 1.25, Runs: 1000, TotalMs: 120,
				Percentiles: &metrics.Summary{Count: 1000, P50: 1, P99: 3},
			},
			{ID: "sleep", AverageNs: 2.5e6, Runs: 40, TotalMs: 100},
		},
		Failures: []suite.Failure{{ID: "broken", Err: assert.AnError}},
		Skipped:  []string{"later"},
	}
	doc := NewDocument(report, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	doc.CommitSha = "0123456789abcdef"
	doc.Branch = "main"

	prev := &history.Benchmark{CommitSha: "fedcba9876543210", Results: []*bench.Result{
		{ID: "noop", AverageNs: 1.25},
		{ID: "sleep", AverageNs: 1e6},
	}}
	doc.Comparison = compare.NewPerformanceReport(&history.Benchmark{CommitSha: doc.CommitSha, Results: doc.Results}, prev, 2)
	return doc
}

func TestFormatNs(t *testing.T) {
	tests := []struct {
		ns   float64
		want string
	}{
		{0, "0.00 ns"},
		{1.234, "1.23 ns"},
		{999, "999 ns"},
		{1500, "1.50 us"},
		{25_300, "25.3 us"},
		{2.5e6, "2.50 ms"},
		{3.2e9, "3.20 s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNs(tt.ns), "FormatNs(%v)", tt.ns)
	}

	r := 1.5
	assert.Equal(t, "1.50x", FormatRatio(&r))
	assert.Equal(t, "-", FormatRatio(nil))
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats() {
		got, err := ParseFormat(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestConsole_Format(t *testing.T) {
	doc := sampleDocument()
	out, err := NewConsole(true).Format(doc)
	require.NoError(t, err)

	assert.Contains(t, out, "Benchmark results @ 01234567 (main)")
	assert.Contains(t, out, "1.25 ns")
	assert.Contains(t, out, "2.50 ms")
	assert.Contains(t, out, "✗ broken: "+assert.AnError.Error())
	assert.Contains(t, out, "skipped: later")
	assert.Contains(t, out, "Comparison 01234567 vs fedcba98")
	assert.Contains(t, out, "2.50x")
	assert.Contains(t, out, "1 benchmark(s) regressed")
	assert.NotContains(t, out, "\x1b[", "no escape codes without color")
	assert.True(t, doc.Failed())
}

func TestConsole_NoPrevious(t *testing.T) {
	report := compare.NewPerformanceReport(&history.Benchmark{CommitSha: "abc"}, nil, 2)
	out := NewConsole(true).PerformanceReport(report)
	assert.Contains(t, out, "no previous benchmark")
}

func TestConsole_ComparisonReport(t *testing.T) {
	origin := &history.Benchmark{CommitSha: "aaaaaaaaaa", DirName: "base", Results: []*bench.Result{{ID: "x", AverageNs: 100}}}
	target := &history.Benchmark{CommitSha: "bbbbbbbbbb", Results: []*bench.Result{{ID: "x", AverageNs: 300}}}

	out := NewConsole(true).ComparisonReport(compare.NewComparisonReport(2, origin, target))
	assert.Contains(t, out, "base")
	assert.Contains(t, out, "bbbbbbbb")
	assert.Contains(t, out, "300 ns 3.00x")
	assert.Contains(t, out, "some benchmarks regressed")
}

func TestConsole_Stats(t *testing.T) {
	summary, err := compare.Summarize([]int64{1000, 1000, 2000, 1000})
	require.NoError(t, err)
	out := NewConsole(true).Summary("a.csv", summary)
	assert.Contains(t, out, "a.csv")
	assert.Contains(t, out, "samples")
	assert.Contains(t, out, "1.00 us")

	cmp := &compare.SampleComparison{N1: 5, N2: 5, MedianA: 100, MedianB: 200, Ratio: 2, UTestP: 0.01, TTestP: 0.02, Alpha: 0.05, Significant: true}
	out = NewConsole(true).SampleComparison("a", "b", cmp)
	assert.Contains(t, out, "significant difference")
	assert.Contains(t, out, "2.000x")
}

func TestJSONFormatter(t *testing.T) {
	out, err := GetFormatter(FormatJSON, false).Format(sampleDocument())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "run-1", decoded["runId"])
	assert.Len(t, decoded["results"], 2)
	assert.Contains(t, decoded, "comparison")
}

func TestYAMLFormatter(t *testing.T) {
	out, err := GetFormatter(FormatYAML, false).Format(sampleDocument())
	require.NoError(t, err)

	var decoded struct {
		CommitSha string `yaml:"commitSha"`
		Results   []struct {
			ID        string  `yaml:"id"`
			AverageNs float64 `yaml:"averageNs"`
		} `yaml:"results"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "0123456789abcdef", decoded.CommitSha)
	require.Len(t, decoded.Results, 2)
	assert.Equal(t, 2.5e6, decoded.Results[1].AverageNs)
}

func TestJUnitFormatter(t *testing.T) {
	out, err := GetFormatter(FormatJUnit, false).Format(sampleDocument())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, xml.Header))

	var suites JUnitTestSuites
	require.NoError(t, xml.NewDecoder(bytes.NewReader([]byte(out))).Decode(&suites))
	require.Len(t, suites.TestSuites, 1)

	ts := suites.TestSuites[0]
	assert.Equal(t, 4, ts.Tests)
	assert.Equal(t, 1, ts.Failures)
	assert.Equal(t, 1, ts.Errors)
	assert.Equal(t, 1, ts.Skipped)
	require.NotNil(t, ts.TestCases[1].Failure)
	assert.Equal(t, "Regression", ts.TestCases[1].Failure.Type)
}

func TestUseColors(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("FORCE_COLOR", "")
	t.Setenv("NO_COLOR", "")
	assert.False(t, UseColors(&buf), "buffers are not terminals")

	t.Setenv("FORCE_COLOR", "1")
	assert.True(t, UseColors(&buf))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, UseColors(&buf))
	assert.False(t, IsTerminal(&buf))
}

func TestHTMLFormatter(t *testing.T) {
	out, err := GetFormatter(FormatHTML, false).Format(sampleDocument())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Benchmark report - 01234567</title>")
	assert.Contains(t, out, "<td>1,000</td>")
	assert.Contains(t, out, `<td class="regressed">2.50x</td>`)
	assert.Contains(t, out, "Comparison with fedcba98")
	assert.Contains(t, out, "broken")
	assert.Contains(t, out, `{"id":"noop","averageNs":1.25,"prevNs":1.25}`)

	_, err = (&HTMLFormatter{}).Format(nil)
	assert.Error(t, err)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
	assert.Equal(t, "-12,000", formatNumber(-12000))
}
