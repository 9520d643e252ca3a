package output

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/wesleyorama2/settle/bench"
	"github.com/wesleyorama2/settle/internal/compare"
)

const ruleWidth = 56

// Console renders human-readable reports.
type Console struct {
	NoColor bool
	Scheme  *ColorScheme
}

// NewConsole creates a console renderer.
func NewConsole(noColor bool) *Console {
	scheme := DefaultColorScheme()
	if noColor {
		scheme = NoColorScheme()
	}
	return &Console{NoColor: noColor, Scheme: scheme}
}

// Format implements FormatProvider.
func (c *Console) Format(doc *Document) (string, error) {
	var buf strings.Builder

	title := "Benchmark results"
	if doc.CommitSha != "" {
		title += " @ " + shortSha(doc.CommitSha)
	}
	if doc.Branch != "" {
		title += " (" + doc.Branch + ")"
	}
	buf.WriteString(c.header(title))
	buf.WriteString(c.Results(doc.Results))

	for _, f := range doc.Failures {
		fmt.Fprintf(&buf, "%s %s: %s\n", ErrorIcon(c.NoColor), c.Scheme.ID.Sprint(f.ID), c.Scheme.Error.Sprint(f.Error))
	}
	if len(doc.Skipped) > 0 {
		fmt.Fprintf(&buf, "%s skipped: %s\n", InfoIcon(c.NoColor), strings.Join(doc.Skipped, ", "))
	}

	if doc.Comparison != nil {
		buf.WriteString("\n")
		buf.WriteString(c.PerformanceReport(doc.Comparison))
	}
	return buf.String(), nil
}

// Results renders a table of benchmark results.
func (c *Console) Results(results []*bench.Result) string {
	if len(results) == 0 {
		return c.Scheme.Dim.Sprint("no results") + "\n"
	}

	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "id\taverage\truns\ttotal\tp50\tp99\t")
	for _, r := range results {
		p50, p99 := "-", "-"
		if p := r.Percentiles; p != nil && p.Count > 0 {
			p50 = FormatNs(float64(p.P50))
			p99 = FormatNs(float64(p.P99))
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d ms\t%s\t%s\t\n",
			r.ID, FormatNs(r.AverageNs), r.Runs, r.TotalMs, p50, p99)
	}
	w.Flush()
	return buf.String()
}

// PerformanceReport renders a comparison with the previous benchmark.
func (c *Console) PerformanceReport(report *compare.PerformanceReport) string {
	var buf strings.Builder

	title := "Comparison"
	if report.PrevCommitSha != "" {
		title = fmt.Sprintf("Comparison %s vs %s", shortSha(report.CurrCommitSha), shortSha(report.PrevCommitSha))
	}
	buf.WriteString(c.header(title))

	if report.PrevCommitSha == "" {
		buf.WriteString(c.Scheme.Dim.Sprint("no previous benchmark to compare with") + "\n")
		return buf.String()
	}

	var table strings.Builder
	w := tabwriter.NewWriter(&table, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "id\tcurrent\tprevious\tratio")
	for _, r := range report.Results {
		prev := "-"
		if r.PrevAverageNs != nil {
			prev = FormatNs(*r.PrevAverageNs)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, FormatNs(r.CurrAverageNs), prev, c.ratio(r))
	}
	w.Flush()
	buf.WriteString(table.String())

	if report.SomeFailed {
		fmt.Fprintf(&buf, "%s %s\n", ErrorIcon(c.NoColor),
			c.Scheme.Regressed.Sprintf("%d benchmark(s) regressed past their threshold", len(report.Failed())))
	} else {
		fmt.Fprintf(&buf, "%s %s\n", SuccessIcon(c.NoColor), c.Scheme.Success.Sprint("no regressions"))
	}
	return buf.String()
}

// ComparisonReport renders one origin benchmark against several targets.
func (c *Console) ComparisonReport(report *compare.ComparisonReport) string {
	var buf strings.Builder
	buf.WriteString(c.header("Comparison of " + strings.Join(shortShas(report.CommitShas), ", ")))

	var table strings.Builder
	w := tabwriter.NewWriter(&table, 0, 0, 2, ' ', 0)
	cols := []string{"id"}
	for i, sha := range report.CommitShas {
		label := shortSha(sha)
		if name := report.DirNames[i]; name != "" {
			label = name
		}
		cols = append(cols, label)
	}
	fmt.Fprintln(w, strings.Join(cols, "\t"))

	for _, id := range report.IDs {
		row := []string{id}
		for i, res := range report.Results[id] {
			if i == 0 {
				row = append(row, FormatNs(*res.OriginAverageNs))
				continue
			}
			cell := "-"
			if res.TargetAverageNs != nil {
				cell = FormatNs(*res.TargetAverageNs) + " " + c.colorRatio(res.Ratio, res.IsFailed, res.IsImproved)
			}
			row = append(row, cell)
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
	buf.WriteString(table.String())

	if report.SomeFailed {
		fmt.Fprintf(&buf, "%s %s\n", ErrorIcon(c.NoColor), c.Scheme.Regressed.Sprint("some benchmarks regressed"))
	}
	return buf.String()
}

// Summary renders the statistics of one sample file.
func (c *Console) Summary(name string, s *compare.SampleSummary) string {
	var buf strings.Builder
	buf.WriteString(c.header(name))

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	row := func(k, v string) { fmt.Fprintf(w, "%s\t%s\n", k, c.Scheme.Value.Sprint(v)) }
	row("samples", fmt.Sprintf("%d", s.Count))
	row("mean", FormatNs(s.Mean))
	row("median", FormatNs(s.Median))
	row("q1 / q3", FormatNs(s.Q1)+" / "+FormatNs(s.Q3))
	row("min / max", FormatNs(float64(s.Min))+" / "+FormatNs(float64(s.Max)))
	row("stddev", FormatNs(s.StdDev))
	row("cv", fmt.Sprintf("%.2f%%", s.CV*100))
	row("outliers", fmt.Sprintf("%d removed, clean mean %s", s.Outliers, FormatNs(s.CleanMean)))
	w.Flush()
	return buf.String()
}

// SampleComparison renders the significance test between two sample files.
func (c *Console) SampleComparison(a, b string, cmp *compare.SampleComparison) string {
	var buf strings.Builder
	buf.WriteString(c.header(a + " vs " + b))

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "median\t%s (n=%d)\t%s (n=%d)\n", FormatNs(cmp.MedianA), cmp.N1, FormatNs(cmp.MedianB), cmp.N2)
	fmt.Fprintf(w, "ratio\t%.3fx\n", cmp.Ratio)
	fmt.Fprintf(w, "u-test p\t%.4f\n", cmp.UTestP)
	if !math.IsNaN(cmp.TTestP) {
		fmt.Fprintf(w, "welch p\t%.4f\n", cmp.TTestP)
	}
	w.Flush()

	if cmp.Significant {
		style := c.Scheme.Regressed
		if cmp.Ratio < 1 {
			style = c.Scheme.Improved
		}
		fmt.Fprintf(&buf, "%s %s\n", WarningIcon(c.NoColor), style.Sprintf("significant difference (p < %.2f)", cmp.Alpha))
	} else {
		fmt.Fprintf(&buf, "%s %s\n", InfoIcon(c.NoColor), c.Scheme.Dim.Sprintf("no significant difference (p >= %.2f)", cmp.Alpha))
	}
	return buf.String()
}

func (c *Console) header(title string) string {
	line := strings.Repeat("━", ruleWidth)
	return c.Scheme.Title.Sprint(line) + "\n" + c.Scheme.Highlight.Sprint(title) + "\n" + c.Scheme.Title.Sprint(line) + "\n"
}

func (c *Console) ratio(r compare.PerformanceResult) string {
	return c.colorRatio(r.Ratio, r.IsFailed, r.IsImproved)
}

func (c *Console) colorRatio(ratio *float64, failed, improved bool) string {
	s := FormatRatio(ratio)
	switch {
	case failed:
		return c.Scheme.Regressed.Sprint(s)
	case improved:
		return c.Scheme.Improved.Sprint(s)
	default:
		return s
	}
}

func shortShas(shas []string) []string {
	out := make([]string, len(shas))
	for i, s := range shas {
		out[i] = shortSha(s)
	}
	return out
}
