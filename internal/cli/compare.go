package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/settle/internal/compare"
	"github.com/wesleyorama2/settle/internal/history"
	"github.com/wesleyorama2/settle/internal/output"
)

var compareCmd = &cobra.Command{
	Use:   "compare <previous.json> <current.json> [more.json...]",
	Short: "Compare saved benchmark files",
	Long: `Compare benchmark files written by 'settle run --format json' or taken
from history. With two files the second is checked against the first; with
more, every benchmark is shown side by side relative to the first file.

Files without a commitSha are named after their file name.`,
	Args: cobra.MinimumNArgs(2),
	RunE: compareFiles,
}

func compareFiles(cmd *cobra.Command, args []string) error {
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	exprs, _ := cmd.Flags().GetStringSlice("expr")
	asJSON, _ := cmd.Flags().GetBool("json")

	expressions, err := parseExpressions(exprs)
	if err != nil {
		return err
	}

	benchmarks := make([]*history.Benchmark, 0, len(args))
	for _, name := range args {
		b, err := history.ReadBenchmarkFile(name)
		if err != nil {
			return err
		}
		b.DirName = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		benchmarks = append(benchmarks, b)
	}

	out := cmd.OutOrStdout()
	console := output.NewConsole(noColor(cmd) || !output.UseColors(out))

	var failed bool
	if len(benchmarks) == 2 {
		report := compare.NewPerformanceReport(benchmarks[1], benchmarks[0], threshold)
		failed = report.SomeFailed
		for _, expr := range expressions {
			for _, res := range expr.Evaluate(report) {
				if !res.Passed {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %s\n", output.ErrorIcon(console.NoColor), res.ID, res.Message)
					failed = true
				}
			}
		}
		if asJSON {
			err = writeJSON(out, report)
		} else {
			_, err = fmt.Fprint(out, console.PerformanceReport(report))
		}
	} else {
		if len(expressions) > 0 {
			return fmt.Errorf("--expr needs exactly two files")
		}
		report := compare.NewComparisonReport(threshold, benchmarks...)
		failed = report.SomeFailed
		if asJSON {
			err = writeJSON(out, report)
		} else {
			_, err = fmt.Fprint(out, console.ComparisonReport(report))
		}
	}
	if err != nil {
		return err
	}

	if failed {
		return &ExitError{Code: 1}
	}
	return nil
}

func init() {
	compareCmd.Flags().Float64("threshold", compare.DefaultThreshold, "Slowdown ratio that fails a comparison, unless a result carries its own")
	compareCmd.Flags().StringSlice("expr", nil, `Extra checks on the comparison, e.g. "ratio < 1.5"`)
	compareCmd.Flags().Bool("json", false, "Print the report as JSON")
}
