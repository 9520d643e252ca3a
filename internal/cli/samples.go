package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/settle/bench/suite"
	"github.com/wesleyorama2/settle/internal/compare"
	"github.com/wesleyorama2/settle/internal/output"
)

var samplesCmd = &cobra.Command{
	Use:   "samples <a.csv> <b.csv>",
	Short: "Test whether two sample files differ significantly",
	Long: `Compare two raw sample files written with --samples-dir using a
Mann-Whitney U-test. Exits with status 1 when --fail-significant is set and
the difference is significant.`,
	Args: cobra.ExactArgs(2),
	RunE: compareSamples,
}

func compareSamples(cmd *cobra.Command, args []string) error {
	alpha, _ := cmd.Flags().GetFloat64("alpha")
	failSignificant, _ := cmd.Flags().GetBool("fail-significant")
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := suite.ReadSamples(args[0])
	if err != nil {
		return err
	}
	b, err := suite.ReadSamples(args[1])
	if err != nil {
		return err
	}

	cmp, err := compare.Samples(a, b, alpha)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		err = writeJSON(out, cmp)
	} else {
		console := output.NewConsole(noColor(cmd) || !output.UseColors(out))
		_, err = fmt.Fprint(out, console.SampleComparison(args[0], args[1], cmp))
	}
	if err != nil {
		return err
	}

	if failSignificant && cmp.Significant {
		return &ExitError{Code: 1}
	}
	return nil
}

func init() {
	samplesCmd.Flags().Float64("alpha", compare.DefaultAlpha, "Significance level")
	samplesCmd.Flags().Bool("fail-significant", false, "Exit with status 1 on a significant difference")
	samplesCmd.Flags().Bool("json", false, "Print the comparison as JSON")
}
