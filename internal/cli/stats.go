package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/settle/bench/suite"
	"github.com/wesleyorama2/settle/internal/compare"
	"github.com/wesleyorama2/settle/internal/output"
)

var statsCmd = &cobra.Command{
	Use:   "stats <samples.csv>...",
	Short: "Summarize raw sample files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  sampleStats,
}

// namedSummary is the JSON form of one summarized file.
type namedSummary struct {
	File string `json:"file"`
	*compare.SampleSummary
}

func sampleStats(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()
	console := output.NewConsole(noColor(cmd) || !output.UseColors(out))

	summaries := make([]namedSummary, 0, len(args))
	for _, name := range args {
		samples, err := suite.ReadSamples(name)
		if err != nil {
			return err
		}
		summary, err := compare.Summarize(samples)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		summaries = append(summaries, namedSummary{File: name, SampleSummary: summary})
	}

	if asJSON {
		return writeJSON(out, summaries)
	}
	for i, s := range summaries {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprint(out, console.Summary(s.File, s.SampleSummary))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	statsCmd.Flags().Bool("json", false, "Print the summaries as JSON")
}
