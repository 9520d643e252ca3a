package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/settle/internal/catalog"
	"github.com/wesleyorama2/settle/internal/config"
	"github.com/wesleyorama2/settle/internal/output"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config>",
	Short: "Check a configuration file without running anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(args[0])
		if err != nil {
			return err
		}
		config.ApplyDefaults(cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		known := make(map[string]bool)
		for _, id := range catalog.IDs() {
			known[id] = true
		}
		for _, b := range cfg.Benchmarks {
			if !known[b.ID] {
				return fmt.Errorf("%s: unknown benchmark %q", args[0], b.ID)
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s is valid\n", output.SuccessIcon(noColor(cmd) || !output.UseColors(out)), args[0])
		return nil
	},
}
