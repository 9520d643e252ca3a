package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "settle",
	Short:   "Adaptive micro-benchmarks that stop once the average settles",
	Version: version,
	Long: `Settle runs a function repeatedly until its average call duration stops
moving, then reports it. Results can be persisted per branch and compared
with earlier runs to catch performance regressions in CI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help
		cmd.Help()
	},
}

// ExitError carries a process exit code without an error message of its
// own, for commands whose output already explains the failure.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// It returns the process exit code.
func Execute() int {
	if err := RootCmd.Execute(); err != nil {
		var exit *ExitError
		if errors.As(err, &exit) {
			return exit.Code
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// newLogger builds the process logger from the persistent flags. Logs go to
// stderr so that stdout stays parseable.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	format, _ := cmd.Flags().GetString("log-format")

	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}

	var w io.Writer = cmd.ErrOrStderr()
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (valid: text, json)", format)
	}
}

func noColor(cmd *cobra.Command) bool {
	disabled, _ := cmd.Flags().GetBool("no-color")
	return disabled
}

func init() {
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	RootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only log warnings and errors")
	RootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	RootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	// Add subcommands to root command
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(compareCmd)
	RootCmd.AddCommand(samplesCmd)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(validateCmd)
}
