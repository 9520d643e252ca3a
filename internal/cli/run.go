package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/settle/bench/suite"
	"github.com/wesleyorama2/settle/internal/catalog"
	"github.com/wesleyorama2/settle/internal/compare"
	"github.com/wesleyorama2/settle/internal/config"
	"github.com/wesleyorama2/settle/internal/history"
	"github.com/wesleyorama2/settle/internal/output"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the built-in benchmarks",
	Long: `Run the built-in benchmark catalog, print the results and optionally
persist them to history and compare them with an earlier benchmark.

Examples:
  settle run
  settle run --bench 'sha256-*' --format json --output results.json
  settle run -c settle.yaml --commit $GIT_SHA --branch main --persist
  settle run -c settle.yaml --commit $GIT_SHA --branch feature --compare-branch main`,
	Args: cobra.NoArgs,
	RunE: runBenchmarks,
}

// runOptions holds the flags of the run command.
type runOptions struct {
	configFile    string
	bench         []string
	format        string
	outputPath    string
	commit        string
	branch        string
	compareBranch string
	compareCommit string
	threshold     float64
	expressions   []string
	historyDir    string
	persist       string
	samplesDir    string
	metricsFile   string
	list          bool
}

func runOptionsFrom(cmd *cobra.Command) runOptions {
	var o runOptions
	f := cmd.Flags()
	o.configFile, _ = f.GetString("config")
	o.bench, _ = f.GetStringSlice("bench")
	o.format, _ = f.GetString("format")
	o.outputPath, _ = f.GetString("output")
	o.commit, _ = f.GetString("commit")
	o.branch, _ = f.GetString("branch")
	o.compareBranch, _ = f.GetString("compare-branch")
	o.compareCommit, _ = f.GetString("compare-commit")
	o.threshold, _ = f.GetFloat64("threshold")
	o.expressions, _ = f.GetStringSlice("expr")
	o.historyDir, _ = f.GetString("history-dir")
	o.persist, _ = f.GetString("persist")
	o.samplesDir, _ = f.GetString("samples-dir")
	o.metricsFile, _ = f.GetString("metrics-file")
	o.list, _ = f.GetBool("list")
	return o
}

func runBenchmarks(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	opts := runOptionsFrom(cmd)
	out := cmd.OutOrStdout()

	if opts.list {
		for _, id := range catalog.IDs() {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	expressions, err := parseExpressions(opts.expressions)
	if err != nil {
		return err
	}

	cfg, err := loadRunConfig(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := suite.New()
	catalog.Register(s)

	runner := suite.NewRunner(
		suite.WithLayers(cfg),
		suite.WithLogger(logger),
		suite.WithSamplesDir(cfg.Output.SamplesDir),
		suite.WithFilter(opts.bench...),
		suite.WithSkip(configSkips(cfg, s)...),
	)

	report, runErr := runner.Run(ctx, s)
	if report == nil {
		return runErr
	}

	doc := output.NewDocument(report, time.Now())
	doc.CommitSha = opts.commit
	doc.Branch = cfg.History.Branch

	// An interrupted run still prints what completed, but is never compared
	// or persisted.
	if runErr == nil {
		if err := compareAndPersist(ctx, logger, cfg, opts, doc); err != nil {
			return err
		}
	}

	if cfg.Output.MetricsFile != "" {
		if err := runner.Metrics().WriteTextfile(cfg.Output.MetricsFile); err != nil {
			logger.Warn("failed to write metrics file", "path", cfg.Output.MetricsFile, "error", err)
		}
	}

	failed := doc.Failed()
	if doc.Comparison != nil {
		for _, expr := range expressions {
			for _, res := range expr.Evaluate(doc.Comparison) {
				if !res.Passed {
					logger.Error("threshold expression failed", "benchmark", res.ID, "expression", res.Expression, "message", res.Message)
					failed = true
				}
			}
		}
	}

	plain := noColor(cmd) || cfg.Output.NoColor || opts.outputPath != "" || !output.UseColors(out)
	if err := writeDocument(out, opts.outputPath, output.GetFormatter(format, plain), doc); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	if failed {
		return &ExitError{Code: 1}
	}
	return nil
}

// loadRunConfig loads the optional config file and lets flags override it.
func loadRunConfig(opts runOptions) (*config.Config, error) {
	cfg := &config.Config{}
	if opts.configFile != "" {
		loaded, err := config.LoadConfig(opts.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.historyDir != "" {
		cfg.History.Provider = "local"
		cfg.History.Path = opts.historyDir
	}
	if opts.branch != "" {
		cfg.History.Branch = opts.branch
	}
	if opts.compareBranch != "" {
		cfg.Compare.Branch = opts.compareBranch
	}
	if opts.threshold > 0 {
		cfg.Compare.Threshold = opts.threshold
	}
	switch opts.persist {
	case "":
	case "true":
		cfg.History.Persist = ptr(true)
	case "false":
		cfg.History.Persist = ptr(false)
	default:
		return nil, fmt.Errorf("--persist must be true or false, got %q", opts.persist)
	}
	if opts.samplesDir != "" {
		cfg.Output.SamplesDir = opts.samplesDir
	}
	if opts.metricsFile != "" {
		cfg.Output.MetricsFile = opts.metricsFile
	}

	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// configSkips lists the registered ids the config file excludes: entries
// marked skip, and every other entry when some are marked only.
func configSkips(cfg *config.Config, s *suite.Suite) []string {
	var only []string
	var skips []string
	for _, b := range cfg.Benchmarks {
		if b.Only {
			only = append(only, b.ID)
		}
		if b.Skip {
			skips = append(skips, b.ID)
		}
	}
	if len(only) == 0 {
		return skips
	}
	for _, e := range s.Entries() {
		if !slices.Contains(only, e.ID) {
			skips = append(skips, e.ID)
		}
	}
	return skips
}

// compareAndPersist resolves the baseline, attaches the comparison to doc and
// writes doc to history when the branch is persisted.
func compareAndPersist(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts runOptions, doc *output.Document) error {
	provider, closer, err := history.Open(ctx, cfg.History)
	if err != nil {
		return err
	}
	if provider == nil {
		return nil
	}
	defer closer.Close()

	current := &history.Benchmark{CommitSha: doc.CommitSha, RunID: doc.RunID, Results: doc.Results}

	prev, err := resolveBaseline(ctx, provider, cfg.Compare.Branch, opts.compareCommit)
	if err != nil {
		return err
	}
	if prev != nil && prev.CommitSha == current.CommitSha && opts.compareCommit == "" {
		logger.Info("baseline is the current commit, skipping comparison", "commit", prev.CommitSha)
		prev = nil
	}
	if prev != nil {
		logger.Info("comparing with baseline", "commit", prev.CommitSha, "history", provider.String())
	}
	doc.Comparison = compare.NewPerformanceReport(current, prev, cfg.Compare.Threshold)

	if !history.ShouldPersist(history.PersistOptionsFrom(cfg.History), cfg.History.Branch) {
		logger.Debug("branch not persisted", "branch", cfg.History.Branch)
		return nil
	}
	if doc.CommitSha == "" {
		logger.Warn("not persisting results without --commit")
		return nil
	}
	if len(doc.Results) == 0 {
		logger.Warn("no results to persist")
		return nil
	}

	replaced, err := history.Save(ctx, provider, *current, cfg.History.Branch, cfg.History.BenchmarksPerBranch)
	if err != nil {
		return err
	}
	logger.Info("results persisted",
		"branch", cfg.History.Branch,
		"commit", current.CommitSha,
		"replaced", replaced,
		"history", provider.String())
	return nil
}

func resolveBaseline(ctx context.Context, p history.Provider, branch, commit string) (*history.Benchmark, error) {
	if commit != "" {
		h, err := p.ReadHistory(ctx)
		if err != nil {
			return nil, err
		}
		b := h.FindCommit(commit, branch)
		if b == nil {
			return nil, fmt.Errorf("no benchmark recorded for commit %s", commit)
		}
		return b, nil
	}

	b, err := p.ReadLatestInBranch(ctx, branch)
	if errors.Is(err, history.ErrNotFound) {
		return nil, nil
	}
	return b, err
}

func parseExpressions(raw []string) ([]compare.Expression, error) {
	out := make([]compare.Expression, 0, len(raw))
	for _, r := range raw {
		expr, err := compare.ParseExpression(r)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

// writeDocument writes to path, or to w when path is empty.
func writeDocument(w io.Writer, path string, f output.FormatProvider, doc *output.Document) error {
	text, err := f.Format(doc)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = io.WriteString(w, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

func init() {
	runCmd.Flags().StringP("config", "c", "", "Configuration file (YAML or JSON)")
	runCmd.Flags().StringSliceP("bench", "b", nil, "Only run benchmarks matching these glob patterns")
	runCmd.Flags().Bool("list", false, "List the built-in benchmarks and exit")

	// Reporting flags
	runCmd.Flags().StringP("format", "f", string(output.FormatText), "Output format: text, json, yaml, junit, html")
	runCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	runCmd.Flags().String("samples-dir", "", "Write raw samples of every benchmark to this directory")
	runCmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file")

	// History flags
	runCmd.Flags().String("commit", "", "Commit sha the results belong to")
	runCmd.Flags().String("branch", "", "Branch the results belong to")
	runCmd.Flags().String("history-dir", "", "Use a local history in this directory")
	runCmd.Flags().String("persist", "", "Force persisting results (true or false)")
	runCmd.Flags().String("compare-branch", "", "Compare with the latest benchmark of this branch")
	runCmd.Flags().String("compare-commit", "", "Compare with the benchmark of this commit")
	runCmd.Flags().Float64("threshold", 0, "Slowdown ratio that fails a comparison")
	runCmd.Flags().StringSlice("expr", nil, `Extra checks on the comparison, e.g. "ratio < 1.5"`)
}
