package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/chainlint/internal/cache"
	"github.com/panbanda/chainlint/internal/progress"
	"github.com/panbanda/chainlint/internal/remote"
	"github.com/panbanda/chainlint/internal/report"
	"github.com/panbanda/chainlint/internal/service/analysis"
	outputsvc "github.com/panbanda/chainlint/internal/service/output"
	"github.com/panbanda/chainlint/pkg/analyzer"
	"github.com/panbanda/chainlint/pkg/config"
	"github.com/panbanda/chainlint/pkg/models"
)

const loggerKey = "logger"

// exitFindings is the exit status when --fail-on matches an issue.
const exitFindings = 2

// Flags shared by the commands that run an analysis.
func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, json, markdown, toon (default from config)",
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write output to file",
	}
}

func orderFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "order",
		Usage: "Analysis order: scan or routes-first (default from config)",
	}
}

func minSeverityFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "min-severity",
		Usage: "Hide issues below this severity: low, medium, high, critical",
	}
}

func cacheFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "cache",
		Usage: "Reuse the previous result when no file or setting changed (stored in " + cache.DefaultDir + ")",
	}
}

func noColorFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}
}

// getPaths returns paths from positional args, defaulting to ["."].
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func getLogger(c *cli.Context) *slog.Logger {
	if l, ok := c.App.Metadata[loggerKey].(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadConfig loads the configuration named by --config, or the first one
// found in the standard locations, and applies command flag overrides.
func loadConfig(c *cli.Context) (*config.LoadResult, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}

	cfg := result.Config
	if c.IsSet("order") {
		cfg.Analysis.Order = c.String("order")
	}
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.IsSet("min-severity") {
		cfg.Output.MinSeverity = c.String("min-severity")
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	if c.Bool("include-unresolved") {
		cfg.Analysis.IncludeUnresolved = true
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// newOutput creates the output service for a command, writing to --output
// when set and to the app writer otherwise.
func newOutput(c *cli.Context, cfg *config.Config) (*outputsvc.Service, error) {
	opts := []outputsvc.Option{
		outputsvc.WithFormat(outputsvc.ParseFormat(cfg.Output.Format)),
		outputsvc.WithWriter(c.App.Writer),
		outputsvc.WithColor(cfg.Output.Color && !color.NoColor),
	}
	if path := c.String("output"); path != "" {
		opts = append(opts, outputsvc.WithFile(path))
	}
	return outputsvc.New(opts...)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// runAnalysis analyzes paths, cloning any remote repositories among them
// first and drawing progress bars on stderr when --progress is set.
func runAnalysis(ctx context.Context, c *cli.Context, cfg *config.Config, paths []string) (*analysis.Result, error) {
	if c.Bool("progress") {
		bars := progress.NewStageBars(c.App.ErrWriter)
		defer bars.Finish()
		ctx = analyzer.WithTracker(ctx, analyzer.NewTracker(bars.Callback()))
	}

	var cloneProgress io.Writer = io.Discard
	var spinner *progress.Tracker
	switch {
	case c.Bool("verbose"):
		cloneProgress = c.App.ErrWriter
	case c.Bool("progress") && hasRemote(paths):
		spinner = progress.NewSpinner(c.App.ErrWriter, "Cloning")
		cloneProgress = spinner
	}
	paths, cleanup, err := remote.Resolve(ctx, paths, cloneProgress)
	defer cleanup()
	if spinner != nil {
		if err != nil {
			spinner.FinishError(err)
		} else {
			spinner.FinishSuccess()
		}
	}
	if err != nil {
		return nil, err
	}

	opts := []analysis.Option{analysis.WithConfig(cfg), analysis.WithLogger(getLogger(c))}
	if c.Bool("cache") {
		store, err := cache.New(cache.DefaultDir, cache.DefaultTTL, true)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		opts = append(opts, analysis.WithCache(store))
	}
	return analysis.New(opts...).AnalyzePaths(ctx, paths)
}

func hasRemote(paths []string) bool {
	for _, p := range paths {
		if src, err := remote.Parse(p); err == nil && src != nil {
			return true
		}
	}
	return false
}

func metadata(c *cli.Context, source string, cfg *config.Config, paths []string) report.Metadata {
	sev, _ := models.ParseSeverity(cfg.Output.MinSeverity)
	return report.Metadata{
		Tool:         c.App.Name,
		Version:      c.App.Version,
		Paths:        paths,
		ConfigSource: source,
		MinSeverity:  sev,
	}
}

func noSources(res *analysis.Result) bool {
	return res.Analysis.Summary.AnalyzedFiles == 0 && res.Analysis.Summary.FailedFiles == 0
}

func warnf(c *cli.Context, format string, args ...any) {
	fmt.Fprintln(c.App.ErrWriter, color.YellowString(format, args...))
}

func successf(c *cli.Context, format string, args ...any) {
	fmt.Fprintln(c.App.ErrWriter, color.GreenString(format, args...))
}

// exitCode maps an error returned by the app to a process exit status.
func exitCode(err error) int {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}
