package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/chainlint/internal/report"
	"github.com/panbanda/chainlint/pkg/config"
	"github.com/panbanda/chainlint/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch for file changes and re-analyze",
		ArgsUsage: "[path]",
		Description: `Runs an analysis, then re-runs it with a fresh session whenever source
files under the path change. Changes are batched until files have been
quiet for the debounce period.`,
		Flags: []cli.Flag{
			formatFlag(),
			orderFlag(),
			minSeverityFlag(),
			noColorFlag(),
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "How long files must be quiet before re-analyzing",
			},
		},
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg := loaded.Config

	root, err := filepath.Abs(getPaths(c)[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	w, err := watch.NewWatcher(root, cfg,
		watch.WithDebounce(c.Duration("debounce")),
		watch.WithLogger(getLogger(c)),
	)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Stop()

	ctx, cancel := signalContext(c)
	defer cancel()

	analyze := func(ctx context.Context) {
		if err := watchRun(ctx, c, loaded.Source, cfg, root); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(c.App.ErrWriter, color.RedString("Analysis failed: %v", err))
		}
	}
	w.OnChange(func(ctx context.Context, changed []string) {
		rel := make([]string, len(changed))
		for i, path := range changed {
			rel[i] = w.Rel(path)
		}
		fmt.Fprintln(c.App.Writer, color.YellowString("\nChanged: %s", strings.Join(rel, ", ")))
		fmt.Fprintln(c.App.Writer, strings.Repeat("-", 40))
		analyze(ctx)
	})

	analyze(ctx)
	fmt.Fprintln(c.App.ErrWriter, color.CyanString("Watching for changes in %s... (Ctrl+C to stop)", root))

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintln(c.App.ErrWriter, "\nStopping watch...")
	return nil
}

// watchRun analyzes root in a fresh session and prints the issue report.
func watchRun(ctx context.Context, c *cli.Context, source string, cfg *config.Config, root string) error {
	start := time.Now()
	res, err := runAnalysis(ctx, c, cfg, []string{root})
	if err != nil {
		return err
	}
	if noSources(res) {
		warnf(c, "No source files found")
		return nil
	}

	out, err := newOutput(c, cfg)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := out.Output(report.NewIssueReport(res, metadata(c, source, cfg, []string{root}))); err != nil {
		return err
	}
	getLogger(c).Debug("watch analysis complete", "duration", time.Since(start), "issues", len(res.Analysis.Issues))
	return nil
}
