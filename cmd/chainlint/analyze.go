package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/chainlint/internal/report"
	"github.com/panbanda/chainlint/pkg/models"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Report middleware duplication, ordering and consolidation issues",
		ArgsUsage: "[path...]",
		Description: `Scans the given directories or files, discovers middleware implementations
and usages, and reports issues grouped by severity.

Examples:
  chainlint analyze                          # Analyze the current directory
  chainlint analyze src app --order routes-first
  chainlint analyze -f json -o report.json
  chainlint analyze --fail-on high           # Exit 2 when a high or critical issue is found`,
		Flags: []cli.Flag{
			formatFlag(),
			outputFlag(),
			orderFlag(),
			minSeverityFlag(),
			noColorFlag(),
			cacheFlag(),
			&cli.BoolFlag{
				Name:  "include-unresolved",
				Usage: "List usage calls whose middleware name could not be determined",
			},
			&cli.StringFlag{
				Name:  "fail-on",
				Usage: "Exit with status 2 when an issue at or above this severity is reported",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show progress bars on stderr",
			},
		},
		Action: runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	var failOn models.Severity
	if s := c.String("fail-on"); s != "" {
		sev, ok := models.ParseSeverity(s)
		if !ok {
			return fmt.Errorf("invalid --fail-on %q: must be low, medium, high or critical", s)
		}
		failOn = sev
	}

	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	paths := getPaths(c)

	ctx, cancel := signalContext(c)
	defer cancel()

	res, err := runAnalysis(ctx, c, cfg, paths)
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

	rep := report.NewIssueReport(res, metadata(c, loaded.Source, cfg, paths))
	if err := out.Output(rep); err != nil {
		return err
	}
	if path := c.String("output"); path != "" {
		successf(c, "Report written to %s", path)
	}

	if failOn != "" {
		if n := countAtLeast(rep.Issues, failOn); n > 0 {
			return cli.Exit(fmt.Sprintf("%d issues at or above %s", n, failOn), exitFindings)
		}
	}
	return nil
}

func countAtLeast(issues []models.Issue, min models.Severity) int {
	n := 0
	for _, issue := range issues {
		if issue.Severity.AtLeast(min) {
			n++
		}
	}
	return n
}
