package main

import (
	"github.com/urfave/cli/v2"

	"github.com/panbanda/chainlint/internal/report"
)

func summaryCmd() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Summarize discovered middleware and ordering conventions",
		ArgsUsage: "[path...]",
		Description: `Lists where middleware is implemented, how often each route applies it,
the distinct chain orderings in use and the conventional order they imply.`,
		Flags: []cli.Flag{
			formatFlag(),
			outputFlag(),
			orderFlag(),
			noColorFlag(),
			cacheFlag(),
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show progress bars on stderr",
			},
		},
		Action: runSummaryCmd,
	}
}

func runSummaryCmd(c *cli.Context) error {
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

	return out.Output(report.NewSummaryReport(res, metadata(c, loaded.Source, cfg, paths)))
}
