package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(exitCode(err))
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "chainlint",
		Usage:    "Middleware pattern analysis for TypeScript and JavaScript",
		Version:  version,
		Metadata: make(map[string]interface{}),
		// main maps errors to exit codes.
		ExitErrHandler: func(*cli.Context, error) {},
		Description: `chainlint finds middleware in TypeScript and JavaScript projects and reports
duplicated implementations, inconsistent or unsafe chain ordering, and
middleware that is unused or small enough to inline.

Route files (app/api/**, pages/api/**, routes/**) are read for .use() and
.apply() calls; middleware, service and util files are checked for
implementations.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"CHAINLINT_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose logging on stderr",
			},
			&cli.StringFlag{
				Name:  "pprof",
				Usage: "Enable pprof profiling and write to specified prefix (creates <prefix>.cpu.pprof and <prefix>.mem.pprof)",
			},
		},
		Before: func(c *cli.Context) error {
			c.App.Metadata[loggerKey] = newLogger(c.App.ErrWriter, c.Bool("verbose"))

			if prefix := c.String("pprof"); prefix != "" {
				cpuFile, err := os.Create(prefix + ".cpu.pprof")
				if err != nil {
					return fmt.Errorf("failed to create CPU profile: %w", err)
				}
				if err := pprof.StartCPUProfile(cpuFile); err != nil {
					cpuFile.Close()
					return fmt.Errorf("failed to start CPU profile: %w", err)
				}
				c.App.Metadata["pprofCPU"] = cpuFile
			}
			return nil
		},
		After: func(c *cli.Context) error {
			prefix := c.String("pprof")
			if prefix == "" {
				return nil
			}
			pprof.StopCPUProfile()
			if cpuFile, ok := c.App.Metadata["pprofCPU"].(*os.File); ok {
				cpuFile.Close()
				color.Green("CPU profile written to %s.cpu.pprof", prefix)
			}

			memFile, err := os.Create(prefix + ".mem.pprof")
			if err != nil {
				return fmt.Errorf("failed to create memory profile: %w", err)
			}
			defer memFile.Close()

			runtime.GC()
			if err := pprof.WriteHeapProfile(memFile); err != nil {
				return fmt.Errorf("failed to write memory profile: %w", err)
			}
			color.Green("Memory profile written to %s.mem.pprof", prefix)
			return nil
		},
		Commands: []*cli.Command{
			analyzeCmd(),
			summaryCmd(),
			watchCmd(),
			mcpCmd(),
			configCmd(),
			cacheCmd(),
			initCmd(),
		},
	}
}
