package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/chainlint/internal/cache"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear cached analysis results",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Value: cache.DefaultDir,
				Usage: "Cache directory",
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache statistics",
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove all cached results",
				Action: runCacheClear,
			},
		},
	}
}

func openCache(c *cli.Context) (*cache.Cache, error) {
	return cache.New(c.String("dir"), cache.DefaultTTL, true)
}

func runCacheStats(c *cli.Context) error {
	store, err := openCache(c)
	if err != nil {
		return err
	}
	stats, err := store.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Entries: %d\n", stats.Entries)
	fmt.Fprintf(c.App.Writer, "Size:    %d bytes\n", stats.TotalSize)
	if stats.Entries > 0 {
		fmt.Fprintf(c.App.Writer, "Oldest:  %s ago\n", stats.OldestAge.Round(time.Second))
		fmt.Fprintf(c.App.Writer, "Newest:  %s ago\n", stats.NewestAge.Round(time.Second))
	}
	return nil
}

func runCacheClear(c *cli.Context) error {
	store, err := openCache(c)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	successf(c, "Cache cleared: %s", c.String("dir"))
	return nil
}
