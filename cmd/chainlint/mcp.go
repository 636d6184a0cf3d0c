package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/chainlint/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes chainlint's
middleware analysis as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "chainlint": {
        "command": "chainlint",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_middleware    Duplication, ordering and consolidation issues
  - middleware_summary    Implementations, usages and conventional order`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry server.json manifest",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(c)
	defer cancel()

	server := mcpserver.NewServer(c.App.Version,
		mcpserver.WithConfig(loaded.Config),
		mcpserver.WithLogger(getLogger(c)),
	)
	return server.Run(ctx)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(c.App.Version)
	if err != nil {
		return fmt.Errorf("failed to generate manifest: %w", err)
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
