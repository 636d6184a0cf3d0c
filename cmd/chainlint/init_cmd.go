package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/chainlint/pkg/config"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new chainlint configuration file",
		Description: `Creates a chainlint.toml configuration file in the current directory
with the default settings. Use --yaml for chainlint.yaml and --output to
choose a different location.

Examples:
  chainlint init                              # Creates chainlint.toml
  chainlint init --yaml                       # Creates chainlint.yaml
  chainlint init -o .chainlint/chainlint.toml
  chainlint init --force                      # Overwrite an existing file`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default chainlint.toml, or chainlint.yaml with --yaml)",
			},
			&cli.BoolFlag{
				Name:  "yaml",
				Usage: "Write YAML instead of TOML",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing config file",
			},
		},
		Action: runInit,
	}
}

func runInit(c *cli.Context) error {
	asYAML := c.Bool("yaml")
	outputPath := c.String("output")
	if outputPath == "" {
		outputPath = "chainlint.toml"
		if asYAML {
			outputPath = "chainlint.yaml"
		}
	}

	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig(asYAML)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	successf(c, "Created %s", outputPath)
	fmt.Fprintln(c.App.ErrWriter, "Edit this file to customize analysis settings.")
	return nil
}

func generateDefaultConfig(asYAML bool) (string, error) {
	cfg := config.DefaultConfig()

	var (
		content []byte
		err     error
	)
	if asYAML {
		content, err = yaml.Marshal(cfg)
	} else {
		content, err = toml.Marshal(cfg)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal default config: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# chainlint configuration\n")
	buf.WriteString("# Documentation: https://github.com/panbanda/chainlint\n\n")
	buf.Write(content)
	return buf.String(), nil
}
