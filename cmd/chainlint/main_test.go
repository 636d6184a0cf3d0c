package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/chainlint/internal/testutil"
	"github.com/panbanda/chainlint/pkg/config"
)

// runApp runs the CLI with args and returns what it wrote to stdout and
// stderr.
func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	app := newApp()
	var stdout, stderr bytes.Buffer
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"chainlint"}, args...))
	return stdout.String(), stderr.String(), err
}

type analyzeOutput struct {
	Issues []struct {
		Type     string `json:"type"`
		Severity string `json:"severity"`
		File     string `json:"file"`
	} `json:"issues"`
	Hidden   int `json:"hidden_below_min_severity"`
	Metadata struct {
		Tool         string `json:"tool"`
		ConfigSource string `json:"config_source"`
	} `json:"metadata"`
	Middleware struct {
		TotalImplementations int `json:"total_implementations"`
		TotalUsages          int `json:"total_usages"`
	} `json:"middleware"`
	Unresolved []struct {
		Line int `json:"line"`
	} `json:"unresolved"`
}

func decodeAnalyze(t *testing.T, stdout string) analyzeOutput {
	t.Helper()
	var out analyzeOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	return out
}

func TestGetPaths(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"no args defaults to current dir", []string{}, []string{"."}},
		{"single path", []string{"/foo/bar"}, []string{"/foo/bar"}},
		{"multiple paths", []string{"/foo", "/bar"}, []string{"/foo", "/bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &cli.App{
				Action: func(c *cli.Context) error {
					result := getPaths(c)
					if strings.Join(result, ",") != strings.Join(tt.expected, ",") {
						t.Errorf("getPaths() = %v, want %v", result, tt.expected)
					}
					return nil
				},
			}
			_ = app.Run(append([]string{"test"}, tt.args...))
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	quiet := newLogger(&buf, false)
	quiet.Info("hidden")
	quiet.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("non-verbose logger should log warnings only:\n%s", buf.String())
	}

	buf.Reset()
	verbose := newLogger(&buf, true)
	if !verbose.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("verbose logger should enable debug")
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(errors.New("boom")); got != 1 {
		t.Errorf("exitCode(plain) = %d, want 1", got)
	}
	if got := exitCode(cli.Exit("findings", exitFindings)); got != exitFindings {
		t.Errorf("exitCode(exit) = %d, want %d", got, exitFindings)
	}
}

func TestAnalyzeCommand(t *testing.T) {
	root := testutil.WriteMiddlewareProject(t)

	t.Run("json", func(t *testing.T) {
		stdout, _, err := runApp(t, "analyze", "-f", "json", root)
		if err != nil {
			t.Fatalf("analyze error: %v", err)
		}
		out := decodeAnalyze(t, stdout)
		if out.Metadata.Tool != "chainlint" {
			t.Errorf("tool = %q", out.Metadata.Tool)
		}
		if out.Middleware.TotalImplementations != 4 || out.Middleware.TotalUsages != 7 {
			t.Errorf("middleware = %+v", out.Middleware)
		}
		if len(out.Issues) == 0 || out.Issues[0].Severity != "high" {
			t.Errorf("expected the high ordering issue first, got %+v", out.Issues)
		}
	})

	t.Run("text", func(t *testing.T) {
		stdout, _, err := runApp(t, "analyze", "--no-color", root)
		if err != nil {
			t.Fatalf("analyze error: %v", err)
		}
		for _, want := range []string{"Middleware Analysis", "Summary", "Ordering Patterns"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("text output missing %q:\n%s", want, stdout)
			}
		}
	})

	t.Run("min severity", func(t *testing.T) {
		stdout, _, err := runApp(t, "analyze", "-f", "json", "--min-severity", "high", root)
		if err != nil {
			t.Fatalf("analyze error: %v", err)
		}
		out := decodeAnalyze(t, stdout)
		for _, issue := range out.Issues {
			if issue.Severity != "high" && issue.Severity != "critical" {
				t.Errorf("issue below min severity: %+v", issue)
			}
		}
		if out.Hidden == 0 {
			t.Error("expected hidden issues")
		}
	})

	t.Run("fail on", func(t *testing.T) {
		_, _, err := runApp(t, "analyze", "-f", "json", "--fail-on", "high", root)
		if err == nil {
			t.Fatal("expected an error when a high issue is found")
		}
		if exitCode(err) != exitFindings {
			t.Errorf("exit code = %d, want %d", exitCode(err), exitFindings)
		}

		_, _, err = runApp(t, "analyze", "-f", "json", "--fail-on", "critical", root)
		if err != nil {
			t.Errorf("no critical issues expected, got %v", err)
		}
	})

	t.Run("invalid fail on", func(t *testing.T) {
		_, _, err := runApp(t, "analyze", "--fail-on", "urgent", root)
		if err == nil || !strings.Contains(err.Error(), "urgent") {
			t.Errorf("expected invalid --fail-on error, got %v", err)
		}
	})

	t.Run("invalid order", func(t *testing.T) {
		_, _, err := runApp(t, "analyze", "--order", "random", root)
		if err == nil || !strings.Contains(err.Error(), "analysis.order") {
			t.Errorf("expected order validation error, got %v", err)
		}
	})

	t.Run("output file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.json")
		stdout, stderr, err := runApp(t, "analyze", "-f", "json", "-o", path, root)
		if err != nil {
			t.Fatalf("analyze error: %v", err)
		}
		if stdout != "" {
			t.Errorf("stdout should be empty when writing to a file, got %q", stdout)
		}
		if !strings.Contains(stderr, "Report written to "+path) {
			t.Errorf("stderr = %q", stderr)
		}
		decodeAnalyze(t, testutil.ReadFile(t, path))
	})
}

func TestAnalyzeCommandIncludeUnresolved(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"app/api/hooks/route.ts": "import express from 'express'\napp.use((req, res, next) => next());\napp.use(authenticate);\n",
		"src/middleware/auth.ts": "export function authenticate(req, res, next) {\n  if (!req.user) return res.status(401).end();\n  next();\n}\n",
	})

	stdout, _, err := runApp(t, "analyze", "-f", "json", "--include-unresolved", root)
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	out := decodeAnalyze(t, stdout)
	if len(out.Unresolved) != 1 || out.Unresolved[0].Line != 2 {
		t.Errorf("unresolved = %+v", out.Unresolved)
	}
}

func TestAnalyzeCommandNoSources(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "README.md"), "# docs\n")

	stdout, stderr, err := runApp(t, "analyze", root)
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	if stdout != "" || !strings.Contains(stderr, "No source files found") {
		t.Errorf("stdout = %q, stderr = %q", stdout, stderr)
	}
}

func TestAnalyzeCommandWithConfig(t *testing.T) {
	root := testutil.WriteMiddlewareProject(t)
	cfgPath := filepath.Join(t.TempDir(), "chainlint.yaml")
	testutil.WriteFile(t, cfgPath, "analysis:\n  order: routes-first\noutput:\n  format: json\n")

	stdout, _, err := runApp(t, "-c", cfgPath, "analyze", root)
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	out := decodeAnalyze(t, stdout)
	if out.Metadata.ConfigSource != cfgPath {
		t.Errorf("config source = %q, want %q", out.Metadata.ConfigSource, cfgPath)
	}
}

func TestSummaryCommand(t *testing.T) {
	root := testutil.WriteMiddlewareProject(t)

	stdout, _, err := runApp(t, "summary", "-f", "markdown", root)
	if err != nil {
		t.Fatalf("summary error: %v", err)
	}
	for _, want := range []string{"# Middleware Summary", "## Implementations", "## Usages", "src/middleware/auth.ts"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("summary missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "Inconsistent Pattern") {
		t.Error("summary should not list issues")
	}
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()

	t.Run("show defaults", func(t *testing.T) {
		stdout, _, err := runApp(t, "config", "show")
		if err != nil {
			t.Fatalf("config show error: %v", err)
		}
		if !strings.Contains(stdout, "[thresholds]") || !strings.Contains(stdout, "duplicate_similarity") {
			t.Errorf("unexpected config:\n%s", stdout)
		}
	})

	t.Run("show file", func(t *testing.T) {
		path := filepath.Join(dir, "chainlint.toml")
		testutil.WriteFile(t, path, "[analysis]\norder = \"routes-first\"\n")

		stdout, _, err := runApp(t, "-c", path, "config", "show")
		if err != nil {
			t.Fatalf("config show error: %v", err)
		}
		if !strings.HasPrefix(stdout, "# Configuration from: "+path) {
			t.Errorf("missing source header:\n%s", stdout)
		}
		if !strings.Contains(stdout, `order = "routes-first"`) {
			t.Errorf("override not shown:\n%s", stdout)
		}
	})

	t.Run("validate valid", func(t *testing.T) {
		path := filepath.Join(dir, "valid.toml")
		testutil.WriteFile(t, path, "[thresholds]\nduplicate_similarity = 0.9\n")

		stdout, _, err := runApp(t, "-c", path, "config", "validate")
		if err != nil {
			t.Fatalf("config validate error: %v", err)
		}
		if !strings.Contains(stdout, "Configuration valid: "+path) {
			t.Errorf("stdout = %q", stdout)
		}
	})

	t.Run("validate invalid", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.toml")
		testutil.WriteFile(t, path, "[thresholds]\nduplicate_similarity = 1.5\n")

		_, stderr, err := runApp(t, "-c", path, "config", "validate")
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(stderr, "Configuration validation failed") {
			t.Errorf("stderr = %q", stderr)
		}
	})

	t.Run("schema", func(t *testing.T) {
		stdout, _, err := runApp(t, "config", "schema")
		if err != nil {
			t.Fatalf("config schema error: %v", err)
		}
		var schema map[string]any
		if err := json.Unmarshal([]byte(stdout), &schema); err != nil {
			t.Errorf("schema is not JSON: %v", err)
		}
	})
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	t.Run("toml", func(t *testing.T) {
		path := filepath.Join(dir, ".chainlint", "chainlint.toml")
		_, stderr, err := runApp(t, "init", "-o", path)
		if err != nil {
			t.Fatalf("init error: %v", err)
		}
		if !strings.Contains(stderr, "Created "+path) {
			t.Errorf("stderr = %q", stderr)
		}

		content := testutil.ReadFile(t, path)
		if !strings.HasPrefix(content, "# chainlint configuration") {
			t.Errorf("missing header:\n%s", content)
		}

		result, err := config.LoadConfig(config.WithPath(path))
		if err != nil {
			t.Fatalf("generated TOML does not load: %v", err)
		}
		if result.Config.Thresholds.DuplicateSimilarity != config.DefaultConfig().Thresholds.DuplicateSimilarity {
			t.Error("generated TOML should hold the defaults")
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(dir, "existing.toml")
		testutil.WriteFile(t, path, "# mine\n")

		if _, _, err := runApp(t, "init", "-o", path); err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected already exists error, got %v", err)
		}
		if testutil.ReadFile(t, path) != "# mine\n" {
			t.Error("existing file was modified")
		}

		if _, _, err := runApp(t, "init", "-o", path, "--force"); err != nil {
			t.Fatalf("init --force error: %v", err)
		}
		if testutil.ReadFile(t, path) == "# mine\n" {
			t.Error("--force should overwrite")
		}
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "chainlint.yaml")
		if _, _, err := runApp(t, "init", "--yaml", "-o", path); err != nil {
			t.Fatalf("init --yaml error: %v", err)
		}
		content := testutil.ReadFile(t, path)
		if !strings.Contains(content, "duplicate_similarity: 0.8") {
			t.Errorf("unexpected YAML:\n%s", content)
		}
		if _, err := config.LoadConfig(config.WithPath(path)); err != nil {
			t.Errorf("generated YAML does not load: %v", err)
		}
	})

	t.Run("default name", func(t *testing.T) {
		wd, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		work := t.TempDir()
		if err := os.Chdir(work); err != nil {
			t.Fatal(err)
		}
		defer os.Chdir(wd)

		if _, _, err := runApp(t, "init", "--yaml"); err != nil {
			t.Fatalf("init error: %v", err)
		}
		if !testutil.FileExists(filepath.Join(work, "chainlint.yaml")) {
			t.Error("expected chainlint.yaml in the working directory")
		}
	})
}

func TestMCPManifestCommand(t *testing.T) {
	stdout, _, err := runApp(t, "mcp", "manifest")
	if err != nil {
		t.Fatalf("mcp manifest error: %v", err)
	}
	var manifest struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(stdout), &manifest); err != nil {
		t.Fatalf("manifest is not JSON: %v", err)
	}
	if manifest.Name != "io.github.panbanda/chainlint" {
		t.Errorf("name = %q", manifest.Name)
	}
}

func TestCacheCommands(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")

	stdout, _, err := runApp(t, "cache", "--dir", dir, "stats")
	if err != nil {
		t.Fatalf("cache stats error: %v", err)
	}
	if !strings.Contains(stdout, "Entries: 0") {
		t.Errorf("stdout = %q", stdout)
	}

	testutil.WriteFile(t, filepath.Join(dir, "entry.json"), "{}")
	stdout, _, err = runApp(t, "cache", "--dir", dir, "stats")
	if err != nil {
		t.Fatalf("cache stats error: %v", err)
	}
	if !strings.Contains(stdout, "Entries: 1") {
		t.Errorf("stdout = %q", stdout)
	}

	_, stderr, err := runApp(t, "cache", "--dir", dir, "clear")
	if err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if !strings.Contains(stderr, "Cache cleared") || testutil.FileExists(filepath.Join(dir, "entry.json")) {
		t.Errorf("cache not cleared, stderr = %q", stderr)
	}
}
