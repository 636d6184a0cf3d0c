package mcpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/chainlint/internal/output"
	"github.com/panbanda/chainlint/internal/remote"
	"github.com/panbanda/chainlint/internal/report"
	"github.com/panbanda/chainlint/internal/service/analysis"
	"github.com/panbanda/chainlint/pkg/models"
)

// AnalyzeInput is the base input for all analyze tools.
type AnalyzeInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Paths or remote repositories (owner/repo[@ref] or a git URL) to analyze. Defaults to the current directory."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
	Order  string   `json:"order,omitempty" jsonschema:"Analysis order: scan or routes-first. Defaults to the configured order."`
}

// MiddlewareInput adds issue filtering options.
type MiddlewareInput struct {
	AnalyzeInput
	MinSeverity string `json:"min_severity,omitempty" jsonschema:"Lowest severity to report: low, medium, high or critical. Default low."`
	MaxTokens   int    `json:"max_tokens,omitempty" jsonschema:"Approximate token budget for the response. Less severe issues are dropped to fit."`
}

// SummaryInput is the input of middleware_summary.
type SummaryInput struct {
	AnalyzeInput
}

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input AnalyzeInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return textResult(text)
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// run analyzes the input paths with the server's configuration, overriding
// the order when the input names one. Remote repositories are cloned for the
// duration of the call.
func (s *Server) run(ctx context.Context, input AnalyzeInput) (*analysis.Result, error) {
	cfg := *s.config
	if input.Order != "" {
		cfg.Analysis.Order = input.Order
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	paths, cleanup, err := remote.Resolve(ctx, getPaths(input), nil)
	defer cleanup()
	if err != nil {
		return nil, err
	}

	svc := analysis.New(analysis.WithConfig(&cfg), analysis.WithLogger(s.logger))
	result, err := svc.AnalyzePaths(ctx, paths)
	if err != nil {
		return nil, err
	}
	if result.Analysis.Summary.AnalyzedFiles == 0 && result.Analysis.Summary.FailedFiles == 0 {
		return nil, errors.New("no source files found")
	}
	return result, nil
}

func (s *Server) metadata(input AnalyzeInput) report.Metadata {
	return report.Metadata{
		Tool:    "chainlint",
		Version: s.version,
		Paths:   getPaths(input),
	}
}

func (s *Server) handleAnalyzeMiddleware(ctx context.Context, req *mcp.CallToolRequest, input MiddlewareInput) (*mcp.CallToolResult, any, error) {
	minSeverity := models.SeverityLow
	if input.MinSeverity != "" {
		sev, ok := models.ParseSeverity(input.MinSeverity)
		if !ok {
			return toolError(fmt.Sprintf("invalid min_severity %q", input.MinSeverity))
		}
		minSeverity = sev
	}

	result, err := s.run(ctx, input.AnalyzeInput)
	if err != nil {
		return toolError(err.Error())
	}

	meta := s.metadata(input.AnalyzeInput)
	meta.MinSeverity = minSeverity
	rep := report.NewIssueReport(result, meta)
	format := getFormat(input.AnalyzeInput)

	if input.MaxTokens <= 0 {
		return toolResult(rep, format)
	}

	kept, text, err := output.FitToBudget(rep.Issues, input.MaxTokens, func(issues []models.Issue) (string, error) {
		trimmed := *rep
		trimmed.Issues = issues
		return formatOutput(&trimmed, format)
	})
	if err != nil {
		return nil, nil, err
	}
	if omitted := len(rep.Issues) - len(kept); omitted > 0 {
		text += fmt.Sprintf("\n%d less severe issues omitted to fit max_tokens=%d.\n", omitted, input.MaxTokens)
	}
	return textResult(text)
}

func (s *Server) handleMiddlewareSummary(ctx context.Context, req *mcp.CallToolRequest, input SummaryInput) (*mcp.CallToolResult, any, error) {
	result, err := s.run(ctx, input.AnalyzeInput)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(report.NewSummaryReport(result, s.metadata(input.AnalyzeInput)), getFormat(input.AnalyzeInput))
}
