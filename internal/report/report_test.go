package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/chainlint/internal/output"
	"github.com/panbanda/chainlint/internal/service/analysis"
	"github.com/panbanda/chainlint/pkg/analyzer/middleware"
	"github.com/panbanda/chainlint/pkg/models"
)

func sampleResult() *analysis.Result {
	summary := models.NewAnalysisSummary()
	summary.TotalFiles = 1200
	summary.AnalyzedFiles = 1180
	summary.FailedFiles = 1

	issues := []models.Issue{
		{Type: models.IssueLegacyCode, Severity: models.SeverityLow, File: "src/middleware/legacy.ts",
			Location: models.CodeLocation{StartLine: 1}, Description: `Middleware "checkAuthLegacy" is exported but used in only one place`},
		{Type: models.IssueInconsistentPattern, Severity: models.SeverityHigh, File: "app/api/admin/route.ts",
			Location: models.CodeLocation{StartLine: 2}, Description: "validation middleware runs before authentication " + strings.Repeat("x", 200)},
		{Type: models.IssueCodeDuplication, Severity: models.SeverityMedium, File: "src/middleware/legacy.ts",
			Location: models.CodeLocation{StartLine: 1}, Description: "Duplicate middleware logic detected"},
	}
	for _, issue := range issues {
		summary.Count(issue)
	}

	return &analysis.Result{
		Analysis: &models.AnalysisResult{
			Issues:      issues,
			Summary:     summary,
			Errors:      []models.FileError{{Path: "src/broken.ts", Message: "syntax error"}},
			GeneratedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		Middleware: middleware.Summary{
			TotalImplementations:  4,
			TotalUsages:           7,
			ImplementationsByFile: map[string]int{"src/middleware/auth.ts": 2, "src/lib/validation.ts": 1},
			UsagesByRoute:         map[string]int{"app/api/users/route.ts": 2},
			OrderingPatterns: []middleware.OrderingPattern{
				{Key: "authenticate→validateBody", Names: []string{"authenticate", "validateBody"},
					Routes: []string{"app/api/posts/route.ts", "app/api/users/route.ts"}},
			},
			ConventionalOrder: []string{"authenticate", "validateBody"},
		},
		Unresolved: []analysis.UnresolvedCall{{RouteFile: "app/api/hooks/route.ts", Line: 2, CallText: "app.use((req, res, next) => next())"}},
	}
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"code-duplication":     "Code Duplication",
		"inconsistent-pattern": "Inconsistent Pattern",
		"high":                 "High",
		"":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Label(in), in)
	}
}

func TestNewIssueReport(t *testing.T) {
	t.Run("sorts by severity", func(t *testing.T) {
		r := NewIssueReport(sampleResult(), Metadata{})
		require.Len(t, r.Issues, 3)
		assert.Equal(t, models.SeverityHigh, r.Issues[0].Severity)
		assert.Equal(t, models.SeverityMedium, r.Issues[1].Severity)
		assert.Equal(t, models.SeverityLow, r.Issues[2].Severity)
		assert.Zero(t, r.Hidden)
		assert.Equal(t, models.SeverityLow, r.Metadata.MinSeverity)
		assert.Equal(t, 2026, r.Metadata.GeneratedAt.Year())
	})

	t.Run("filters by min severity", func(t *testing.T) {
		res := sampleResult()
		r := NewIssueReport(res, Metadata{MinSeverity: models.SeverityMedium})
		assert.Len(t, r.Issues, 2)
		assert.Equal(t, 1, r.Hidden)
		assert.Len(t, res.Analysis.Issues, 3, "result must not be modified")
		assert.Equal(t, models.SeverityLow, res.Analysis.Issues[0].Severity, "result order must not change")
	})
}

func TestIssueReportRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewIssueReport(sampleResult(), Metadata{}).RenderText(&buf, false))
	out := buf.String()

	for _, want := range []string{
		"Middleware Analysis",
		"Files: 1,200 total, 1,180 analyzed, 0 skipped, 1 failed",
		"Middleware: 4 implementations, 7 usages, 0 unresolved",
		"Conventional order: authenticate → validateBody",
		"Issues: 3 (high 1, medium 1, low 1)",
		"High (1)",
		"app/api/admin/route.ts:2",
		"Inconsistent Pattern",
		"Ordering Patterns",
		"Unresolved Usages",
		"src/broken.ts",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, strings.Repeat("x", 200), "long descriptions are truncated in text")
	assert.Less(t, strings.Index(out, "High (1)"), strings.Index(out, "Low (1)"))
}

func TestIssueReportRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewIssueReport(sampleResult(), Metadata{}).RenderMarkdown(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Middleware Analysis"))
	assert.Contains(t, out, "## Medium (1)")
	assert.Contains(t, out, "| Location | Type | Description |")
	assert.Contains(t, out, strings.Repeat("x", 200), "markdown keeps full descriptions")
}

func TestIssueReportRenderData(t *testing.T) {
	r := NewIssueReport(sampleResult(), Metadata{Tool: "chainlint", Version: "test"})

	var buf bytes.Buffer
	require.NoError(t, output.NewWriterFormatter(output.FormatJSON, &buf, false).Output(r))

	var decoded struct {
		Metadata   Metadata       `json:"metadata"`
		Issues     []models.Issue `json:"issues"`
		Middleware struct {
			TotalUsages int `json:"total_usages"`
		} `json:"middleware"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "chainlint", decoded.Metadata.Tool)
	assert.Len(t, decoded.Issues, 3)
	assert.Equal(t, 7, decoded.Middleware.TotalUsages)
}

func TestIssueReportEmpty(t *testing.T) {
	res := &analysis.Result{Analysis: &models.AnalysisResult{Issues: []models.Issue{}, Summary: models.NewAnalysisSummary()}}
	var buf bytes.Buffer
	require.NoError(t, NewIssueReport(res, Metadata{}).RenderText(&buf, false))
	assert.Contains(t, buf.String(), "Issues: none")
	assert.NotContains(t, buf.String(), "Ordering Patterns")
}

func TestSummaryReport(t *testing.T) {
	r := NewSummaryReport(sampleResult(), Metadata{})

	var text bytes.Buffer
	require.NoError(t, r.RenderText(&text, false))
	out := text.String()
	assert.Contains(t, out, "Middleware Summary")
	assert.Contains(t, out, "Implementations")
	assert.Less(t, strings.Index(out, "src/lib/validation.ts"), strings.Index(out, "src/middleware/auth.ts"), "files are sorted")

	var md bytes.Buffer
	require.NoError(t, r.RenderMarkdown(&md))
	assert.Contains(t, md.String(), "## Usages")
	assert.Contains(t, md.String(), "| Total | 7 |")
	assert.Contains(t, md.String(), "| Total | 4 |")
	assert.Same(t, r, r.RenderData())
}
