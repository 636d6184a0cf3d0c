// Package report turns analysis results into renderable reports.
package report

import (
	"time"

	"github.com/panbanda/chainlint/internal/service/analysis"
	"github.com/panbanda/chainlint/pkg/analyzer/middleware"
	"github.com/panbanda/chainlint/pkg/models"
)

// Metadata contains report generation metadata.
type Metadata struct {
	Tool         string          `json:"tool"`
	Version      string          `json:"version"`
	GeneratedAt  time.Time       `json:"generated_at"`
	Paths        []string        `json:"paths"`
	ConfigSource string          `json:"config_source,omitempty"`
	MinSeverity  models.Severity `json:"min_severity"`
}

// IssueReport is the result of an analyze run, filtered and sorted for
// display.
type IssueReport struct {
	Metadata   Metadata                  `json:"metadata"`
	Issues     []models.Issue            `json:"issues"`
	Hidden     int                       `json:"hidden_below_min_severity"`
	Summary    models.AnalysisSummary    `json:"summary"`
	Metrics    models.AnalysisMetrics    `json:"metrics"`
	Middleware middleware.Summary        `json:"middleware"`
	Errors     []models.FileError        `json:"errors,omitempty"`
	Unresolved []analysis.UnresolvedCall `json:"unresolved,omitempty"`
}

// NewIssueReport builds a report from res, keeping issues at least as
// severe as meta.MinSeverity, most severe first.
func NewIssueReport(res *analysis.Result, meta Metadata) *IssueReport {
	if meta.MinSeverity == "" {
		meta.MinSeverity = models.SeverityLow
	}
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = res.Analysis.GeneratedAt
	}

	issues := make([]models.Issue, len(res.Analysis.Issues))
	copy(issues, res.Analysis.Issues)
	shown := models.FilterBySeverity(issues, meta.MinSeverity)
	models.SortIssues(shown)

	return &IssueReport{
		Metadata:   meta,
		Issues:     shown,
		Hidden:     len(issues) - len(shown),
		Summary:    res.Analysis.Summary,
		Metrics:    res.Analysis.Metrics,
		Middleware: res.Middleware,
		Errors:     res.Analysis.Errors,
		Unresolved: res.Unresolved,
	}
}

// SummaryReport describes the middleware a run discovered without listing
// issues.
type SummaryReport struct {
	Metadata   Metadata               `json:"metadata"`
	Files      models.AnalysisSummary `json:"files"`
	Middleware middleware.Summary     `json:"middleware"`
}

// NewSummaryReport builds a summary report from res.
func NewSummaryReport(res *analysis.Result, meta Metadata) *SummaryReport {
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = res.Analysis.GeneratedAt
	}
	return &SummaryReport{
		Metadata:   meta,
		Files:      res.Analysis.Summary,
		Middleware: res.Middleware,
	}
}
