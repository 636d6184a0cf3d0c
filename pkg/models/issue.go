package models

import (
	"sort"
	"time"
)

// IssueType is the kind of problem an issue reports.
type IssueType string

const (
	IssueBackwardCompatibility IssueType = "backward-compatibility"
	IssueLegacyCode            IssueType = "legacy-code"
	IssueUnnecessaryAdapter    IssueType = "unnecessary-adapter"
	IssueConfusingLogic        IssueType = "confusing-logic"
	IssueCodeDuplication       IssueType = "code-duplication"
	IssueInconsistentPattern   IssueType = "inconsistent-pattern"
	IssuePoorNaming            IssueType = "poor-naming"
	IssueMissingErrorHandling  IssueType = "missing-error-handling"
	IssueTypeSafety            IssueType = "type-safety"
	IssueArchitectural         IssueType = "architectural"
)

// IssueCategory groups issues by area of the codebase.
type IssueCategory string

const (
	IssueCategoryAuthentication IssueCategory = "authentication"
	IssueCategoryDatabase       IssueCategory = "database"
	IssueCategoryAPIRoutes      IssueCategory = "api-routes"
	IssueCategoryComponents     IssueCategory = "components"
	IssueCategoryServices       IssueCategory = "services"
	IssueCategoryTypes          IssueCategory = "types"
	IssueCategoryMiddleware     IssueCategory = "middleware"
	IssueCategoryErrorHandling  IssueCategory = "error-handling"
	IssueCategoryGeneral        IssueCategory = "general"
)

// Severity is the urgency of an issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Severities lists severities from most to least urgent.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Rank orders severities: higher is more urgent. Unknown severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// AtLeast reports whether s is at least as urgent as min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// ParseSeverity returns the severity named by s and whether it is known.
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(s)
	return sev, sev.Rank() > 0
}

// EffortLevel estimates the work needed to fix an issue.
type EffortLevel string

const (
	EffortTrivial EffortLevel = "trivial"
	EffortSmall   EffortLevel = "small"
	EffortMedium  EffortLevel = "medium"
	EffortLarge   EffortLevel = "large"
)

// CodeLocation is a 1-based source range.
type CodeLocation struct {
	StartLine   int `json:"start_line"`
	EndLine     int `json:"end_line"`
	StartColumn int `json:"start_column"`
	EndColumn   int `json:"end_column"`
}

// Issue is a single finding.
type Issue struct {
	ID              string        `json:"id"`
	Type            IssueType     `json:"type"`
	Severity        Severity      `json:"severity"`
	Category        IssueCategory `json:"category"`
	File            string        `json:"file"`
	Location        CodeLocation  `json:"location"`
	Description     string        `json:"description"`
	CodeSnippet     string        `json:"code_snippet"`
	Recommendation  string        `json:"recommendation"`
	EstimatedEffort EffortLevel   `json:"estimated_effort"`
	Tags            []string      `json:"tags"`
	DetectedBy      string        `json:"detected_by"`
	DetectedAt      time.Time     `json:"detected_at"`
	RelatedIssues   []string      `json:"related_issues"`
	// Fingerprint identifies the finding independent of ID and detection time.
	Fingerprint string `json:"fingerprint"`
}

// SortIssues orders issues by severity (most urgent first), then file, then line.
func SortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Location.StartLine < b.Location.StartLine
	})
}

// FilterBySeverity returns the issues at least as urgent as min.
func FilterBySeverity(issues []Issue, min Severity) []Issue {
	if min.Rank() <= 1 {
		return issues
	}
	filtered := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.Severity.AtLeast(min) {
			filtered = append(filtered, issue)
		}
	}
	return filtered
}
