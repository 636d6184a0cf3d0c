package models

import "time"

// AnalysisResult is the aggregated outcome of one analysis run.
type AnalysisResult struct {
	Issues      []Issue         `json:"issues"`
	Summary     AnalysisSummary `json:"summary"`
	Metrics     AnalysisMetrics `json:"metrics"`
	Errors      []FileError     `json:"errors,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// AnalysisSummary holds run counts and issue groupings.
type AnalysisSummary struct {
	TotalFiles       int                   `json:"total_files"`
	AnalyzedFiles    int                   `json:"analyzed_files"`
	SkippedFiles     int                   `json:"skipped_files"`
	FailedFiles      int                   `json:"failed_files"`
	TotalIssues      int                   `json:"total_issues"`
	DuplicateIssues  int                   `json:"duplicate_issues"` // dropped by fingerprint
	IssuesByType     map[IssueType]int     `json:"issues_by_type"`
	IssuesByCategory map[IssueCategory]int `json:"issues_by_category"`
	IssuesBySeverity map[Severity]int      `json:"issues_by_severity"`
	IssuesByFile     map[string]int        `json:"issues_by_file"`
	FilesByCategory  map[FileCategory]int  `json:"files_by_category"`
}

// AnalysisMetrics records where a run spent its time.
type AnalysisMetrics struct {
	Duration       time.Duration `json:"duration_ns"`
	ParseTime      time.Duration `json:"parse_time_ns"`
	AnalysisTime   time.Duration `json:"analysis_time_ns"`
	AveragePerFile time.Duration `json:"average_per_file_ns"`
	Files          []FileMetrics `json:"files,omitempty"`
}

// FileMetrics records per-file timings.
type FileMetrics struct {
	Path         string        `json:"path"`
	Category     FileCategory  `json:"category"`
	ParseTime    time.Duration `json:"parse_time_ns"`
	AnalysisTime time.Duration `json:"analysis_time_ns"`
	Issues       int           `json:"issues"`
}

// FileError records a file that could not be analyzed.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// NewAnalysisSummary returns a summary with every grouping initialized.
func NewAnalysisSummary() AnalysisSummary {
	return AnalysisSummary{
		IssuesByType:     make(map[IssueType]int),
		IssuesByCategory: make(map[IssueCategory]int),
		IssuesBySeverity: make(map[Severity]int),
		IssuesByFile:     make(map[string]int),
		FilesByCategory:  make(map[FileCategory]int),
	}
}

// Count adds issue to the groupings.
func (s *AnalysisSummary) Count(issue Issue) {
	s.TotalIssues++
	s.IssuesByType[issue.Type]++
	s.IssuesByCategory[issue.Category]++
	s.IssuesBySeverity[issue.Severity]++
	s.IssuesByFile[issue.File]++
}

// GroupBySeverity buckets issues by severity, preserving input order within each bucket.
func GroupBySeverity(issues []Issue) map[Severity][]Issue {
	groups := make(map[Severity][]Issue)
	for _, issue := range issues {
		groups[issue.Severity] = append(groups[issue.Severity], issue)
	}
	return groups
}

// Dedupe drops issues whose fingerprint was already seen, keeping the first.
// Issues without a fingerprint are always kept. It returns the kept issues
// and the number dropped.
func Dedupe(issues []Issue) ([]Issue, int) {
	seen := make(map[string]struct{}, len(issues))
	kept := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.Fingerprint != "" {
			if _, dup := seen[issue.Fingerprint]; dup {
				continue
			}
			seen[issue.Fingerprint] = struct{}{}
		}
		kept = append(kept, issue)
	}
	return kept, len(issues) - len(kept)
}
