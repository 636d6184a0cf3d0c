package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/panbanda/chainlint/internal/output"
	"github.com/panbanda/chainlint/pkg/analyzer/middleware"
	"github.com/panbanda/chainlint/pkg/models"
)

const (
	reportTitle        = "Middleware Analysis"
	summaryTitle       = "Middleware Summary"
	maxTextDescription = 120
)

// Label title-cases a kebab-case identifier: "code-duplication" becomes
// "Code Duplication".
func Label(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "-", " "))
}

func num(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func location(issue models.Issue) string {
	if issue.Location.StartLine == 0 {
		return issue.File
	}
	return fmt.Sprintf("%s:%d", issue.File, issue.Location.StartLine)
}

func summaryLines(files models.AnalysisSummary, mw middleware.Summary) []string {
	lines := []string{
		fmt.Sprintf("Files: %s total, %s analyzed, %s skipped, %s failed",
			num(files.TotalFiles), num(files.AnalyzedFiles), num(files.SkippedFiles), num(files.FailedFiles)),
		fmt.Sprintf("Middleware: %s implementations, %s usages, %s unresolved",
			num(mw.TotalImplementations), num(mw.TotalUsages), num(mw.UnresolvedUsages)),
	}
	if mw.Similarity.Pairs > 0 {
		lines = append(lines, fmt.Sprintf("Similarity: %s pairs, mean %.2f, p95 %.2f, max %.2f",
			num(mw.Similarity.Pairs), mw.Similarity.Mean, mw.Similarity.P95, mw.Similarity.Max))
	}
	if len(mw.ConventionalOrder) > 0 {
		lines = append(lines, "Conventional order: "+strings.Join(mw.ConventionalOrder, " "+middleware.OrderSeparator+" "))
	}
	return lines
}

func patternsTable(patterns []middleware.OrderingPattern) *output.Table {
	rows := make([][]string, 0, len(patterns))
	for _, p := range patterns {
		rows = append(rows, []string{
			strings.Join(p.Names, " "+middleware.OrderSeparator+" "),
			num(len(p.Routes)),
			strings.Join(p.Routes, ", "),
		})
	}
	return output.NewTable("Ordering Patterns", []string{"Order", "Count", "Routes"}, rows, nil)
}

// build assembles the report. Text output truncates long descriptions.
func (r *IssueReport) build(forText bool) *output.Report {
	bySeverity := models.GroupBySeverity(r.Issues)

	var issueLine string
	if len(r.Issues) == 0 {
		issueLine = "Issues: none"
	} else {
		counts := make([]string, 0, len(models.Severities))
		for _, sev := range models.Severities {
			if n := len(bySeverity[sev]); n > 0 {
				counts = append(counts, fmt.Sprintf("%s %s", sev, num(n)))
			}
		}
		issueLine = fmt.Sprintf("Issues: %s (%s)", num(len(r.Issues)), strings.Join(counts, ", "))
	}
	lines := append(summaryLines(r.Summary, r.Middleware), issueLine)
	if r.Hidden > 0 {
		lines = append(lines, fmt.Sprintf("Hidden below %s: %s", r.Metadata.MinSeverity, num(r.Hidden)))
	}
	if r.Summary.DuplicateIssues > 0 {
		lines = append(lines, fmt.Sprintf("Duplicate findings dropped: %s", num(r.Summary.DuplicateIssues)))
	}

	rep := &output.Report{
		Title:    reportTitle,
		Sections: []output.Renderable{&output.Section{Title: "Summary", Content: strings.Join(lines, "\n")}},
	}

	for _, sev := range models.Severities {
		issues := bySeverity[sev]
		if len(issues) == 0 {
			continue
		}
		rows := make([][]string, 0, len(issues))
		for _, issue := range issues {
			desc := issue.Description
			if forText {
				desc = truncate(desc, maxTextDescription)
			}
			rows = append(rows, []string{location(issue), Label(string(issue.Type)), desc})
		}
		title := fmt.Sprintf("%s (%s)", Label(string(sev)), num(len(issues)))
		table := output.NewTable(title, []string{"Location", "Type", "Description"}, rows, nil)
		table.Severity = string(sev)
		rep.Sections = append(rep.Sections, table)
	}

	if len(r.Middleware.OrderingPatterns) > 0 {
		rep.Sections = append(rep.Sections, patternsTable(r.Middleware.OrderingPatterns))
	}

	if len(r.Unresolved) > 0 {
		rows := make([][]string, 0, len(r.Unresolved))
		for _, u := range r.Unresolved {
			rows = append(rows, []string{fmt.Sprintf("%s:%d", u.RouteFile, u.Line), truncate(u.CallText, maxTextDescription)})
		}
		rep.Sections = append(rep.Sections,
			output.NewTable("Unresolved Usages", []string{"Location", "Call"}, rows, nil))
	}

	if len(r.Errors) > 0 {
		rows := make([][]string, 0, len(r.Errors))
		for _, e := range r.Errors {
			rows = append(rows, []string{e.Path, e.Message})
		}
		rep.Sections = append(rep.Sections,
			output.NewTable("Errors", []string{"File", "Error"}, rows, nil))
	}

	return rep
}

func (r *IssueReport) RenderText(w io.Writer, colored bool) error {
	return r.build(true).RenderText(w, colored)
}

func (r *IssueReport) RenderMarkdown(w io.Writer) error {
	return r.build(false).RenderMarkdown(w)
}

func (r *IssueReport) RenderData() any {
	return r
}

func (r *SummaryReport) build() *output.Report {
	rep := &output.Report{
		Title: summaryTitle,
		Sections: []output.Renderable{
			&output.Section{Title: "Summary", Content: strings.Join(summaryLines(r.Files, r.Middleware), "\n")},
		},
	}

	if len(r.Middleware.ImplementationsByFile) > 0 {
		rep.Sections = append(rep.Sections, countTable("Implementations", "File",
			r.Middleware.ImplementationsByFile, r.Middleware.TotalImplementations))
	}

	if len(r.Middleware.UsagesByRoute) > 0 {
		rep.Sections = append(rep.Sections, countTable("Usages", "Route",
			r.Middleware.UsagesByRoute, r.Middleware.TotalUsages))
	}

	if len(r.Middleware.OrderingPatterns) > 0 {
		rep.Sections = append(rep.Sections, patternsTable(r.Middleware.OrderingPatterns))
	}
	return rep
}

func (r *SummaryReport) RenderText(w io.Writer, colored bool) error {
	return r.build().RenderText(w, colored)
}

func (r *SummaryReport) RenderMarkdown(w io.Writer) error {
	return r.build().RenderMarkdown(w)
}

func (r *SummaryReport) RenderData() any {
	return r
}

// countTable lists counts by sorted key with the total as footer.
func countTable(title, keyHeader string, counts map[string]int, total int) *output.Table {
	rows := make([][]string, 0, len(counts))
	for _, key := range slices.Sorted(maps.Keys(counts)) {
		rows = append(rows, []string{key, num(counts[key])})
	}
	return output.NewTable(title, []string{keyHeader, "Count"}, rows, []string{"Total", num(total)})
}
