package middleware

import (
	"encoding/hex"
	"strconv"

	"github.com/google/uuid"
	"github.com/panbanda/chainlint/pkg/ast"
	"github.com/panbanda/chainlint/pkg/models"
	"github.com/zeebo/blake3"
)

// maxSnippetLength bounds Issue.CodeSnippet, excluding the "..." suffix.
const maxSnippetLength = 200

type issueFields struct {
	typ            models.IssueType
	severity       models.Severity
	file           string
	node           *ast.Node
	description    string
	recommendation string
	effort         models.EffortLevel
	tags           []string
}

func (a *Analyzer) newIssue(fields issueFields) models.Issue {
	issue := models.Issue{
		ID:              uuid.NewString(),
		Type:            fields.typ,
		Severity:        fields.severity,
		Category:        models.IssueCategoryMiddleware,
		File:            fields.file,
		Description:     fields.description,
		Recommendation:  fields.recommendation,
		EstimatedEffort: fields.effort,
		Tags:            fields.tags,
		DetectedBy:      AnalyzerName,
		DetectedAt:      a.now(),
		RelatedIssues:   []string{},
	}
	if issue.Tags == nil {
		issue.Tags = []string{}
	}
	if fields.node != nil {
		issue.Location = models.CodeLocation{
			StartLine:   fields.node.Start.Line,
			EndLine:     fields.node.End.Line,
			StartColumn: fields.node.Start.Column,
			EndColumn:   fields.node.End.Column,
		}
		issue.CodeSnippet = codeSnippet(fields.node.Text)
	}
	issue.Fingerprint = Fingerprint(issue)
	return issue
}

func codeSnippet(text string) string {
	runes := []rune(text)
	if len(runes) <= maxSnippetLength {
		return text
	}
	return string(runes[:maxSnippetLength]) + "..."
}

// Fingerprint identifies a finding by what was found and where, ignoring
// its ID and detection time.
func Fingerprint(issue models.Issue) string {
	h := blake3.New()
	for _, part := range []string{
		string(issue.Type),
		string(issue.Severity),
		issue.File,
		strconv.Itoa(issue.Location.StartLine),
		strconv.Itoa(issue.Location.StartColumn),
		issue.Description,
	} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
