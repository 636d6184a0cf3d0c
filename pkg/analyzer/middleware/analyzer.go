package middleware

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/panbanda/chainlint/pkg/ast"
	"github.com/panbanda/chainlint/pkg/config"
	"github.com/panbanda/chainlint/pkg/models"
)

const standardOrder = "Standard order: authentication → authorization → validation → business logic."

// Analyzer detects middleware duplication, ordering problems and
// consolidation opportunities. It is stateless; all accumulated state lives
// in the Session passed to Analyze.
type Analyzer struct {
	config Config
	now    func() time.Time
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithConfig sets the thresholds from the configuration file section.
func WithConfig(cfg config.ThresholdsConfig) Option {
	return func(a *Analyzer) {
		a.config = configFromThresholds(cfg)
	}
}

// WithThresholds sets the thresholds directly.
func WithThresholds(cfg Config) Option {
	return func(a *Analyzer) {
		a.config = cfg
	}
}

// WithClock sets the time source used for Issue.DetectedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// New creates a new middleware analyzer with default thresholds.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		config: DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the analyzer name recorded in Issue.DetectedBy.
func (a *Analyzer) Name() string {
	return AnalyzerName
}

var supportedCategories = []models.FileCategory{
	models.CategoryMiddleware,
	models.CategoryAPIRoute,
	models.CategoryService,
	models.CategoryUtil,
}

// SupportedCategories returns the file categories worth analyzing.
func (a *Analyzer) SupportedCategories() []models.FileCategory {
	out := make([]models.FileCategory, len(supportedCategories))
	copy(out, supportedCategories)
	return out
}

// Supports reports whether files of category c should be analyzed.
func (a *Analyzer) Supports(c models.FileCategory) bool {
	for _, sc := range supportedCategories {
		if sc == c {
			return true
		}
	}
	return false
}

// Analyze registers the middleware declared in file, records its usages
// when it is a route, then runs duplicate, ordering and consolidation
// detection against everything the session has seen so far. It never fails;
// a file without middleware yields no issues.
func (a *Analyzer) Analyze(s *Session, file models.FileInfo, tree ast.File) []models.Issue {
	path := file.DisplayPath()

	impls := Discover(tree, path)
	s.register(impls)

	var issues []models.Issue
	if isMiddlewareFile(file) {
		issues = append(issues, a.discoveryIssues(path, impls)...)
	}

	if file.Category == models.CategoryAPIRoute {
		s.recordUsages(TrackUsage(tree, path))
	}

	issues = append(issues, a.detectDuplicates(s, path)...)
	issues = append(issues, a.detectInconsistentOrdering(s, file, path)...)
	issues = append(issues, a.detectConsolidation(s, path)...)

	return issues
}

func isMiddlewareFile(file models.FileInfo) bool {
	return file.Category == models.CategoryMiddleware ||
		strings.Contains(strings.ToLower(file.RelativePath), "middleware")
}

func (a *Analyzer) discoveryIssues(path string, impls []Implementation) []models.Issue {
	issues := make([]models.Issue, 0, len(impls))
	for _, impl := range impls {
		exported := "Not exported"
		if impl.Exported {
			exported = "Exported"
		}

		fields := issueFields{
			typ:      models.IssueArchitectural,
			severity: models.SeverityLow,
			file:     path,
			node:     impl.Node,
			effort:   models.EffortTrivial,
		}
		if impl.Type == TypeClass {
			fields.description = fmt.Sprintf("Middleware class found: %q. %s.", impl.Name, exported)
			fields.recommendation = "Consider exporting this middleware class if it should be reusable, or remove it if unused."
			if impl.Exported {
				fields.recommendation = "Ensure this middleware class follows consistent patterns and is properly documented."
			}
			fields.tags = []string{"middleware", "discovery", "class", "documentation"}
		} else {
			fields.description = fmt.Sprintf("Middleware implementation found: %q. %s.", impl.Name, exported)
			fields.recommendation = "Consider exporting this middleware if it should be reusable, or remove it if unused."
			if impl.Exported {
				fields.recommendation = "Ensure this middleware is properly documented and follows consistent patterns."
			}
			fields.tags = []string{"middleware", "discovery", "documentation"}
		}
		issues = append(issues, a.newIssue(fields))
	}
	return issues
}

// detectDuplicates compares each implementation of the file with every
// registered implementation. Pairs within the file are compared once.
func (a *Analyzer) detectDuplicates(s *Session, path string) []models.Issue {
	var issues []models.Issue
	for i, current := range s.implementations {
		if current.File != path {
			continue
		}
		for j, other := range s.implementations {
			if i == j || (other.File == current.File && i > j) {
				continue
			}

			score := s.similarity(i, j)
			percent := int(math.Round(score * 100))

			switch {
			case score > a.config.DuplicateSimilarity:
				issues = append(issues, a.newIssue(issueFields{
					typ:      models.IssueCodeDuplication,
					severity: models.SeverityMedium,
					file:     path,
					node:     current.Node,
					description: fmt.Sprintf("Duplicate middleware logic detected. Middleware %q is %d%% similar to %q in %s:%d.",
						current.Name, percent, other.Name, other.File, other.Node.Start.Line),
					recommendation: "Consider consolidating these middleware implementations into a single reusable function. Extract common logic into a shared middleware utility.",
					effort:         models.EffortSmall,
					tags:           []string{"middleware", "duplication", "consolidation", "refactoring"},
				}))
			case score > a.config.SimilarSimilarity:
				issues = append(issues, a.newIssue(issueFields{
					typ:      models.IssueCodeDuplication,
					severity: models.SeverityLow,
					file:     path,
					node:     current.Node,
					description: fmt.Sprintf("Similar middleware logic detected. Middleware %q shares %d%% similarity with %q in %s:%d.",
						current.Name, percent, other.Name, other.File, other.Node.Start.Line),
					recommendation: "Review these middleware implementations for potential consolidation. Consider extracting shared logic into a common utility function.",
					effort:         models.EffortSmall,
					tags:           []string{"middleware", "similarity", "potential-consolidation"},
				}))
			}
		}
	}
	return issues
}

// detectInconsistentOrdering checks a route's chain against the dominant
// ordering and against the fixed anti-pattern rules. Both always run.
func (a *Analyzer) detectInconsistentOrdering(s *Session, file models.FileInfo, path string) []models.Issue {
	if file.Category != models.CategoryAPIRoute {
		return nil
	}
	routeUsages := s.usagesIn(path)
	if len(routeUsages) == 0 {
		return nil
	}

	sorted, routeOrder := orderOf(routeUsages)

	var issues []models.Issue
	if expected, ok := FindExpectedOrder(routeOrder, s.OrderingPatterns()); ok {
		if idx := firstDivergence(routeOrder, expected); idx >= 0 && idx < len(sorted) {
			issues = append(issues, a.newIssue(issueFields{
				typ:      models.IssueInconsistentPattern,
				severity: models.SeverityMedium,
				file:     path,
				node:     sorted[idx].Node,
				description: fmt.Sprintf("Inconsistent middleware ordering detected. Current order: [%s]. Expected order based on common patterns: [%s].",
					strings.Join(routeOrder, ", "), strings.Join(expected, ", ")),
				recommendation: "Reorder middleware to match the common pattern used in other routes. This ensures consistent behavior and makes the codebase more predictable. " + standardOrder,
				effort:         models.EffortTrivial,
				tags:           []string{"middleware", "ordering", "consistency", "pattern"},
			}))
		}
	}

	issues = append(issues, a.detectOrderingAntiPatterns(path, sorted, routeOrder)...)
	return issues
}

func (a *Analyzer) detectOrderingAntiPatterns(path string, sorted []Usage, names []string) []models.Issue {
	var issues []models.Issue
	pos := locateRoles(names)

	if pos.auth > pos.validate && pos.auth >= 0 && pos.validate >= 0 {
		issues = append(issues, a.newIssue(issueFields{
			typ:            models.IssueInconsistentPattern,
			severity:       models.SeverityHigh,
			file:           path,
			node:           sorted[pos.validate].Node,
			description:    "Middleware ordering anti-pattern: validation middleware runs before authentication. This could allow unauthenticated requests to consume validation resources.",
			recommendation: "Move authentication middleware before validation middleware. " + standardOrder,
			effort:         models.EffortTrivial,
			tags:           []string{"middleware", "ordering", "anti-pattern", "security"},
		}))
	}

	if pos.auth > pos.authorize && pos.auth >= 0 && pos.authorize >= 0 {
		issues = append(issues, a.newIssue(issueFields{
			typ:            models.IssueInconsistentPattern,
			severity:       models.SeverityHigh,
			file:           path,
			node:           sorted[pos.authorize].Node,
			description:    "Middleware ordering anti-pattern: authorization middleware runs before authentication. Cannot check permissions without knowing who the user is.",
			recommendation: "Move authentication middleware before authorization middleware. " + standardOrder,
			effort:         models.EffortTrivial,
			tags:           []string{"middleware", "ordering", "anti-pattern", "security"},
		}))
	}

	if pos.rateLimit > a.config.LateRateLimitIndex && pos.rateLimit >= 0 {
		issues = append(issues, a.newIssue(issueFields{
			typ:            models.IssueInconsistentPattern,
			severity:       models.SeverityMedium,
			file:           path,
			node:           sorted[pos.rateLimit].Node,
			description:    "Middleware ordering anti-pattern: rate limiting middleware runs late in the chain. Rate limiting should be one of the first middleware to prevent resource consumption.",
			recommendation: "Move rate limiting middleware to the beginning of the middleware chain, ideally before authentication.",
			effort:         models.EffortTrivial,
			tags:           []string{"middleware", "ordering", "anti-pattern", "performance"},
		}))
	}

	return issues
}

// detectConsolidation groups the file's implementations by function and
// flags exported middleware that is unused or small enough to inline.
func (a *Analyzer) detectConsolidation(s *Session, path string) []models.Issue {
	var fileImpls []Implementation
	for _, impl := range s.implementations {
		if impl.File == path {
			fileImpls = append(fileImpls, impl)
		}
	}
	if len(fileImpls) == 0 {
		return nil
	}

	var issues []models.Issue
	for _, group := range GroupByFunction(fileImpls) {
		if len(group.Implementations) < 2 {
			continue
		}
		issues = append(issues, a.newIssue(issueFields{
			typ:      models.IssueArchitectural,
			severity: models.SeverityLow,
			file:     path,
			node:     group.Implementations[0].Node,
			description: fmt.Sprintf("Consolidation opportunity: %d middleware implementations with similar %q functionality found: %s. These could potentially be consolidated into a single, configurable middleware.",
				len(group.Implementations), group.Keyword, implementationNames(group.Implementations)),
			recommendation: "Review these middleware implementations and consider consolidating them into a single, parameterized middleware function. This reduces code duplication and makes the codebase easier to maintain.",
			effort:         models.EffortMedium,
			tags:           []string{"middleware", "consolidation", "refactoring", "architecture"},
		}))
	}

	for _, impl := range fileImpls {
		if !impl.Exported || s.UsageCount(impl.Name) > a.config.UnusedMaxUsages {
			continue
		}
		issues = append(issues, a.newIssue(issueFields{
			typ:      models.IssueLegacyCode,
			severity: models.SeverityLow,
			file:     path,
			node:     impl.Node,
			description: fmt.Sprintf("Middleware %q is exported but used in only one place (or not used at all). Consider inlining it or removing the export if it's not intended to be reusable.",
				impl.Name),
			recommendation: "If this middleware is only used once, consider inlining it at the usage site. If it's not used at all, consider removing it. If it's intended to be reusable, ensure it's properly documented.",
			effort:         models.EffortTrivial,
			tags:           []string{"middleware", "unused", "consolidation", "cleanup"},
		}))
	}

	for _, impl := range fileImpls {
		length := textLength(impl.Node.Text)
		if !impl.Exported || length >= a.config.InlineMaxChars {
			continue
		}
		count := s.UsageCount(impl.Name)
		if count > a.config.InlineMaxUsages {
			continue
		}
		issues = append(issues, a.newIssue(issueFields{
			typ:      models.IssueUnnecessaryAdapter,
			severity: models.SeverityLow,
			file:     path,
			node:     impl.Node,
			description: fmt.Sprintf("Middleware %q is very small (%d characters) and used in %d place(s). Consider inlining this logic instead of maintaining a separate middleware function.",
				impl.Name, length, count),
			recommendation: "For very simple middleware used in few places, consider inlining the logic directly at the usage sites. This reduces indirection and makes the code easier to follow.",
			effort:         models.EffortTrivial,
			tags:           []string{"middleware", "inline", "simplification", "consolidation"},
		}))
	}

	return issues
}
