package middleware

import (
	"github.com/panbanda/chainlint/pkg/ast"
	"github.com/panbanda/chainlint/pkg/config"
)

// AnalyzerName identifies this analyzer in issue reports.
const AnalyzerName = "MiddlewarePatternAnalyzer"

// ImplementationType is the syntactic shape of a discovered middleware.
type ImplementationType string

const (
	TypeFunction ImplementationType = "function"
	TypeArrow    ImplementationType = "arrow"
	TypeClass    ImplementationType = "class"
	TypeVariable ImplementationType = "variable"
)

// AnonymousName is recorded for middleware without a declared name.
const AnonymousName = "anonymous"

// Implementation is a discovered middleware declaration.
type Implementation struct {
	Name     string             `json:"name"`
	Node     *ast.Node          `json:"-"`
	File     string             `json:"file"`
	Type     ImplementationType `json:"type"`
	Exported bool               `json:"exported"`
	// MatchedBy is the tag of the classification rule that accepted the node.
	MatchedBy string `json:"matched_by"`
}

// Usage is one middleware invocation observed in a route file.
type Usage struct {
	Name      string    `json:"name"`
	RouteFile string    `json:"route_file"`
	Node      *ast.Node `json:"-"`
	// Order is the zero-based position among resolved usages in the file.
	Order int `json:"order"`
}

// UnresolvedUsage is a middleware-shaped call whose name could not be
// extracted. It holds no order slot and never joins ordering inference.
type UnresolvedUsage struct {
	RouteFile string    `json:"route_file"`
	CallText  string    `json:"call_text"`
	Node      *ast.Node `json:"-"`
}

// OrderingPattern is a distinct middleware sequence and the routes using it.
type OrderingPattern struct {
	Key    string   `json:"key"`
	Names  []string `json:"names"`
	Routes []string `json:"routes"`
}

// FunctionalGroup is a bucket of implementations sharing a functional keyword.
type FunctionalGroup struct {
	Keyword         string
	Implementations []Implementation
}

// SimilarityStats summarizes every similarity score computed in a session.
type SimilarityStats struct {
	Pairs  int     `json:"pairs"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
}

// Summary is a read-only snapshot of a session's registries.
type Summary struct {
	TotalImplementations  int               `json:"total_implementations"`
	TotalUsages           int               `json:"total_usages"`
	ImplementationsByFile map[string]int    `json:"implementations_by_file"`
	UsagesByRoute         map[string]int    `json:"usages_by_route"`
	UnresolvedUsages      int               `json:"unresolved_usages"`
	OrderingPatterns      []OrderingPattern `json:"ordering_patterns"`
	// ConventionalOrder is the chain order implied by pairwise precedence
	// across routes, empty when the precedences are cyclic.
	ConventionalOrder []string        `json:"conventional_order,omitempty"`
	Similarity        SimilarityStats `json:"similarity"`
}

// Config holds the detection thresholds.
type Config struct {
	// DuplicateSimilarity is the score above which two implementations are duplicates.
	DuplicateSimilarity float64
	// SimilarSimilarity is the score above which two implementations are similar.
	SimilarSimilarity float64
	// InlineMaxChars is the exclusive text length limit for inline candidates.
	InlineMaxChars int
	// UnusedMaxUsages is the usage count at or below which an export is unused.
	UnusedMaxUsages int
	// InlineMaxUsages is the usage count at or below which a small export may be inlined.
	InlineMaxUsages int
	// LateRateLimitIndex is the last chain position a rate limiter may occupy.
	LateRateLimitIndex int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		DuplicateSimilarity: 0.8,
		SimilarSimilarity:   0.5,
		InlineMaxChars:      150,
		UnusedMaxUsages:     1,
		InlineMaxUsages:     2,
		LateRateLimitIndex:  2,
	}
}

func configFromThresholds(t config.ThresholdsConfig) Config {
	return Config{
		DuplicateSimilarity: t.DuplicateSimilarity,
		SimilarSimilarity:   t.SimilarSimilarity,
		InlineMaxChars:      t.InlineMaxChars,
		UnusedMaxUsages:     t.UnusedMaxUsages,
		InlineMaxUsages:     t.InlineMaxUsages,
		LateRateLimitIndex:  t.LateRateLimitIndex,
	}
}
