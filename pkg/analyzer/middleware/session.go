package middleware

import (
	"github.com/panbanda/chainlint/pkg/stats"
)

// Session holds the registries of one analysis run. Files are fed to it
// one at a time through Analyzer.Analyze; detection for a file sees every
// registration made by the files analyzed before it, and its own.
//
// A Session is not safe for concurrent use.
type Session struct {
	implementations []Implementation
	profiles        []*profile
	usages          []Usage
	unresolved      []UnresolvedUsage

	usageCounts map[string]int
	interner    *interner
	scores      []float64
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		usageCounts: make(map[string]int),
		interner:    newInterner(),
	}
}

func (s *Session) register(impls []Implementation) {
	for _, impl := range impls {
		s.implementations = append(s.implementations, impl)
		s.profiles = append(s.profiles, newProfile(impl.Node.Text, s.interner))
	}
}

func (s *Session) recordUsages(usages []Usage, unresolved []UnresolvedUsage) {
	for _, u := range usages {
		s.usages = append(s.usages, u)
		s.usageCounts[u.Name]++
	}
	s.unresolved = append(s.unresolved, unresolved...)
}

// similarity compares two registered implementations by registry index.
func (s *Session) similarity(i, j int) float64 {
	score := s.profiles[i].similarity(s.profiles[j])
	s.scores = append(s.scores, score)
	return score
}

// UsageCount returns how many resolved usages invoke name.
func (s *Session) UsageCount(name string) int {
	return s.usageCounts[name]
}

// Implementations returns the registered implementations in registration order.
func (s *Session) Implementations() []Implementation {
	out := make([]Implementation, len(s.implementations))
	copy(out, s.implementations)
	return out
}

// Usages returns the resolved usages in registration order.
func (s *Session) Usages() []Usage {
	out := make([]Usage, len(s.usages))
	copy(out, s.usages)
	return out
}

// UnresolvedUsages returns the usage calls whose name could not be extracted.
func (s *Session) UnresolvedUsages() []UnresolvedUsage {
	out := make([]UnresolvedUsage, len(s.unresolved))
	copy(out, s.unresolved)
	return out
}

// usagesIn returns the resolved usages recorded for a route.
func (s *Session) usagesIn(route string) []Usage {
	var out []Usage
	for _, u := range s.usages {
		if u.RouteFile == route {
			out = append(out, u)
		}
	}
	return out
}

// OrderingPatterns mines the distinct middleware orderings observed so far.
func (s *Session) OrderingPatterns() []OrderingPattern {
	return MineOrderingPatterns(s.usages)
}

// Summary returns a snapshot of the registries.
func (s *Session) Summary() Summary {
	implsByFile := make(map[string]int)
	for _, impl := range s.implementations {
		implsByFile[impl.File]++
	}
	usagesByRoute := make(map[string]int)
	for _, u := range s.usages {
		usagesByRoute[u.RouteFile]++
	}

	patterns := s.OrderingPatterns()
	dist := stats.Describe(s.scores)

	return Summary{
		TotalImplementations:  len(s.implementations),
		TotalUsages:           len(s.usages),
		ImplementationsByFile: implsByFile,
		UsagesByRoute:         usagesByRoute,
		UnresolvedUsages:      len(s.unresolved),
		OrderingPatterns:      patterns,
		ConventionalOrder:     ConventionalOrder(patterns),
		Similarity: SimilarityStats{
			Pairs:  dist.Count,
			Mean:   dist.Mean,
			StdDev: dist.StdDev,
			P50:    dist.P50,
			P95:    dist.P95,
			Max:    dist.Max,
		},
	}
}
