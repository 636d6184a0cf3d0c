package middleware

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// OrderSeparator joins middleware names into an ordering key.
const OrderSeparator = "→"

// orderOf returns the usages sorted by order and their names.
func orderOf(usages []Usage) ([]Usage, []string) {
	sorted := make([]Usage, len(usages))
	copy(sorted, usages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	names := make([]string, len(sorted))
	for i, u := range sorted {
		names[i] = u.Name
	}
	return sorted, names
}

// MineOrderingPatterns groups usages by route and buckets routes by their
// exact middleware sequence. Patterns and their routes keep first-seen order.
func MineOrderingPatterns(usages []Usage) []OrderingPattern {
	var routes []string
	byRoute := make(map[string][]Usage)
	for _, u := range usages {
		if _, ok := byRoute[u.RouteFile]; !ok {
			routes = append(routes, u.RouteFile)
		}
		byRoute[u.RouteFile] = append(byRoute[u.RouteFile], u)
	}

	var patterns []OrderingPattern
	index := make(map[string]int)
	for _, route := range routes {
		_, names := orderOf(byRoute[route])
		key := strings.Join(names, OrderSeparator)
		if i, ok := index[key]; ok {
			patterns[i].Routes = append(patterns[i].Routes, route)
			continue
		}
		index[key] = len(patterns)
		patterns = append(patterns, OrderingPattern{
			Key:    key,
			Names:  names,
			Routes: []string{route},
		})
	}
	return patterns
}

// FindExpectedOrder picks, among patterns containing every name of current,
// the one used by the most routes (the first found wins ties) and returns
// its sequence restricted to the names in current. It returns false when no
// pattern contains them all.
func FindExpectedOrder(current []string, patterns []OrderingPattern) ([]string, bool) {
	wanted := make(map[string]bool, len(current))
	for _, name := range current {
		wanted[name] = true
	}

	var (
		best      []string
		bestCount int
	)
	for _, p := range patterns {
		present := make(map[string]bool, len(p.Names))
		for _, name := range p.Names {
			present[name] = true
		}
		containsAll := true
		for name := range wanted {
			if !present[name] {
				containsAll = false
				break
			}
		}
		if !containsAll || len(p.Routes) <= bestCount {
			continue
		}

		best = nil
		for _, name := range p.Names {
			if wanted[name] {
				best = append(best, name)
			}
		}
		bestCount = len(p.Routes)
	}

	return best, bestCount > 0
}

// firstDivergence returns the first index of a whose name differs from b at
// the same position, or -1 when none does.
func firstDivergence(a, b []string) int {
	for i := range a {
		if i >= len(b) || a[i] != b[i] {
			return i
		}
	}
	return -1
}

// chainPositions locates the first auth-like, validate-like, authorize-like
// and rate-limit-like names in a lower-cased chain. Missing roles are -1.
type chainPositions struct {
	auth      int
	validate  int
	authorize int
	rateLimit int
}

func locateRoles(names []string) chainPositions {
	pos := chainPositions{auth: -1, validate: -1, authorize: -1, rateLimit: -1}
	for i, name := range names {
		name = strings.ToLower(name)
		if pos.auth < 0 && (strings.Contains(name, "authenticate") ||
			(strings.Contains(name, "auth") && !strings.Contains(name, "authorize"))) {
			pos.auth = i
		}
		if pos.validate < 0 && (strings.Contains(name, "validate") || strings.Contains(name, "validation")) {
			pos.validate = i
		}
		if pos.authorize < 0 && (strings.Contains(name, "authorize") || strings.Contains(name, "permission")) {
			pos.authorize = i
		}
		if pos.rateLimit < 0 && (strings.Contains(name, "ratelimit") ||
			strings.Contains(name, "rate-limit") || strings.Contains(name, "throttle")) {
			pos.rateLimit = i
		}
	}
	return pos
}

// ConventionalOrder derives a chain order from pairwise precedence across
// all routes, weighting each pattern by its route count. Returns nil when
// the precedences form a cycle or there are no patterns.
func ConventionalOrder(patterns []OrderingPattern) []string {
	var names []string
	ids := make(map[string]int64)
	for _, p := range patterns {
		for _, name := range p.Names {
			if _, ok := ids[name]; !ok {
				ids[name] = int64(len(names))
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		return nil
	}

	precedes := make(map[[2]int64]int)
	for _, p := range patterns {
		w := len(p.Routes)
		for i := range p.Names {
			for j := i + 1; j < len(p.Names); j++ {
				a, b := ids[p.Names[i]], ids[p.Names[j]]
				if a != b {
					precedes[[2]int64{a, b}] += w
				}
			}
		}
	}

	g := simple.NewDirectedGraph()
	for id := range names {
		g.AddNode(simple.Node(int64(id)))
	}
	for pair, n := range precedes {
		if n > precedes[[2]int64{pair[1], pair[0]}] {
			g.SetEdge(g.NewEdge(simple.Node(pair[0]), simple.Node(pair[1])))
		}
	}

	sorted, err := topo.SortStabilized(g, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	})
	if err != nil {
		return nil
	}

	order := make([]string, len(sorted))
	for i, n := range sorted {
		order[i] = names[n.ID()]
	}
	return order
}
