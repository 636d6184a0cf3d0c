package middleware

import (
	"regexp"

	"github.com/panbanda/chainlint/pkg/ast"
)

var usagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.use\(`),
	regexp.MustCompile(`\.apply\(`),
	regexp.MustCompile(`(?i)middleware\(`),
	regexp.MustCompile(`(?i)guard\(`),
	regexp.MustCompile(`(?i)authenticate\(`),
	regexp.MustCompile(`(?i)authorize\(`),
	regexp.MustCompile(`(?i)validate\(`),
}

// namePatterns are tried in order; the first capture wins.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.use\(([a-zA-Z_$][a-zA-Z0-9_$]*)`),
	regexp.MustCompile(`\.apply\(([a-zA-Z_$][a-zA-Z0-9_$]*)`),
	regexp.MustCompile(`^([a-zA-Z_$][a-zA-Z0-9_$]*)\(`),
}

// IsMiddlewareUsageCall reports whether call text looks like a middleware
// invocation: a .use( or .apply( method call, or a call to a
// middleware/guard/authenticate/authorize/validate-named function.
func IsMiddlewareUsageCall(callText string) bool {
	for _, re := range usagePatterns {
		if re.MatchString(callText) {
			return true
		}
	}
	return false
}

// ExtractMiddlewareName returns the middleware identifier invoked by call
// text, or false when none can be extracted.
func ExtractMiddlewareName(callText string) (string, bool) {
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(callText); m != nil && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

// TrackUsage scans a route file's calls in source order. Calls whose name is
// extracted become usages numbered from zero; the rest are returned as
// unresolved and consume no order slot.
func TrackUsage(file ast.File, route string) ([]Usage, []UnresolvedUsage) {
	var (
		usages     []Usage
		unresolved []UnresolvedUsage
		order      int
	)

	for _, call := range file.Calls() {
		if !IsMiddlewareUsageCall(call.Text) {
			continue
		}
		name, ok := ExtractMiddlewareName(call.Text)
		if !ok {
			unresolved = append(unresolved, UnresolvedUsage{
				RouteFile: route,
				CallText:  call.Text,
				Node:      call,
			})
			continue
		}
		usages = append(usages, Usage{
			Name:      name,
			RouteFile: route,
			Node:      call,
			Order:     order,
		})
		order++
	}

	return usages, unresolved
}
