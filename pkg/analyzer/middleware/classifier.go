package middleware

import (
	"regexp"
	"strings"

	"github.com/panbanda/chainlint/pkg/ast"
)

var middlewareKeywords = []string{
	"middleware",
	"guard",
	"interceptor",
	"handler",
	"auth",
	"authenticate",
	"authorize",
	"validate",
	"cors",
	"ratelimit",
	"logger",
	"error",
	"session",
}

var signaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\(.*req.*,.*res.*,.*next.*\)`),
	regexp.MustCompile(`(?i)\(.*request.*,.*response.*,.*next.*\)`),
	regexp.MustCompile(`(?i)\(.*context.*,.*next.*\)`),
	regexp.MustCompile(`(?i)\(.*ctx.*,.*next.*\)`),
}

// Rule tags recorded in Implementation.MatchedBy.
const (
	RuleName           = "name"
	RuleSignature      = "signature"
	RuleFrameworkTypes = "framework-types"
	RuleInitializer    = "initializer"
)

// rule is one classification heuristic. Rules are tried in order and the
// first match wins.
type rule struct {
	tag   string
	match func(n *ast.Node) bool
}

var functionRules = []rule{
	{RuleName, func(n *ast.Node) bool { return IsMiddlewareRelatedName(n.Name) }},
	{RuleSignature, func(n *ast.Node) bool { return matchesSignature(n.Params) }},
	{RuleFrameworkTypes, func(n *ast.Node) bool { return mentionsFrameworkTypes(n.Text) }},
}

var variableRules = []rule{
	{RuleName, func(n *ast.Node) bool { return IsMiddlewareRelatedName(n.Name) }},
	{RuleInitializer, func(n *ast.Node) bool {
		return n.Init != nil && n.Init.IsFunctionLike() && IsMiddlewareFunction(n.Init)
	}},
}

func classify(rules []rule, n *ast.Node) (string, bool) {
	for _, r := range rules {
		if r.match(n) {
			return r.tag, true
		}
	}
	return "", false
}

// IsMiddlewareRelatedName reports whether name contains a middleware keyword,
// ignoring case.
func IsMiddlewareRelatedName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range middlewareKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsMiddlewareFunction reports whether a function-like node looks like
// middleware by name, parameter shape or framework request/response types.
func IsMiddlewareFunction(n *ast.Node) bool {
	_, ok := classify(functionRules, n)
	return ok
}

// IsMiddlewareVariable reports whether a variable declarator is middleware by
// name or holds a middleware function.
func IsMiddlewareVariable(n *ast.Node) bool {
	if n == nil || n.Kind != ast.KindVariable {
		return false
	}
	_, ok := classify(variableRules, n)
	return ok
}

func matchesSignature(params string) bool {
	if params == "" {
		return false
	}
	for _, re := range signaturePatterns {
		if re.MatchString(params) {
			return true
		}
	}
	return false
}

// mentionsFrameworkTypes matches Next.js request/response types, or the
// Request and Response pair used by Express and fetch-style handlers.
func mentionsFrameworkTypes(text string) bool {
	if strings.Contains(text, "NextRequest") || strings.Contains(text, "NextResponse") {
		return true
	}
	return strings.Contains(text, "Request") && strings.Contains(text, "Response")
}

// Discover classifies the declarations of a parsed file and returns the
// middleware found, in registration order: function declarations, unbound
// arrow functions, unbound function expressions, variables, then classes.
// Function values bound to a variable are classified once, through the
// variable.
func Discover(file ast.File, path string) []Implementation {
	var impls []Implementation

	add := func(n *ast.Node, typ ImplementationType, tag string) {
		name := n.Name
		if name == "" {
			name = AnonymousName
		}
		impls = append(impls, Implementation{
			Name:      name,
			Node:      n,
			File:      path,
			Type:      typ,
			Exported:  n.Exported,
			MatchedBy: tag,
		})
	}

	for _, n := range file.Functions() {
		if tag, ok := classify(functionRules, n); ok {
			add(n, TypeFunction, tag)
		}
	}
	for _, n := range file.ArrowFunctions() {
		if n.Bound {
			continue
		}
		if tag, ok := classify(functionRules, n); ok {
			add(n, TypeArrow, tag)
		}
	}
	for _, n := range file.FunctionExpressions() {
		if n.Bound {
			continue
		}
		if tag, ok := classify(functionRules, n); ok {
			add(n, TypeFunction, tag)
		}
	}
	for _, n := range file.Variables() {
		if tag, ok := classify(variableRules, n); ok {
			add(n, TypeVariable, tag)
		}
	}
	for _, n := range file.Classes() {
		if IsMiddlewareRelatedName(n.Name) {
			add(n, TypeClass, RuleName)
		}
	}

	return impls
}
