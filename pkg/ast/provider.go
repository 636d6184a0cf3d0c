package ast

import (
	"errors"
)

// ErrUnsupportedLanguage is returned when parsing a file with an unsupported language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language represents a programming language.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJavaScript Language = "javascript"
	LangUnknown    Language = "unknown"
)

// Position represents a location in source code. Line and Column are 1-based.
type Position struct {
	Line   int
	Column int
	Offset int
}

// NodeKind is the syntactic shape of a Node.
type NodeKind string

const (
	KindFunction           NodeKind = "function"
	KindArrow              NodeKind = "arrow"
	KindFunctionExpression NodeKind = "function_expression"
	KindVariable           NodeKind = "variable"
	KindClass              NodeKind = "class"
	KindCall               NodeKind = "call"
)

// Node is a snapshot of one syntax node: its shape, declared name, rendered
// text and location. Nodes are owned by the File that produced them.
type Node struct {
	Kind NodeKind
	// Name is the declared name, empty for anonymous nodes.
	Name string
	// Text is the node's rendered source.
	Text string
	// Params is the parameter list of function-like nodes, including parentheses.
	Params   string
	Exported bool
	Start    Position
	End      Position

	// Init is the initializer of a variable declarator when it is a
	// function value.
	Init *Node
	// Bound marks function values that initialize a variable declarator.
	Bound bool
	// Callee is the callee text of a call node.
	Callee string
}

// IsFunctionLike reports whether the node is a function value or declaration.
func (n *Node) IsFunctionLike() bool {
	switch n.Kind {
	case KindFunction, KindArrow, KindFunctionExpression:
		return true
	}
	return false
}

// Provider abstracts parsing so analyzers never touch the parser directly.
type Provider interface {
	// Parse reads and parses a file.
	Parse(path string) (File, error)

	// ParseSource parses in-memory source, using path for language detection.
	ParseSource(path string, source []byte) (File, error)

	// Language returns the detected language for a file path.
	Language(path string) Language

	// Close releases provider resources.
	Close()
}

// File provides syntax-level access to a parsed source file. Every
// enumeration returns nodes in source order.
type File interface {
	// Path returns the file path.
	Path() string

	// Language returns the detected language.
	Language() Language

	// Functions returns function declarations.
	Functions() []*Node

	// ArrowFunctions returns arrow function expressions.
	ArrowFunctions() []*Node

	// FunctionExpressions returns non-arrow function expressions.
	FunctionExpressions() []*Node

	// Variables returns variable declarators.
	Variables() []*Node

	// Classes returns class declarations.
	Classes() []*Node

	// Calls returns call expressions in pre-order, so an outer call precedes
	// the calls nested in its arguments.
	Calls() []*Node
}
