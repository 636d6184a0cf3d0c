package treesitter

import (
	"context"
	"fmt"

	"github.com/panbanda/chainlint/pkg/ast"
	"github.com/panbanda/chainlint/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// Provider implements ast.Provider using tree-sitter.
// It wraps a single parser and is not safe for concurrent use.
type Provider struct {
	parser *parser.Parser
}

// New creates a new tree-sitter based provider.
func New() *Provider {
	return &Provider{
		parser: parser.New(),
	}
}

// Parse reads and parses a file.
func (p *Provider) Parse(path string) (ast.File, error) {
	if parser.DetectLanguage(path) == parser.LangUnknown {
		return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, path)
	}
	result, err := p.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return newFile(result), nil
}

// ParseSource parses in-memory source.
func (p *Provider) ParseSource(path string, source []byte) (ast.File, error) {
	lang := parser.DetectLanguage(path)
	if lang == parser.LangUnknown {
		return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, path)
	}
	result, err := p.parser.Parse(context.Background(), source, lang, path)
	if err != nil {
		return nil, err
	}
	return newFile(result), nil
}

// Language returns the detected language for a file path.
func (p *Provider) Language(path string) ast.Language {
	return ast.Language(parser.DetectLanguage(path))
}

// Close releases parser resources.
func (p *Provider) Close() {
	p.parser.Close()
}

// file is a snapshot of one parse. All enumerations are collected in a
// single pre-order walk so their relative order matches the source.
type file struct {
	path     string
	language ast.Language

	functions []*ast.Node
	arrows    []*ast.Node
	funcExprs []*ast.Node
	variables []*ast.Node
	classes   []*ast.Node
	calls     []*ast.Node

	// initializers maps the start byte of a variable's function-valued
	// initializer to the node already built for it.
	initializers map[uint32]*ast.Node
}

func newFile(result *parser.ParseResult) *file {
	f := &file{
		path:         result.Path,
		language:     ast.Language(result.Language),
		initializers: make(map[uint32]*ast.Node),
	}

	parser.WalkTyped(result.Tree.RootNode(), result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		if !node.IsNamed() {
			return true
		}
		switch nodeType {
		case "function_declaration", "generator_function_declaration":
			f.functions = append(f.functions, f.functionNode(node, source, ast.KindFunction))
		case "arrow_function":
			f.arrows = append(f.arrows, f.functionNode(node, source, ast.KindArrow))
		case "function", "function_expression", "generator_function":
			f.funcExprs = append(f.funcExprs, f.functionNode(node, source, ast.KindFunctionExpression))
		case "variable_declarator":
			f.variables = append(f.variables, f.variableNode(node, source))
		case "class_declaration", "abstract_class_declaration":
			f.classes = append(f.classes, newNode(node, source, ast.KindClass))
		case "call_expression":
			call := newNode(node, source, ast.KindCall)
			call.Callee = parser.GetNodeText(node.ChildByFieldName("function"), source)
			f.calls = append(f.calls, call)
		}
		return true
	})

	f.initializers = nil
	return f
}

func newNode(node *sitter.Node, source []byte, kind ast.NodeKind) *ast.Node {
	start := node.StartPoint()
	end := node.EndPoint()
	return &ast.Node{
		Kind:     kind,
		Name:     parser.DeclaredName(node, source),
		Text:     parser.GetNodeText(node, source),
		Exported: parser.IsExported(node),
		Start: ast.Position{
			Line:   int(start.Row) + 1,
			Column: int(start.Column) + 1,
			Offset: int(node.StartByte()),
		},
		End: ast.Position{
			Line:   int(end.Row) + 1,
			Column: int(end.Column) + 1,
			Offset: int(node.EndByte()),
		},
	}
}

func (f *file) functionNode(node *sitter.Node, source []byte, kind ast.NodeKind) *ast.Node {
	if n, ok := f.initializers[node.StartByte()]; ok && n.Kind == kind {
		return n
	}
	n := newNode(node, source, kind)
	n.Params = parser.ParameterText(node, source)
	return n
}

func (f *file) variableNode(node *sitter.Node, source []byte) *ast.Node {
	v := newNode(node, source, ast.KindVariable)

	value := node.ChildByFieldName("value")
	if value == nil || !value.IsNamed() || !parser.IsFunctionLike(value.Type()) {
		return v
	}

	kind := ast.KindFunctionExpression
	if value.Type() == "arrow_function" {
		kind = ast.KindArrow
	}
	init := newNode(value, source, kind)
	init.Params = parser.ParameterText(value, source)
	init.Bound = true
	init.Exported = v.Exported
	v.Init = init
	f.initializers[value.StartByte()] = init
	return v
}

func (f *file) Path() string { return f.path }

func (f *file) Language() ast.Language { return f.language }

func (f *file) Functions() []*ast.Node { return f.functions }

func (f *file) ArrowFunctions() []*ast.Node { return f.arrows }

func (f *file) FunctionExpressions() []*ast.Node { return f.funcExprs }

func (f *file) Variables() []*ast.Node { return f.variables }

func (f *file) Classes() []*ast.Node { return f.classes }

func (f *file) Calls() []*ast.Node { return f.calls }
