package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

func TestNew(t *testing.T) {
	p := New()
	if p == nil {
		t.Fatal("New() returned nil")
	}
	if p.parser == nil {
		t.Error("parser field is nil")
	}
	p.Close()
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"app.ts", LangTypeScript},
		{"src/middleware/auth.mts", LangTypeScript},
		{"legacy.cts", LangTypeScript},
		{"types.d.ts", LangTypeScript},
		{"component.tsx", LangTSX},
		{"component.jsx", LangTSX},
		{"script.js", LangJavaScript},
		{"module.mjs", LangJavaScript},
		{"common.cjs", LangJavaScript},
		{"APP.TS", LangTypeScript},
		{"main.go", LangUnknown},
		{"file.json", LangUnknown},
		{"Makefile", LangUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DetectLanguage(tt.path); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestGetTreeSitterLanguage(t *testing.T) {
	for _, lang := range []Language{LangTypeScript, LangTSX, LangJavaScript} {
		tsLang, err := GetTreeSitterLanguage(lang)
		if err != nil {
			t.Errorf("GetTreeSitterLanguage(%s) error: %v", lang, err)
		}
		if tsLang == nil {
			t.Errorf("GetTreeSitterLanguage(%s) returned nil", lang)
		}
	}

	if _, err := GetTreeSitterLanguage(LangUnknown); err == nil {
		t.Error("GetTreeSitterLanguage(unknown) should fail")
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "route.ts")
	if err := os.WriteFile(path, []byte("export function GET() { return 1; }\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	p := New()
	defer p.Close()

	result, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if result.Language != LangTypeScript {
		t.Errorf("Language = %v, want %v", result.Language, LangTypeScript)
	}
	if result.Tree == nil {
		t.Fatal("Tree is nil")
	}
}

func TestParseFileErrors(t *testing.T) {
	p := New()
	defer p.Close()

	if _, err := p.ParseFile(filepath.Join(t.TempDir(), "missing.ts")); err == nil {
		t.Error("ParseFile() on missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := p.ParseFile(path); err == nil {
		t.Error("ParseFile() on unsupported language should fail")
	}
}

func parseTS(t *testing.T, src string) *ParseResult {
	t.Helper()
	p := New()
	t.Cleanup(p.Close)
	result, err := p.Parse(context.Background(), []byte(src), LangTypeScript, "test.ts")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return result
}

func TestFindNodesByTypeSkipsAnonymousTokens(t *testing.T) {
	result := parseTS(t, "function named() {}\nconst f = function () {};\n")
	root := result.Tree.RootNode()

	decls := FindNodesByType(root, result.Source, "function_declaration")
	if len(decls) != 1 {
		t.Fatalf("found %d function declarations, want 1", len(decls))
	}
	if got := DeclaredName(decls[0], result.Source); got != "named" {
		t.Errorf("DeclaredName() = %q, want %q", got, "named")
	}

	// The "function" keyword token shares its type name with older grammars'
	// function expressions; only named nodes may be returned.
	for _, n := range FindNodesByType(root, result.Source, "function") {
		if !n.IsNamed() {
			t.Error("FindNodesByType returned an anonymous token")
		}
	}
}

func TestIsExported(t *testing.T) {
	src := `export function a() {}
function b() {}
export const c = () => {};
const d = () => {};
export class E {}
`
	result := parseTS(t, src)
	root := result.Tree.RootNode()

	exported := map[string]bool{}
	WalkTyped(root, result.Source, func(n *sitter.Node, nodeType string, source []byte) bool {
		switch nodeType {
		case "function_declaration", "class_declaration", "variable_declarator":
			exported[DeclaredName(n, source)] = IsExported(n)
		}
		return true
	})

	want := map[string]bool{"a": true, "b": false, "c": true, "d": false, "E": true}
	for name, w := range want {
		if exported[name] != w {
			t.Errorf("IsExported(%s) = %v, want %v", name, exported[name], w)
		}
	}
}

func TestParameterText(t *testing.T) {
	result := parseTS(t, "const one = x => x;\nconst many = (req, res, next) => next();\n")
	root := result.Tree.RootNode()

	arrows := FindNodesByType(root, result.Source, "arrow_function")
	if len(arrows) != 2 {
		t.Fatalf("found %d arrow functions, want 2", len(arrows))
	}
	if got := ParameterText(arrows[0], result.Source); got != "(x)" {
		t.Errorf("ParameterText(single) = %q, want %q", got, "(x)")
	}
	if got := ParameterText(arrows[1], result.Source); got != "(req, res, next)" {
		t.Errorf("ParameterText(many) = %q, want %q", got, "(req, res, next)")
	}
}

func TestGetNodeText(t *testing.T) {
	if got := GetNodeText(nil, []byte("abc")); got != "" {
		t.Errorf("GetNodeText(nil) = %q, want empty", got)
	}

	result := parseTS(t, "foo(1);")
	calls := FindNodesByType(result.Tree.RootNode(), result.Source, "call_expression")
	if len(calls) != 1 {
		t.Fatalf("found %d calls, want 1", len(calls))
	}
	if got := GetNodeText(calls[0], result.Source); got != "foo(1)" {
		t.Errorf("GetNodeText() = %q, want %q", got, "foo(1)")
	}
}

func TestIsFunctionLike(t *testing.T) {
	for _, typ := range []string{"function_declaration", "arrow_function", "function_expression", "function"} {
		if !IsFunctionLike(typ) {
			t.Errorf("IsFunctionLike(%q) = false, want true", typ)
		}
	}
	for _, typ := range []string{"class_declaration", "call_expression", "identifier"} {
		if IsFunctionLike(typ) {
			t.Errorf("IsFunctionLike(%q) = true, want false", typ)
		}
	}
}
