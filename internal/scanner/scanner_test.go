package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/panbanda/chainlint/pkg/config"
	"github.com/panbanda/chainlint/pkg/models"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file %s: %v", name, err)
		}
	}
}

func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func TestNewScanner(t *testing.T) {
	s := NewScanner(nil)
	if s == nil {
		t.Fatal("NewScanner(nil) returned nil")
	}
	if s.config == nil {
		t.Error("scanner.config should not be nil when passing nil")
	}

	cfg := config.DefaultConfig()
	s = NewScanner(cfg)
	if s.config != cfg {
		t.Error("scanner.config should be the provided config")
	}
}

func TestScanDir(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"src/middleware/auth.ts":     "export function auth() {}\n",
		"app/api/users/route.ts":     "export function GET() {}\n",
		"components/Button.tsx":      "export const Button = () => null\n",
		"legacy/server.js":           "module.exports = {}\n",
		"README.md":                  "# readme\n",
		"main.go":                    "package main\n",
		"node_modules/x/index.js":    "module.exports = 1\n",
		"dist/bundle.js":             "var a\n",
		"src/types/global.d.ts":      "declare const x: number\n",
		"public/vendor.min.js":       "var b\n",
		"app/nested/dist/skip.ts":    "export {}\n",
		"src/node_modules_like/a.ts": "export {}\n",
	})

	s := NewScanner(nil)
	result, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	got := relPaths(t, tmpDir, result)
	want := []string{
		"app/api/users/route.ts",
		"components/Button.tsx",
		"legacy/server.js",
		"src/middleware/auth.ts",
		"src/node_modules_like/a.ts",
	}
	if len(got) != len(want) {
		t.Fatalf("ScanDir() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ScanDir()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanDirGitignore(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmpDir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	writeTree(t, tmpDir, map[string]string{
		".gitignore":            "generated/\n*.gen.ts\n",
		"src/auth.ts":           "export {}\n",
		"src/auth.gen.ts":       "export {}\n",
		"generated/client.ts":   "export {}\n",
		"src/generated/deep.ts": "export {}\n",
	})

	result, err := NewScanner(nil).ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	got := relPaths(t, tmpDir, result)
	if len(got) != 1 || got[0] != "src/auth.ts" {
		t.Errorf("ScanDir() = %v, want [src/auth.ts]", got)
	}

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false
	result, err = NewScanner(cfg).ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(result) != 4 {
		t.Errorf("with gitignore disabled found %d files, want 4", len(result))
	}
}

func TestScanDirSymlinkOutsideRoot(t *testing.T) {
	outside := t.TempDir()
	writeTree(t, outside, map[string]string{"secret.ts": "export {}\n"})

	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/a.ts": "export {}\n"})
	if err := os.Symlink(outside, filepath.Join(root, "escape")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	result, err := NewScanner(nil).ScanDir(root)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	got := relPaths(t, root, result)
	if len(got) != 1 || got[0] != "src/a.ts" {
		t.Errorf("ScanDir() = %v, want [src/a.ts]", got)
	}
}

func TestScan(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"src/middleware/auth.ts": "export function auth(req, res, next) { next() }\n",
		"app/api/users/route.ts": "export function GET() {}\n",
		"src/huge.ts":            string(make([]byte, 2048)),
	})

	cfg := config.DefaultConfig()
	cfg.Analysis.MaxFileSize = 1024
	files, skipped, err := NewScanner(cfg).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(files) != 2 {
		t.Fatalf("Scan() returned %d files, want 2", len(files))
	}

	byRel := make(map[string]models.FileInfo)
	for _, f := range files {
		byRel[f.RelativePath] = f
	}
	mw, ok := byRel["src/middleware/auth.ts"]
	if !ok {
		t.Fatalf("missing middleware file in %v", byRel)
	}
	if mw.Category != models.CategoryMiddleware {
		t.Errorf("Category = %s, want middleware", mw.Category)
	}
	if mw.Extension != ".ts" {
		t.Errorf("Extension = %s, want .ts", mw.Extension)
	}
	if mw.Size == 0 || mw.LastModified.IsZero() {
		t.Error("Size and LastModified should be populated")
	}
	if byRel["app/api/users/route.ts"].Category != models.CategoryAPIRoute {
		t.Error("route file should be api-route")
	}

	groups := GroupByCategory(files)
	if groups[models.CategoryMiddleware] != 1 || groups[models.CategoryAPIRoute] != 1 {
		t.Errorf("GroupByCategory() = %v", groups)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		path string
		want models.FileCategory
	}{
		{"src/auth.test.ts", models.CategoryTest},
		{"src/__tests__/auth.ts", models.CategoryTest},
		{"src/middleware/auth.spec.ts", models.CategoryTest},
		{"types/index.ts", models.CategoryType},
		{"src/types/user.ts", models.CategoryType},
		{"src/api.types.ts", models.CategoryType},
		{"app/api/users/route.ts", models.CategoryAPIRoute},
		{"src/app/users/route.js", models.CategoryAPIRoute},
		{"pages/api/login.ts", models.CategoryAPIRoute},
		{"components/Button.tsx", models.CategoryComponent},
		{"src/app/dashboard/page.tsx", models.CategoryComponent},
		{"components/button.ts", models.CategoryOther},
		{"src/services/user.ts", models.CategoryService},
		{"src/userService.ts", models.CategoryService},
		{"src/middleware/auth.ts", models.CategoryMiddleware},
		{"middleware.ts", models.CategoryMiddleware},
		{"src/authMiddleware.js", models.CategoryMiddleware},
		{"next.config.js", models.CategoryConfig},
		{"src/config/db.ts", models.CategoryConfig},
		{"lib/session.ts", models.CategoryUtil},
		{"src/utils/format.ts", models.CategoryUtil},
		{"src/stringHelpers.ts", models.CategoryUtil},
		{"src/index.ts", models.CategoryOther},
		{`src\Middleware\Auth.ts`, models.CategoryMiddleware},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := Categorize(tt.path); got != tt.want {
				t.Errorf("Categorize(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestScanFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"auth.ts":    "export {}\n",
		"readme.md":  "# x\n",
		"app.min.js": "var a\n",
	})

	s := NewScanner(nil)
	tests := []struct {
		name string
		want bool
	}{
		{"auth.ts", true},
		{"readme.md", false},
		{"app.min.js", false},
	}
	for _, tt := range tests {
		got, err := s.ScanFile(filepath.Join(tmpDir, tt.name))
		if err != nil {
			t.Fatalf("ScanFile(%s) error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("ScanFile(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if _, err := s.ScanFile(filepath.Join(tmpDir, "missing.ts")); err == nil {
		t.Error("ScanFile on a missing file should fail")
	}
}

func TestFilterBySize(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"small.ts": "a",
		"big.ts":   string(make([]byte, 100)),
	})
	files := []string{filepath.Join(tmpDir, "small.ts"), filepath.Join(tmpDir, "big.ts"), filepath.Join(tmpDir, "gone.ts")}

	kept, skipped := FilterBySize(files, 10)
	if len(kept) != 1 || skipped != 2 {
		t.Errorf("FilterBySize() kept %d skipped %d, want 1 and 2", len(kept), skipped)
	}

	kept, skipped = FilterBySize(files, 0)
	if len(kept) != 3 || skipped != 0 {
		t.Error("maxSize 0 should keep everything")
	}
}
