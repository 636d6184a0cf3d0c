package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/chainlint/pkg/config"
	"github.com/panbanda/chainlint/pkg/models"
	"github.com/panbanda/chainlint/pkg/parser"
)

// Scanner finds source files in a directory.
type Scanner struct {
	config   *config.Config
	matchers []gitignore.Matcher
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns loads exclusion patterns from both config and .gitignore files.
// Config patterns are parsed as gitignore patterns and combined with .gitignore files.
func (s *Scanner) loadExcludePatterns(root string) {
	s.matchers = s.matchers[:0]
	var patterns []gitignore.Pattern

	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}

	// ReadPatterns walks every .gitignore below the repository root.
	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			if gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil); err == nil {
				patterns = append(patterns, gitPatterns...)
			}
		}
	}

	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

// isExcluded checks if a path matches any exclusion pattern or excluded directory.
func (s *Scanner) isExcluded(path string, isDir bool) bool {
	check := path
	if isDir {
		check += string(filepath.Separator)
	}
	if s.config.ShouldExclude(check) {
		return true
	}

	pathParts := strings.Split(path, string(filepath.Separator))
	for _, m := range s.matchers {
		if m.Match(pathParts, isDir) {
			return true
		}
	}
	return false
}

// ScanDir recursively scans a directory for TypeScript and JavaScript files.
// Symlinks that resolve outside the root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(root)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if s.isExcluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(relPath, false) {
			return nil
		}
		if parser.DetectLanguage(path) != parser.LangUnknown {
			files = append(files, path)
		}

		return nil
	})

	return files, walkErr
}

// Scan walks root and describes every source file found, in walk order.
// Files larger than analysis.max_file_size are dropped; the second return
// value counts them.
func (s *Scanner) Scan(root string) ([]models.FileInfo, int, error) {
	paths, err := s.ScanDir(root)
	if err != nil {
		return nil, 0, err
	}
	paths, skipped := FilterBySize(paths, s.config.Analysis.MaxFileSize)

	infos := make([]models.FileInfo, 0, len(paths))
	for _, p := range paths {
		info, err := Describe(root, p)
		if err != nil {
			skipped++
			continue
		}
		infos = append(infos, info)
	}
	return infos, skipped, nil
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// The separator keeps "/root2" from matching "/root".
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanFile checks if a single file should be analyzed.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	if info.IsDir() {
		return false, nil
	}

	if len(s.matchers) == 0 {
		s.loadExcludePatterns(filepath.Dir(path))
	}

	if s.isExcluded(filepath.Base(path), false) {
		return false, nil
	}

	return parser.DetectLanguage(path) != parser.LangUnknown, nil
}

// FilterBySize filters files that exceed the configured maximum size.
// Returns the filtered list and the count of files that were skipped.
// If maxSize is 0, returns the original list unchanged.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0

	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			skipped++
			continue
		}
		if info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}

	return filtered, skipped
}

// Describe builds the FileInfo for path, with RelativePath taken against root.
func Describe(root, path string) (models.FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return models.FileInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	return models.FileInfo{
		Path:         path,
		RelativePath: rel,
		Extension:    filepath.Ext(path),
		Size:         stat.Size(),
		Category:     Categorize(rel),
		LastModified: stat.ModTime(),
	}, nil
}

// GroupByCategory counts files per category.
func GroupByCategory(files []models.FileInfo) map[models.FileCategory]int {
	groups := make(map[models.FileCategory]int)
	for _, f := range files {
		groups[f.Category]++
	}
	return groups
}

type categoryRule struct {
	category models.FileCategory
	match    func(path, ext string) bool
}

var (
	appRoutePattern     = regexp.MustCompile(`/app/.*/route\.(ts|tsx|js|jsx)$`)
	appComponentPattern = regexp.MustCompile(`/app/.*/(page|layout|loading|error|not-found)\.(tsx|jsx)$`)
	configFilePattern   = regexp.MustCompile(`\.(config|rc)\.(ts|js|json)$`)
)

func containsAny(path string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(path, s) {
			return true
		}
	}
	return false
}

func hasPrefixAny(path string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func hasSuffixAny(path string, suffixes ...string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

// categoryRules are tried in order; the first match wins.
var categoryRules = []categoryRule{
	{models.CategoryTest, func(p, _ string) bool {
		return containsAny(p, ".test.", ".spec.", "/__tests__/", "/tests/", "/test/")
	}},
	{models.CategoryType, func(p, _ string) bool {
		return strings.HasSuffix(p, ".d.ts") ||
			containsAny(p, "/types/", "/type/") ||
			hasPrefixAny(p, "types/", "type/") ||
			hasSuffixAny(p, "types.ts", "types.tsx")
	}},
	{models.CategoryAPIRoute, func(p, _ string) bool {
		return containsAny(p, "/api/", "/route.ts", "/route.tsx") || appRoutePattern.MatchString(p)
	}},
	{models.CategoryComponent, func(p, ext string) bool {
		if ext != ".tsx" && ext != ".jsx" {
			return false
		}
		return containsAny(p, "/components/", "/component/") ||
			hasPrefixAny(p, "components/", "component/") ||
			appComponentPattern.MatchString(p)
	}},
	{models.CategoryService, func(p, _ string) bool {
		return containsAny(p, "/services/", "/service/", "/backend/") ||
			hasSuffixAny(p, "service.ts", "service.tsx")
	}},
	{models.CategoryMiddleware, func(p, _ string) bool {
		return containsAny(p, "/middleware/", "middleware.ts", "middleware.tsx", "middleware.js", "middleware.jsx")
	}},
	{models.CategoryConfig, func(p, _ string) bool {
		return containsAny(p, "/config/", "config.ts", "config.js") || configFilePattern.MatchString(p)
	}},
	{models.CategoryUtil, func(p, _ string) bool {
		return containsAny(p, "/utils/", "/util/", "/helpers/", "/helper/", "/lib/") ||
			hasPrefixAny(p, "utils/", "util/", "helpers/", "helper/", "lib/") ||
			hasSuffixAny(p, "util.ts", "utils.ts", "helper.ts", "helpers.ts")
	}},
}

// Categorize assigns a file category from its relative path. Matching is
// case-insensitive and separator-agnostic.
func Categorize(relPath string) models.FileCategory {
	p := strings.ToLower(strings.ReplaceAll(relPath, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(p))
	for _, rule := range categoryRules {
		if rule.match(p, ext) {
			return rule.category
		}
	}
	return models.CategoryOther
}
