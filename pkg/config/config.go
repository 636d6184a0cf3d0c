package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Analysis orders.
const (
	// OrderScan analyzes files in directory walk order.
	OrderScan = "scan"
	// OrderRoutesFirst analyzes route files before every other file, so usage
	// counts are complete when implementations are checked for consolidation.
	OrderRoutesFirst = "routes-first"
)

// Config holds all configuration options for chainlint.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis" json:"analysis" yaml:"analysis"`

	// Detection thresholds
	Thresholds ThresholdsConfig `koanf:"thresholds" toml:"thresholds" json:"thresholds" yaml:"thresholds"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" json:"exclude" yaml:"exclude"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" json:"output" yaml:"output"`
}

// AnalysisConfig controls how a run is driven.
type AnalysisConfig struct {
	Order           string `koanf:"order" toml:"order" json:"order" yaml:"order"`
	Workers         int    `koanf:"workers" toml:"workers" json:"workers" yaml:"workers"` // 0 = one per CPU
	ContinueOnError bool   `koanf:"continue_on_error" toml:"continue_on_error" json:"continue_on_error" yaml:"continue_on_error"`
	MaxErrors       int    `koanf:"max_errors" toml:"max_errors" json:"max_errors" yaml:"max_errors"` // 0 = unlimited
	MaxFileSize     int64  `koanf:"max_file_size" toml:"max_file_size" json:"max_file_size" yaml:"max_file_size"`
	// IncludeUnresolved reports usage calls whose middleware name could not be extracted.
	IncludeUnresolved bool `koanf:"include_unresolved" toml:"include_unresolved" json:"include_unresolved" yaml:"include_unresolved"`
}

// ThresholdsConfig defines detection thresholds.
type ThresholdsConfig struct {
	DuplicateSimilarity float64 `koanf:"duplicate_similarity" toml:"duplicate_similarity" json:"duplicate_similarity" yaml:"duplicate_similarity"`
	SimilarSimilarity   float64 `koanf:"similar_similarity" toml:"similar_similarity" json:"similar_similarity" yaml:"similar_similarity"`
	InlineMaxChars      int     `koanf:"inline_max_chars" toml:"inline_max_chars" json:"inline_max_chars" yaml:"inline_max_chars"`
	UnusedMaxUsages     int     `koanf:"unused_max_usages" toml:"unused_max_usages" json:"unused_max_usages" yaml:"unused_max_usages"`
	InlineMaxUsages     int     `koanf:"inline_max_usages" toml:"inline_max_usages" json:"inline_max_usages" yaml:"inline_max_usages"`
	LateRateLimitIndex  int     `koanf:"late_rate_limit_index" toml:"late_rate_limit_index" json:"late_rate_limit_index" yaml:"late_rate_limit_index"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns" toml:"patterns" json:"patterns" yaml:"patterns"`
	Extensions []string `koanf:"extensions" toml:"extensions" json:"extensions" yaml:"extensions"`
	Dirs       []string `koanf:"dirs" toml:"dirs" json:"dirs" yaml:"dirs"`
	Gitignore  bool     `koanf:"gitignore" toml:"gitignore" json:"gitignore" yaml:"gitignore"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format      string `koanf:"format" toml:"format" json:"format" yaml:"format"` // text, json, markdown, toon
	Color       bool   `koanf:"color" toml:"color" json:"color" yaml:"color"`
	Verbose     bool   `koanf:"verbose" toml:"verbose" json:"verbose" yaml:"verbose"`
	MinSeverity string `koanf:"min_severity" toml:"min_severity" json:"min_severity" yaml:"min_severity"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Order:             OrderScan,
			Workers:           0,
			ContinueOnError:   true,
			MaxErrors:         0,
			MaxFileSize:       1 << 20,
			IncludeUnresolved: false,
		},
		Thresholds: ThresholdsConfig{
			DuplicateSimilarity: 0.8,
			SimilarSimilarity:   0.5,
			InlineMaxChars:      150,
			UnusedMaxUsages:     1,
			InlineMaxUsages:     2,
			LateRateLimitIndex:  2,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.d.ts",
				"*.min.js",
			},
			Extensions: []string{},
			Dirs: []string{
				"node_modules",
				".git",
				".next",
				".chainlint",
				"dist",
				"build",
				"coverage",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format:      "text",
			Color:       true,
			Verbose:     false,
			MinSeverity: "low",
		},
	}
}

// configNames are searched, in order, by LoadConfig.
var configNames = []string{
	"chainlint.toml",
	"chainlint.yaml",
	"chainlint.yml",
	"chainlint.json",
	".chainlint.toml",
	".chainlint.yaml",
	".chainlint.yml",
	".chainlint.json",
}

// searchDirs are the directories LoadConfig looks in, relative to the working directory.
var searchDirs = []string{".", ".chainlint"}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return toml.Parser()
	}
}

func loadKoanf(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return k, nil
}

// Load loads configuration from a file over the defaults.
func Load(path string) (*Config, error) {
	k, err := loadKoanf(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadResult is a loaded configuration and the file it came from.
type LoadResult struct {
	Config *Config
	// Source is the config file path, empty when defaults were used.
	Source string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
	dir  string
}

// WithPath loads the given file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithDir searches for config files relative to dir instead of the working directory.
func WithDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// LoadConfig loads and validates configuration. An explicit path must
// exist; otherwise the standard locations are searched and defaults are
// used when nothing is found.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	path := o.path
	if path == "" {
		path = findConfig(o.dir)
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	if err := ValidateFile(path); err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

func findConfig(base string) string {
	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(base, dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	result, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return result.Config
}

var validFormats = map[string]bool{"text": true, "json": true, "markdown": true, "toon": true}

var validSeverities = map[string]bool{"low": true, "medium": true, "high": true, "critical": true}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	var errs []error

	if c.Analysis.Order != OrderScan && c.Analysis.Order != OrderRoutesFirst {
		errs = append(errs, fmt.Errorf("analysis.order must be %q or %q, got %q",
			OrderScan, OrderRoutesFirst, c.Analysis.Order))
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("analysis.workers must be >= 0, got %d", c.Analysis.Workers))
	}
	if c.Analysis.MaxErrors < 0 {
		errs = append(errs, fmt.Errorf("analysis.max_errors must be >= 0, got %d", c.Analysis.MaxErrors))
	}
	if c.Analysis.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("analysis.max_file_size must be >= 0, got %d", c.Analysis.MaxFileSize))
	}

	t := c.Thresholds
	if t.DuplicateSimilarity < 0 || t.DuplicateSimilarity > 1 {
		errs = append(errs, fmt.Errorf("thresholds.duplicate_similarity must be in [0, 1], got %g", t.DuplicateSimilarity))
	}
	if t.SimilarSimilarity < 0 || t.SimilarSimilarity > 1 {
		errs = append(errs, fmt.Errorf("thresholds.similar_similarity must be in [0, 1], got %g", t.SimilarSimilarity))
	}
	if t.SimilarSimilarity > t.DuplicateSimilarity {
		errs = append(errs, fmt.Errorf("thresholds.similar_similarity (%g) must not exceed duplicate_similarity (%g)",
			t.SimilarSimilarity, t.DuplicateSimilarity))
	}
	if t.InlineMaxChars < 0 {
		errs = append(errs, fmt.Errorf("thresholds.inline_max_chars must be >= 0, got %d", t.InlineMaxChars))
	}
	if t.UnusedMaxUsages < 0 || t.InlineMaxUsages < 0 {
		errs = append(errs, errors.New("thresholds usage limits must be >= 0"))
	}
	if t.LateRateLimitIndex < 0 {
		errs = append(errs, fmt.Errorf("thresholds.late_rate_limit_index must be >= 0, got %d", t.LateRateLimitIndex))
	}

	if !validFormats[c.Output.Format] {
		errs = append(errs, fmt.Errorf("output.format must be one of text, json, markdown, toon, got %q", c.Output.Format))
	}
	if c.Output.MinSeverity != "" && !validSeverities[c.Output.MinSeverity] {
		errs = append(errs, fmt.Errorf("output.min_severity must be one of low, medium, high, critical, got %q", c.Output.MinSeverity))
	}

	return errors.Join(errs...)
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	sep := string(filepath.Separator)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, sep+dir+sep) || strings.HasPrefix(path, dir+sep) {
			return true
		}
	}

	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
