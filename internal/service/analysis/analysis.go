package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/panbanda/chainlint/internal/cache"
	"github.com/panbanda/chainlint/internal/fileproc"
	scannersvc "github.com/panbanda/chainlint/internal/service/scanner"
	"github.com/panbanda/chainlint/pkg/analyzer"
	"github.com/panbanda/chainlint/pkg/analyzer/middleware"
	"github.com/panbanda/chainlint/pkg/ast"
	"github.com/panbanda/chainlint/pkg/config"
	"github.com/panbanda/chainlint/pkg/models"
)

// SlowFileThreshold is the per-file time above which a warning is logged.
const SlowFileThreshold = time.Second

// Service orchestrates a middleware analysis run: parse in parallel,
// analyze sequentially in a fixed order against one session, aggregate.
type Service struct {
	config      *config.Config
	logger      *slog.Logger
	newProvider func() ast.Provider
	now         func() time.Time
	cache       *cache.Cache
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithProviderFactory sets how per-worker parse providers are created.
// Without one, each worker parses with tree-sitter.
func WithProviderFactory(fn func() ast.Provider) Option {
	return func(s *Service) {
		s.newProvider = fn
	}
}

// WithClock sets the time source for GeneratedAt and Issue.DetectedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithCache reuses the result of an earlier run when the configuration and
// every file's content are unchanged.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	return s
}

// Result is the outcome of a run.
type Result struct {
	Analysis   *models.AnalysisResult `json:"analysis"`
	Middleware middleware.Summary     `json:"middleware"`
	// Unresolved lists usage calls whose middleware could not be named.
	// Populated only when analysis.include_unresolved is set.
	Unresolved []UnresolvedCall `json:"unresolved,omitempty"`
}

// UnresolvedCall is a usage call site with no extractable middleware name.
type UnresolvedCall struct {
	RouteFile string `json:"route_file"`
	Line      int    `json:"line"`
	CallText  string `json:"call_text"`
}

// AnalysisError reports a run that was stopped.
type AnalysisError struct {
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// AnalyzePaths scans paths and analyzes every file found.
func (s *Service) AnalyzePaths(ctx context.Context, paths []string) (*Result, error) {
	scan, err := scannersvc.New(scannersvc.WithConfig(s.config)).ScanPaths(paths)
	if err != nil {
		return nil, err
	}
	s.logger.Info("scan complete",
		"files", len(scan.Files),
		"skipped", scan.Skipped,
	)

	result, err := s.AnalyzeFiles(ctx, scan.Files)
	if err != nil {
		return nil, err
	}
	result.Analysis.Summary.SkippedFiles += scan.Skipped
	return result, nil
}

// Order returns files in analysis order. OrderRoutesFirst stably moves
// route files ahead of all other files so usage counts are complete before
// any implementation is checked; any other order keeps the input order.
func Order(files []models.FileInfo, order string) []models.FileInfo {
	out := make([]models.FileInfo, len(files))
	copy(out, files)
	if order != config.OrderRoutesFirst {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Category == models.CategoryAPIRoute && out[j].Category != models.CategoryAPIRoute
	})
	return out
}

type parsedFile struct {
	tree      ast.File
	parseTime time.Duration
}

// AnalyzeFiles analyzes files in a fresh session. Files whose category the
// middleware analyzer does not support are counted but not parsed.
func (s *Service) AnalyzeFiles(ctx context.Context, files []models.FileInfo) (*Result, error) {
	key := s.cacheKey(files)
	if key != "" {
		var cached Result
		if s.cache.Get(key, &cached) {
			s.logger.Info("using cached analysis", "files", len(files))
			return &cached, nil
		}
	}

	res, err := s.analyzeFiles(ctx, files)
	if err != nil {
		return nil, err
	}
	if key != "" {
		if err := s.cache.Set(key, res); err != nil {
			s.logger.Warn("failed to write cache", "error", err)
		}
	}
	return res, nil
}

// cacheKey digests the configuration and the files in order. It returns
// "" when caching is off or a file cannot be read.
func (s *Service) cacheKey(files []models.FileInfo) string {
	if !s.cache.Enabled() {
		return ""
	}
	cfg, err := json.Marshal(s.config)
	if err != nil {
		return ""
	}

	k := cache.NewKeyer()
	k.Add(string(cfg))
	for _, f := range files {
		k.Add(f.Path, f.RelativePath, string(f.Category))
		if err := k.AddFile(f.Path); err != nil {
			s.logger.Debug("not caching run", "path", f.Path, "error", err)
			return ""
		}
	}
	return k.Sum()
}

func (s *Service) analyzeFiles(ctx context.Context, files []models.FileInfo) (*Result, error) {
	start := time.Now()
	mw := middleware.New(
		middleware.WithConfig(s.config.Thresholds),
		middleware.WithClock(s.now),
	)
	sess := middleware.NewSession()

	summary := models.NewAnalysisSummary()
	summary.TotalFiles = len(files)
	targets := make([]models.FileInfo, 0, len(files))
	for _, f := range files {
		summary.FilesByCategory[f.Category]++
		if mw.Supports(f.Category) {
			targets = append(targets, f)
		} else {
			summary.SkippedFiles++
		}
	}
	targets = Order(targets, s.config.Analysis.Order)

	paths := make([]string, len(targets))
	for i, f := range targets {
		paths[i] = f.Path
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Begin(analyzer.StageParse, len(targets))
	}
	parse := func(p ast.Provider, path string) (*parsedFile, error) {
		t0 := time.Now()
		tree, err := p.Parse(path)
		if err != nil {
			return nil, err
		}
		return &parsedFile{tree: tree, parseTime: time.Since(t0)}, nil
	}
	var parsed []*parsedFile
	var perrs *fileproc.ProcessingErrors
	if s.newProvider == nil {
		parsed, perrs = fileproc.MapFilesIndexed(ctx, paths, s.config.Analysis.Workers, parse)
	} else {
		parsed, perrs = fileproc.MapFilesIndexedWith(ctx, paths, s.config.Analysis.Workers, s.newProvider, parse)
	}
	if err := ctx.Err(); err != nil {
		return nil, &AnalysisError{Message: "analysis cancelled", Err: err}
	}

	parseErrs := make(map[string]error)
	if perrs.HasErrors() {
		for _, pe := range perrs.Errors {
			parseErrs[pe.Path] = pe.Err
		}
	}

	if tracker != nil {
		tracker.Begin(analyzer.StageAnalyze, len(targets))
	}

	result := &models.AnalysisResult{}
	var (
		issues     []models.Issue
		errorCount int
		metrics    models.AnalysisMetrics
	)
	maxErrors := s.config.Analysis.MaxErrors

	for i, f := range targets {
		if err := ctx.Err(); err != nil {
			return nil, &AnalysisError{Message: "analysis cancelled", Err: err}
		}
		display := f.DisplayPath()

		pf := parsed[i]
		if pf == nil {
			err := parseErrs[f.Path]
			if err == nil {
				err = errors.New("parse failed")
			}
			errorCount++
			summary.FailedFiles++
			result.Errors = append(result.Errors, models.FileError{Path: display, Message: err.Error()})
			s.logger.Warn("failed to parse file", "path", display, "error", err)

			perr := fileproc.ProcessingError{Path: display, Err: err}
			if maxErrors > 0 && errorCount >= maxErrors {
				return nil, &AnalysisError{
					Message: fmt.Sprintf("analysis stopped after %d errors, last error: %s", errorCount, display),
					Err:     perr,
				}
			}
			if !s.config.Analysis.ContinueOnError {
				return nil, &AnalysisError{Message: "analysis failed on file " + display, Err: perr}
			}
			if tracker != nil {
				tracker.Tick(display)
			}
			continue
		}

		t0 := time.Now()
		fileIssues := mw.Analyze(sess, f, pf.tree)
		analysisTime := time.Since(t0)

		issues = append(issues, fileIssues...)
		summary.AnalyzedFiles++
		metrics.ParseTime += pf.parseTime
		metrics.AnalysisTime += analysisTime
		metrics.Files = append(metrics.Files, models.FileMetrics{
			Path:         display,
			Category:     f.Category,
			ParseTime:    pf.parseTime,
			AnalysisTime: analysisTime,
			Issues:       len(fileIssues),
		})

		s.logger.Debug("analyzed file",
			"path", display,
			"category", f.Category,
			"issues", len(fileIssues),
			"parse_time", pf.parseTime,
			"analysis_time", analysisTime,
		)
		if total := pf.parseTime + analysisTime; total > SlowFileThreshold {
			s.logger.Warn("slow file", "path", display, "duration", total)
		}
		if tracker != nil {
			tracker.Tick(display)
		}
	}

	issues, dropped := models.Dedupe(issues)
	summary.DuplicateIssues = dropped
	for _, issue := range issues {
		summary.Count(issue)
	}

	metrics.Duration = time.Since(start)
	if summary.AnalyzedFiles > 0 {
		metrics.AveragePerFile = metrics.Duration / time.Duration(summary.AnalyzedFiles)
	}

	if issues == nil {
		issues = []models.Issue{}
	}
	result.Issues = issues
	result.Summary = summary
	result.Metrics = metrics
	result.GeneratedAt = s.now()

	mwSummary := sess.Summary()
	s.logger.Info("analysis complete",
		"files", summary.TotalFiles,
		"analyzed", summary.AnalyzedFiles,
		"failed", summary.FailedFiles,
		"issues", summary.TotalIssues,
		"implementations", mwSummary.TotalImplementations,
		"usages", mwSummary.TotalUsages,
		"duration", metrics.Duration,
	)

	out := &Result{Analysis: result, Middleware: mwSummary}
	if s.config.Analysis.IncludeUnresolved {
		for _, u := range sess.UnresolvedUsages() {
			call := UnresolvedCall{RouteFile: u.RouteFile, CallText: u.CallText}
			if u.Node != nil {
				call.Line = u.Node.Start.Line
			}
			out.Unresolved = append(out.Unresolved, call)
		}
	}
	return out, nil
}
