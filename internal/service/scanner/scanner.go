package scanner

import (
	"os"
	"path/filepath"

	"github.com/panbanda/chainlint/internal/scanner"
	"github.com/panbanda/chainlint/pkg/config"
	"github.com/panbanda/chainlint/pkg/models"
)

// ScanResult contains the result of a file scan.
type ScanResult struct {
	Files []models.FileInfo
	// Categories counts scanned files per category.
	Categories map[models.FileCategory]int
	// Skipped counts files dropped for size or stat failures.
	Skipped int
}

// Service provides file scanning functionality.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New creates a new scanner service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	return s
}

// ScanPaths scans directories and single files. Directory entries are
// described relative to that directory; a single file is described relative
// to its parent. Results keep the walk order of each path, paths in order.
func (s *Service) ScanPaths(paths []string) (*ScanResult, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	scan := scanner.NewScanner(s.config)
	result := &ScanResult{}

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}

		if !info.IsDir() {
			ok, err := scan.ScanFile(absPath)
			if err != nil {
				return nil, &ScanError{Path: path, Err: err}
			}
			if !ok {
				continue
			}
			fi, err := scanner.Describe(filepath.Dir(absPath), absPath)
			if err != nil {
				return nil, &ScanError{Path: path, Err: err}
			}
			result.Files = append(result.Files, fi)
			continue
		}

		found, skipped, err := scan.Scan(absPath)
		if err != nil {
			return nil, &ScanError{Path: path, Err: err}
		}
		result.Files = append(result.Files, found...)
		result.Skipped += skipped
	}

	result.Categories = scanner.GroupByCategory(result.Files)
	return result, nil
}

// PathError indicates an invalid path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
