// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/panbanda/chainlint/pkg/analyzer"
	"github.com/panbanda/chainlint/pkg/ast"
	"github.com/panbanda/chainlint/pkg/ast/treesitter"
	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// sortByIndex orders collected errors by input position.
func (e *ProcessingErrors) sortByIndex(index map[string]int) {
	sort.SliceStable(e.Errors, func(i, j int) bool {
		return index[e.Errors[i].Path] < index[e.Errors[j].Path]
	})
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// Workers resolves a configured worker count; n <= 0 means 2x NumCPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU() * DefaultWorkerMultiplier
	}
	return n
}

// ParseFunc processes one file with a worker-owned provider.
type ParseFunc[T any] func(ast.Provider, string) (T, error)

// MapFilesIndexed processes files in parallel, each worker owning one
// tree-sitter provider. results[i] belongs to files[i]; a failed file
// leaves the zero value in its slot and an entry in the returned errors,
// ordered by input position. Progress is reported through the tracker
// carried by ctx, if any.
func MapFilesIndexed[T any](ctx context.Context, files []string, maxWorkers int, fn ParseFunc[T]) ([]T, *ProcessingErrors) {
	return MapFilesIndexedWith(ctx, files, maxWorkers, func() ast.Provider { return treesitter.New() }, fn)
}

// MapFilesIndexedWith is MapFilesIndexed with a caller-supplied provider factory.
func MapFilesIndexedWith[T any](
	ctx context.Context,
	files []string,
	maxWorkers int,
	newProvider func() ast.Provider,
	fn ParseFunc[T],
) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	maxWorkers = Workers(maxWorkers)
	if maxWorkers > len(files) {
		maxWorkers = len(files)
	}
	tracker := analyzer.TrackerFromContext(ctx)

	// One provider per worker; tree-sitter parsers are not goroutine safe.
	providers := make(chan ast.Provider, maxWorkers)
	for i := 0; i < maxWorkers; i++ {
		providers <- newProvider()
	}

	results := make([]T, len(files))
	errs := &ProcessingErrors{}
	index := make(map[string]int, len(files))
	for i, path := range files {
		index[path] = i
	}

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			defer func() {
				if tracker != nil {
					tracker.Tick(path)
				}
			}()

			select {
			case <-ctx.Done():
				errs.Add(path, ctx.Err())
				return nil
			default:
			}

			prov := <-providers
			defer func() { providers <- prov }()

			result, err := fn(prov, path)
			if err != nil {
				errs.Add(path, err)
				return nil // individual file errors never stop the pool
			}
			results[i] = result
			return nil
		})
	}
	_ = p.Wait()

	close(providers)
	for prov := range providers {
		prov.Close()
	}

	if !errs.HasErrors() {
		return results, nil
	}
	errs.sortByIndex(index)
	return results, errs
}
