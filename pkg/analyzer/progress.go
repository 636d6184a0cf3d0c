package analyzer

import (
	"context"
	"sync"
	"sync/atomic"
)

// Stage names a phase of an analysis run.
type Stage string

const (
	StageParse   Stage = "parse"
	StageAnalyze Stage = "analyze"
)

// ProgressFunc is called to report analysis progress.
// current is the number of items processed in the stage, total is the
// stage total, and path is the item just finished.
type ProgressFunc func(stage Stage, current, total int, path string)

// Tracker tracks progress across the stages of a run.
// It is safe for concurrent use from multiple goroutines.
type Tracker struct {
	mu       sync.Mutex
	stage    Stage
	total    atomic.Int32
	current  atomic.Int32
	callback ProgressFunc
}

// NewTracker creates a new progress tracker with the given callback.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Begin starts a new stage with n items, resetting the counter.
func (t *Tracker) Begin(stage Stage, n int) {
	t.mu.Lock()
	t.stage = stage
	t.mu.Unlock()
	t.current.Store(0)
	t.total.Store(int32(n))
}

// Tick marks one item of the current stage as completed.
func (t *Tracker) Tick(path string) {
	current := int(t.current.Add(1))
	total := int(t.total.Load())
	if t.callback != nil {
		t.callback(t.Stage(), current, total, path)
	}
}

// Stage returns the current stage.
func (t *Tracker) Stage() Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stage
}

// Current returns the current progress count.
func (t *Tracker) Current() int {
	return int(t.current.Load())
}

// Total returns the total count of the current stage.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

type trackerKey struct{}

// WithTracker returns a context that carries a progress tracker.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext extracts the progress tracker from the context.
// Returns nil if no tracker was set.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}
