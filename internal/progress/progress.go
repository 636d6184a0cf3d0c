package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/panbanda/chainlint/pkg/analyzer"
)

// Tracker wraps a progress bar for file processing.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
	w     io.Writer
}

// NewSpinner creates a spinner for operations with no known total. The
// spinner advances on every Write, so it can take the place of a progress
// writer such as a git clone's sideband output.
func NewSpinner(w io.Writer, label string) *Tracker {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: bar, label: label, w: w}
}

func newTracker(w io.Writer, label string, total int) *Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label, w: w}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	_ = t.bar.Add(1)
}

func (t *Tracker) Write(p []byte) (int, error) {
	t.Tick()
	return len(p), nil
}

// FinishSuccess clears the bar completely (no output).
func (t *Tracker) FinishSuccess() {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}

// FinishError clears the bar and prints an error message.
func (t *Tracker) FinishError(err error) {
	t.FinishSuccess()
	fmt.Fprintf(t.w, "  %s error: %v\n", t.label, err)
}

var stageLabels = map[analyzer.Stage]string{
	analyzer.StageParse:   "Parsing",
	analyzer.StageAnalyze: "Analyzing",
}

// StageBars renders one bar per analysis stage. Its Callback feeds an
// analyzer.Tracker; a new bar replaces the previous one when the stage
// changes.
type StageBars struct {
	mu      sync.Mutex
	w       io.Writer
	stage   analyzer.Stage
	current *Tracker
}

// NewStageBars creates stage bars writing to w.
func NewStageBars(w io.Writer) *StageBars {
	return &StageBars{w: w}
}

// Callback returns the progress function to hand to analyzer.NewTracker.
func (s *StageBars) Callback() analyzer.ProgressFunc {
	return func(stage analyzer.Stage, current, total int, path string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.current == nil || stage != s.stage {
			if s.current != nil {
				s.current.FinishSuccess()
			}
			label, ok := stageLabels[stage]
			if !ok {
				label = string(stage)
			}
			s.stage = stage
			s.current = newTracker(s.w, label, total)
		}
		s.current.Tick()
	}
}

// Stage returns the stage of the bar currently shown.
func (s *StageBars) Stage() analyzer.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Finish clears the last bar.
func (s *StageBars) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.FinishSuccess()
		s.current = nil
	}
}
