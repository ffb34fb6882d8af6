package ui

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
)

// BuildPhase is one weighted step of a long-running operation
type BuildPhase struct {
	Name   string
	Weight int
}

// ProgressTracker renders a single bar across several weighted phases.
// A disabled tracker is a no-op, so callers never need to nil-check.
type ProgressTracker struct {
	phases       []BuildPhase
	currentPhase int
	enabled      bool
	bar          *progressbar.ProgressBar
}

// NewProgressTracker creates a tracker writing to Err
func NewProgressTracker(phases []BuildPhase, description string, enabled bool) *ProgressTracker {
	t := &ProgressTracker{
		phases:  phases,
		enabled: enabled,
	}
	if !enabled {
		return t
	}

	total := 0
	for _, p := range phases {
		total += p.Weight
	}

	t.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(Err),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(20),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return t
}

// IsEnabled reports whether the tracker renders anything
func (t *ProgressTracker) IsEnabled() bool {
	return t.enabled
}

// StartPhase moves the bar to the start of phase i. Out of range indexes are ignored.
func (t *ProgressTracker) StartPhase(i int) {
	if i < 0 || i >= len(t.phases) {
		return
	}
	t.currentPhase = i
	if t.bar == nil {
		return
	}
	t.bar.Describe(fmt.Sprintf("[%d/%d] %s", i+1, len(t.phases), t.phases[i].Name))
	_ = t.bar.Set(t.getCompletedWeight())
}

// AdvancePhase marks the current phase as done
func (t *ProgressTracker) AdvancePhase() {
	if t.currentPhase < len(t.phases) {
		t.currentPhase++
	}
	if t.bar != nil {
		_ = t.bar.Set(t.getCompletedWeight())
	}
}

// Finish completes and clears the bar
func (t *ProgressTracker) Finish() {
	if t.bar == nil || t.bar.IsFinished() {
		return
	}
	_ = t.bar.Finish()
}

func (t *ProgressTracker) getCompletedWeight() int {
	done := 0
	for i := 0; i < t.currentPhase && i < len(t.phases); i++ {
		done += t.phases[i].Weight
	}
	return done
}
