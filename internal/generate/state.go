package generate

import (
	"sync"

	"github.com/cherepokivan/BeamNG-Map-Generator/internal/geo"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/progress"
)

// Outcome is the terminal result of a generation attempt, produced exactly
// once per run
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ViewState aggregates everything the UI renders: the selected region, the
// output location, the in-flight flag, the latest progress record, and the
// terminal outcome. All access goes through the mutex; fields reset only on
// explicit user actions.
type ViewState struct {
	mu         sync.Mutex
	box        *geo.BoundingBox
	outputPath string
	inFlight   bool
	latest     *progress.Progress
	outcome    *Outcome
}

// NewViewState creates an empty view state
func NewViewState() *ViewState {
	return &ViewState{}
}

// SetBoundingBox records a completed selection
func (v *ViewState) SetBoundingBox(b geo.BoundingBox) {
	v.mu.Lock()
	defer v.mu.Unlock()
	box := b
	v.box = &box
}

// ClearBoundingBox discards the current selection
func (v *ViewState) ClearBoundingBox() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.box = nil
}

// BoundingBox returns the selected region, or nil when none is complete
func (v *ViewState) BoundingBox() *geo.BoundingBox {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.box == nil {
		return nil
	}
	b := *v.box
	return &b
}

// SetOutputPath records the chosen output directory. An empty path (dialog
// canceled) leaves the previous value unchanged.
func (v *ViewState) SetOutputPath(path string) {
	if path == "" {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.outputPath = path
}

// OutputPath returns the chosen output directory, empty if none
func (v *ViewState) OutputPath() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.outputPath
}

// ApplyProgress stores the most recent progress record. Progress arriving
// after a run has settled still lands here; it never touches the in-flight
// flag or outcome.
func (v *ViewState) ApplyProgress(p progress.Progress) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.latest = &p
}

// InFlight reports whether a generation is currently running
func (v *ViewState) InFlight() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inFlight
}

// DismissOutcome clears the terminal outcome, returning the UI to its
// pre-result rendering
func (v *ViewState) DismissOutcome() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.outcome = nil
}

// beginRun atomically flips to in-flight and clears any prior outcome.
// Returns false if a run is already in flight.
func (v *ViewState) beginRun() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.inFlight {
		return false
	}
	v.inFlight = true
	v.outcome = nil
	return true
}

// finishRun records the terminal outcome and releases the in-flight flag
func (v *ViewState) finishRun(o Outcome) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inFlight = false
	out := o
	v.outcome = &out
}

// Snapshot is the render-facing projection of the view state
type Snapshot struct {
	BoundingBox    *geo.BoundingBox   `json:"boundingBox,omitempty"`
	OutputPath     string             `json:"outputPath"`
	InFlight       bool               `json:"inFlight"`
	LatestProgress *progress.Progress `json:"latestProgress,omitempty"`
	Outcome        *Outcome           `json:"outcome,omitempty"`
	CanGenerate    bool               `json:"canGenerate"`
}

// Snapshot returns a consistent copy for rendering. CanGenerate is true
// exactly when a box and output path are present and nothing is in flight.
func (v *ViewState) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := Snapshot{
		OutputPath: v.outputPath,
		InFlight:   v.inFlight,
	}
	if v.box != nil {
		b := *v.box
		s.BoundingBox = &b
	}
	if v.latest != nil {
		p := *v.latest
		s.LatestProgress = &p
	}
	if v.outcome != nil {
		o := *v.outcome
		s.Outcome = &o
	}
	s.CanGenerate = v.box != nil && v.outputPath != "" && !v.inFlight
	return s
}
