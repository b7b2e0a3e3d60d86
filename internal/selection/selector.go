// Package selection implements the two-click bounding box selection state
// machine driven by map clicks from the frontend.
package selection

import (
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/geo"
)

// Phase identifies the current selection state
type Phase string

const (
	PhaseEmpty      Phase = "empty"
	PhaseFirstPoint Phase = "first_point"
	PhaseComplete   Phase = "complete"
)

// State is a snapshot of the selection state machine. Exactly one of
// FirstPoint and Box is populated outside of the empty phase.
type State struct {
	Phase      Phase            `json:"phase"`
	FirstPoint *geo.Point       `json:"firstPoint,omitempty"`
	Box        *geo.BoundingBox `json:"box,omitempty"`
}

// Selector turns a sequence of map clicks into a bounding box. The first
// click captures a corner, the second completes the box, and further clicks
// are ignored until Reset. Completion is reported through the onComplete
// callback supplied by the owner; there is no shared global hook.
//
// Selector is not safe for concurrent use; callers serialize access
// (the App layer holds its own mutex around handlers).
type Selector struct {
	phase      Phase
	firstPoint geo.Point
	box        geo.BoundingBox
	onComplete func(geo.BoundingBox)
}

// New creates a selector in the empty state. onComplete may be nil.
func New(onComplete func(geo.BoundingBox)) *Selector {
	return &Selector{
		phase:      PhaseEmpty,
		onComplete: onComplete,
	}
}

// Click feeds one map click into the state machine and returns the
// resulting state. A click while the selection is complete is a no-op;
// starting over requires an explicit Reset.
func (s *Selector) Click(p geo.Point) State {
	switch s.phase {
	case PhaseEmpty:
		s.firstPoint = p
		s.phase = PhaseFirstPoint
	case PhaseFirstPoint:
		s.box = geo.NewBoundingBox(s.firstPoint, p)
		s.phase = PhaseComplete
		if s.onComplete != nil {
			s.onComplete(s.box)
		}
	case PhaseComplete:
		// Ignored. The completed box stays untouched.
	}
	return s.State()
}

// Reset returns the selector to the empty state from any phase
func (s *Selector) Reset() State {
	s.phase = PhaseEmpty
	s.firstPoint = geo.Point{}
	s.box = geo.BoundingBox{}
	return s.State()
}

// State returns a snapshot of the current selection
func (s *Selector) State() State {
	switch s.phase {
	case PhaseFirstPoint:
		p := s.firstPoint
		return State{Phase: PhaseFirstPoint, FirstPoint: &p}
	case PhaseComplete:
		b := s.box
		return State{Phase: PhaseComplete, Box: &b}
	default:
		return State{Phase: PhaseEmpty}
	}
}

// Box returns the completed bounding box, or nil if the selection is not
// complete yet
func (s *Selector) Box() *geo.BoundingBox {
	if s.phase != PhaseComplete {
		return nil
	}
	b := s.box
	return &b
}
