package selection

import (
	"testing"

	"github.com/cherepokivan/BeamNG-Map-Generator/internal/geo"
)

func TestTwoClickSelection(t *testing.T) {
	var emitted []geo.BoundingBox
	s := New(func(b geo.BoundingBox) { emitted = append(emitted, b) })

	if got := s.State().Phase; got != PhaseEmpty {
		t.Fatalf("initial phase = %s, want %s", got, PhaseEmpty)
	}

	st := s.Click(geo.Point{Lat: 10, Lng: 20})
	if st.Phase != PhaseFirstPoint {
		t.Fatalf("after first click phase = %s, want %s", st.Phase, PhaseFirstPoint)
	}
	if st.FirstPoint == nil || st.FirstPoint.Lat != 10 || st.FirstPoint.Lng != 20 {
		t.Fatalf("first point not captured: %+v", st.FirstPoint)
	}
	if len(emitted) != 0 {
		t.Fatal("box emitted before selection completed")
	}

	st = s.Click(geo.Point{Lat: 30, Lng: 5})
	if st.Phase != PhaseComplete {
		t.Fatalf("after second click phase = %s, want %s", st.Phase, PhaseComplete)
	}
	want := geo.BoundingBox{MinLat: 10, MinLng: 5, MaxLat: 30, MaxLng: 20}
	if st.Box == nil || *st.Box != want {
		t.Fatalf("box = %+v, want %+v", st.Box, want)
	}
	if len(emitted) != 1 || emitted[0] != want {
		t.Fatalf("emitted = %+v, want exactly one %+v", emitted, want)
	}
}

func TestThirdClickIgnored(t *testing.T) {
	emissions := 0
	s := New(func(geo.BoundingBox) { emissions++ })

	s.Click(geo.Point{Lat: 10, Lng: 20})
	s.Click(geo.Point{Lat: 30, Lng: 5})
	before := *s.Box()

	st := s.Click(geo.Point{Lat: -50, Lng: 99})
	if st.Phase != PhaseComplete {
		t.Fatalf("third click changed phase to %s", st.Phase)
	}
	if *s.Box() != before {
		t.Fatalf("third click mutated box: %+v -> %+v", before, *s.Box())
	}
	if emissions != 1 {
		t.Fatalf("emissions = %d, want 1", emissions)
	}
}

func TestResetFromEveryPhase(t *testing.T) {
	s := New(nil)

	// Reset from empty.
	if st := s.Reset(); st.Phase != PhaseEmpty {
		t.Fatalf("reset from empty: phase = %s", st.Phase)
	}

	// Reset from first point.
	s.Click(geo.Point{Lat: 1, Lng: 2})
	if st := s.Reset(); st.Phase != PhaseEmpty || st.FirstPoint != nil {
		t.Fatalf("reset from first point: %+v", st)
	}

	// Reset from complete.
	s.Click(geo.Point{Lat: 1, Lng: 2})
	s.Click(geo.Point{Lat: 3, Lng: 4})
	if st := s.Reset(); st.Phase != PhaseEmpty || st.Box != nil {
		t.Fatalf("reset from complete: %+v", st)
	}
	if s.Box() != nil {
		t.Fatal("Box() after reset should be nil")
	}

	// A click after reset starts a fresh selection.
	if st := s.Click(geo.Point{Lat: 7, Lng: 8}); st.Phase != PhaseFirstPoint {
		t.Fatalf("click after reset: phase = %s", st.Phase)
	}
}

func TestBoxNilUntilComplete(t *testing.T) {
	s := New(nil)
	if s.Box() != nil {
		t.Fatal("empty selector has a box")
	}
	s.Click(geo.Point{Lat: 1, Lng: 1})
	if s.Box() != nil {
		t.Fatal("half-complete selector has a box")
	}
}
