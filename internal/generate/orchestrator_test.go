package generate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cherepokivan/BeamNG-Map-Generator/internal/geo"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/progress"
)

// fakeEngine blocks until release is closed, then returns its canned result.
type fakeEngine struct {
	release chan struct{}
	message string
	err     error
	calls   int
}

func newFakeEngine(message string, err error) *fakeEngine {
	return &fakeEngine{release: make(chan struct{}), message: message, err: err}
}

func (f *fakeEngine) Generate(ctx context.Context, bbox geo.BoundingBox, outputPath string) (string, error) {
	f.calls++
	<-f.release
	return f.message, f.err
}

func readyState(t *testing.T) *ViewState {
	t.Helper()
	v := NewViewState()
	v.SetBoundingBox(geo.BoundingBox{MinLat: 10, MinLng: 5, MaxLat: 30, MaxLng: 20})
	v.SetOutputPath(t.TempDir())
	return v
}

func waitOutcome(t *testing.T, done <-chan Outcome) Outcome {
	t.Helper()
	select {
	case o := <-done:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return Outcome{}
	}
}

func TestStartPreconditions(t *testing.T) {
	engine := newFakeEngine("OK", nil)

	t.Run("missing bounding box", func(t *testing.T) {
		v := NewViewState()
		v.SetOutputPath(t.TempDir())
		o := NewOrchestrator(v, engine)
		if err := o.Start(context.Background()); !errors.Is(err, ErrNoSelection) {
			t.Fatalf("err = %v, want ErrNoSelection", err)
		}
		if v.InFlight() {
			t.Fatal("precondition failure set inFlight")
		}
	})

	t.Run("missing output path", func(t *testing.T) {
		v := NewViewState()
		v.SetBoundingBox(geo.BoundingBox{MinLat: 1, MinLng: 1, MaxLat: 2, MaxLng: 2})
		o := NewOrchestrator(v, engine)
		if err := o.Start(context.Background()); !errors.Is(err, ErrNoOutputPath) {
			t.Fatalf("err = %v, want ErrNoOutputPath", err)
		}
		if v.InFlight() {
			t.Fatal("precondition failure set inFlight")
		}
	})

	if engine.calls != 0 {
		t.Fatalf("engine called %d times on precondition failures", engine.calls)
	}
}

func TestSuccessfulRun(t *testing.T) {
	v := readyState(t)
	engine := newFakeEngine("OK", nil)
	o := NewOrchestrator(v, engine)

	done := make(chan Outcome, 1)
	o.SetOnOutcome(func(out Outcome) { done <- out })

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !v.InFlight() {
		t.Fatal("inFlight not set while request outstanding")
	}
	if v.Snapshot().CanGenerate {
		t.Fatal("CanGenerate true while in flight")
	}

	close(engine.release)
	out := waitOutcome(t, done)

	if !out.Success || out.Message != "OK" {
		t.Fatalf("outcome = %+v, want Success OK", out)
	}
	if v.InFlight() {
		t.Fatal("inFlight still set after resolution")
	}
	snap := v.Snapshot()
	if snap.Outcome == nil || !snap.Outcome.Success {
		t.Fatalf("snapshot outcome = %+v", snap.Outcome)
	}
	if !snap.CanGenerate {
		t.Fatal("UI should be actionable again after the run settles")
	}
}

func TestFailedRun(t *testing.T) {
	v := readyState(t)
	engine := newFakeEngine("", errors.New("disk full"))
	o := NewOrchestrator(v, engine)

	done := make(chan Outcome, 1)
	o.SetOnOutcome(func(out Outcome) { done <- out })

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	close(engine.release)
	out := waitOutcome(t, done)

	if out.Success {
		t.Fatalf("outcome = %+v, want failure", out)
	}
	if out.Message != "disk full" {
		t.Fatalf("message = %q, want the stringified engine error", out.Message)
	}
	if v.InFlight() {
		t.Fatal("inFlight still set after failure")
	}
}

func TestSecondStartWhileInFlight(t *testing.T) {
	v := readyState(t)
	engine := newFakeEngine("OK", nil)
	o := NewOrchestrator(v, engine)

	done := make(chan Outcome, 1)
	o.SetOnOutcome(func(out Outcome) { done <- out })

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := o.Start(context.Background()); !errors.Is(err, ErrInFlight) {
		t.Fatalf("second Start err = %v, want ErrInFlight", err)
	}

	close(engine.release)
	waitOutcome(t, done)

	if engine.calls != 1 {
		t.Fatalf("engine called %d times, want 1", engine.calls)
	}
}

func TestStartClearsPriorOutcome(t *testing.T) {
	v := readyState(t)
	engine := newFakeEngine("OK", nil)
	o := NewOrchestrator(v, engine)

	done := make(chan Outcome, 1)
	o.SetOnOutcome(func(out Outcome) { done <- out })

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if snap := v.Snapshot(); snap.Outcome != nil {
		t.Fatalf("outcome not cleared at start of run: %+v", snap.Outcome)
	}
	close(engine.release)
	waitOutcome(t, done)
}

func TestLateProgressAfterResolution(t *testing.T) {
	v := readyState(t)
	engine := newFakeEngine("OK", nil)
	o := NewOrchestrator(v, engine)

	done := make(chan Outcome, 1)
	o.SetOnOutcome(func(out Outcome) { done <- out })

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	close(engine.release)
	waitOutcome(t, done)

	// An event arriving after the command settled only updates progress.
	v.ApplyProgress(progress.Progress{Stage: "fetching tiles", Progress: 42})

	snap := v.Snapshot()
	if snap.LatestProgress == nil || snap.LatestProgress.Progress != 42 {
		t.Fatalf("latest progress = %+v, want 42", snap.LatestProgress)
	}
	if snap.InFlight {
		t.Fatal("late progress event resurrected inFlight")
	}
	if snap.Outcome == nil || !snap.Outcome.Success {
		t.Fatalf("late progress event disturbed outcome: %+v", snap.Outcome)
	}
}

func TestCanceledDialogLeavesOutputPath(t *testing.T) {
	v := NewViewState()
	v.SetOutputPath("/maps/out")
	v.SetOutputPath("") // user canceled the picker
	if got := v.OutputPath(); got != "/maps/out" {
		t.Fatalf("output path = %q, want unchanged /maps/out", got)
	}
}
