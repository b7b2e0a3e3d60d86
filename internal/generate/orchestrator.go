// Package generate coordinates a single terrain-generation request against
// the engine and reconciles its result into UI state.
package generate

import (
	"context"
	"errors"
	"log"

	"github.com/cherepokivan/BeamNG-Map-Generator/internal/geo"
)

// Precondition errors returned before any engine call is made
var (
	ErrNoSelection  = errors.New("no region selected: click two corners on the map first")
	ErrNoOutputPath = errors.New("no output folder selected")
	ErrInFlight     = errors.New("a generation is already running")
)

// Engine is the terrain-generation backend. A call runs until it settles;
// neither cancellation nor timeouts are offered to the caller.
type Engine interface {
	Generate(ctx context.Context, bbox geo.BoundingBox, outputPath string) (string, error)
}

// Orchestrator issues one asynchronous generation request at a time and
// resolves it into the view state's terminal outcome. Progress feedback
// travels independently over the progress bus and is never correlated to
// a specific request; the single-run gate makes correlation unnecessary.
type Orchestrator struct {
	state     *ViewState
	engine    Engine
	onOutcome func(Outcome)
}

// NewOrchestrator wires an orchestrator to its state and engine
func NewOrchestrator(state *ViewState, engine Engine) *Orchestrator {
	return &Orchestrator{state: state, engine: engine}
}

// SetOnOutcome registers a callback invoked after each run settles, after
// the view state has been updated. Used by the app layer to notify the
// frontend.
func (o *Orchestrator) SetOnOutcome(cb func(Outcome)) {
	o.onOutcome = cb
}

// Start validates preconditions and launches the generation run. Both the
// bounding box and the output path must be present in the view state; a
// missing one fails immediately without touching the in-flight flag. The
// UI disables its trigger while a run is in flight, but the gate is
// enforced here too so the contract holds for any caller.
//
// The engine call proceeds in the background; Start returns as soon as the
// request is issued. The result lands in the view state as the run's
// outcome: the engine's message on success, the stringified error on
// failure. Either way the in-flight flag is released.
func (o *Orchestrator) Start(ctx context.Context) error {
	bbox := o.state.BoundingBox()
	if bbox == nil {
		return ErrNoSelection
	}
	outputPath := o.state.OutputPath()
	if outputPath == "" {
		return ErrNoOutputPath
	}

	if !o.state.beginRun() {
		return ErrInFlight
	}

	go o.run(ctx, *bbox, outputPath)
	return nil
}

func (o *Orchestrator) run(ctx context.Context, bbox geo.BoundingBox, outputPath string) {
	log.Printf("[generate] starting run for %s -> %s", bbox.String(), outputPath)

	message, err := o.engine.Generate(ctx, bbox, outputPath)

	var outcome Outcome
	if err != nil {
		outcome = Outcome{Success: false, Message: err.Error()}
		log.Printf("[generate] run failed: %v", err)
	} else {
		outcome = Outcome{Success: true, Message: message}
		log.Printf("[generate] run completed: %s", message)
	}

	o.state.finishRun(outcome)
	if o.onOutcome != nil {
		o.onOutcome(outcome)
	}
}
