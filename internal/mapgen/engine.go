// Package mapgen is the terrain-generation engine: it pulls elevation and
// map data for a bounding box, converts it into level content, and writes
// the packaged mod, reporting progress along the way.
package mapgen

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/cherepokivan/BeamNG-Map-Generator/internal/beamng"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/geo"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/osm"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/progress"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/terrain"
	"github.com/cherepokivan/BeamNG-Map-Generator/pkg/heightmap"

	"github.com/paulmach/orb/maptile"
)

// ElevationSource provides heightmap data for a region
type ElevationSource interface {
	DownloadHeightmap(ctx context.Context, bbox geo.BoundingBox, zoom maptile.Zoom, onProgress func(current, total int)) ([][]float32, error)
}

// FeatureSource provides OSM features for a region
type FeatureSource interface {
	FetchElements(ctx context.Context, bbox geo.BoundingBox) ([]osm.Element, error)
}

// Engine runs one complete map generation. Progress is published on the
// bus as the run moves through its stages; the bus carries no request
// identity, which is fine while only one run exists at a time.
type Engine struct {
	elevation ElevationSource
	features  FeatureSource
	bus       *progress.Bus
	zoom      maptile.Zoom
}

// NewEngine wires the engine to its data sources and the progress bus
func NewEngine(elevation ElevationSource, features FeatureSource, bus *progress.Bus) *Engine {
	return &Engine{
		elevation: elevation,
		features:  features,
		bus:       bus,
		zoom:      terrain.DefaultZoom,
	}
}

// SetZoom overrides the terrain tile zoom level
func (e *Engine) SetZoom(zoom maptile.Zoom) {
	if zoom > 0 {
		e.zoom = zoom
	}
}

func (e *Engine) emit(stage string, pct float64) {
	e.bus.Emit(progress.Progress{Stage: stage, Progress: pct})
}

// Generate produces the complete mod for the bounding box under
// outputPath and returns a human-readable success message. It runs until
// it settles; there is no cancellation beyond the passed context, which
// only the process owns.
func (e *Engine) Generate(ctx context.Context, bbox geo.BoundingBox, outputPath string) (string, error) {
	e.emit("Initializing", 0)

	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	e.emit("Downloading terrain data from AWS", 10)
	grid, err := e.elevation.DownloadHeightmap(ctx, bbox, e.zoom, func(current, total int) {
		// Tile downloads span the 10-30 band of the overall run.
		e.emit("Downloading terrain data from AWS", 10+20*float64(current)/float64(total))
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch AWS terrain: %w", err)
	}

	e.emit("Fetching OpenStreetMap data", 30)
	elements, err := e.features.FetchElements(ctx, bbox)
	if err != nil {
		return "", fmt.Errorf("failed to fetch OSM data: %w", err)
	}
	log.Printf("[mapgen] fetched %d OSM elements for %s", len(elements), bbox.String())

	e.emit("Processing terrain heightmap", 50)

	e.emit("Converting objects to BeamNG format", 70)
	objects, network := beamng.Convert(elements, bbox)
	log.Printf("[mapgen] converted %d objects, %d road nodes, %d segments",
		len(objects), len(network.Nodes), len(network.Segments))

	e.emit("Generating BeamNG map files", 85)
	if _, err := beamng.WriteMod(outputPath, objects, network, func(path string) error {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return heightmap.Encode(f, grid)
	}); err != nil {
		return "", err
	}

	e.emit("Complete", 100)
	return fmt.Sprintf("Map generated successfully at: %s", outputPath), nil
}
