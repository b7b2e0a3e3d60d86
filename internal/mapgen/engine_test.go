package mapgen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/require"

	"github.com/cherepokivan/BeamNG-Map-Generator/internal/geo"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/osm"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/progress"
)

type fakeElevation struct {
	err error
}

func (f *fakeElevation) DownloadHeightmap(ctx context.Context, bbox geo.BoundingBox, zoom maptile.Zoom, onProgress func(current, total int)) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if onProgress != nil {
		onProgress(1, 2)
		onProgress(2, 2)
	}
	return [][]float32{{0, 10}, {20, 30}}, nil
}

type fakeFeatures struct {
	elements []osm.Element
	err      error
}

func (f *fakeFeatures) FetchElements(ctx context.Context, bbox geo.BoundingBox) ([]osm.Element, error) {
	return f.elements, f.err
}

var box = geo.BoundingBox{MinLat: 52.0, MinLng: 13.0, MaxLat: 52.1, MaxLng: 13.1}

func TestGenerate(t *testing.T) {
	bus := progress.NewBus()
	var stages []string
	var percents []float64
	dispose := bus.Subscribe(func(p progress.Progress) {
		stages = append(stages, p.Stage)
		percents = append(percents, p.Progress)
	})
	defer dispose()

	lat := 52.05
	lng := 13.05
	engine := NewEngine(
		&fakeElevation{},
		&fakeFeatures{elements: []osm.Element{
			{ID: 1, Type: "node", Lat: &lat, Lon: &lng, Tags: map[string]string{"natural": "tree"}},
		}},
		bus,
	)

	out := t.TempDir()
	msg, err := engine.Generate(context.Background(), box, out)
	require.NoError(t, err)
	require.Equal(t, "Map generated successfully at: "+out, msg)

	// The staged sequence brackets the run, with tile progress inside
	// the download band.
	require.Equal(t, "Initializing", stages[0])
	require.Equal(t, float64(0), percents[0])
	require.Equal(t, "Complete", stages[len(stages)-1])
	require.Equal(t, float64(100), percents[len(percents)-1])
	require.Contains(t, stages, "Fetching OpenStreetMap data")
	require.Contains(t, stages, "Converting objects to BeamNG format")
	require.Contains(t, stages, "Generating BeamNG map files")
	for _, p := range percents {
		require.GreaterOrEqual(t, p, 0.0)
		require.LessOrEqual(t, p, 100.0)
	}

	// The packaged mod landed in the output directory.
	_, err = os.Stat(filepath.Join(out, "generated_map.zip"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "generated_map", "levels", "generated_map", "art", "terrains", "terrain.png"))
	require.NoError(t, err)
}

func TestGenerateTerrainFailure(t *testing.T) {
	bus := progress.NewBus()
	engine := NewEngine(&fakeElevation{err: errors.New("s3 unreachable")}, &fakeFeatures{}, bus)

	_, err := engine.Generate(context.Background(), box, t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to fetch AWS terrain")
	require.Contains(t, err.Error(), "s3 unreachable")
}

func TestGenerateOSMFailure(t *testing.T) {
	bus := progress.NewBus()
	engine := NewEngine(&fakeElevation{}, &fakeFeatures{err: errors.New("overpass timeout")}, bus)

	_, err := engine.Generate(context.Background(), box, t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to fetch OSM data")
}
