package terrain

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/cherepokivan/BeamNG-Map-Generator/internal/geo"
)

// DefaultZoom is the terrain tile zoom level. 10-14 are usable; 12 keeps
// detail reasonable without blowing up the tile count.
const DefaultZoom maptile.Zoom = 12

// TilesForBound enumerates the Web Mercator tiles covering a bounding box
// at the given zoom, row by row from the northwest corner.
func TilesForBound(b geo.BoundingBox, zoom maptile.Zoom) []maptile.Tile {
	// Tile Y grows southward, so the north edge has the smaller Y.
	nw := maptile.At(orb.Point{b.MinLng, b.MaxLat}, zoom)
	se := maptile.At(orb.Point{b.MaxLng, b.MinLat}, zoom)

	var tiles []maptile.Tile
	for y := nw.Y; y <= se.Y; y++ {
		for x := nw.X; x <= se.X; x++ {
			tiles = append(tiles, maptile.New(x, y, zoom))
		}
	}
	return tiles
}
