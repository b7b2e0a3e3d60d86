package geo

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Point represents a geographic coordinate as delivered by the map widget
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox represents an axis-aligned geographic bounding box
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// NewBoundingBox builds a bounding box from two corner points in any order.
// Min/max normalization happens here, so MinLat <= MaxLat and MinLng <= MaxLng
// hold for every box produced by this constructor.
func NewBoundingBox(a, b Point) BoundingBox {
	bound := orb.MultiPoint{
		{a.Lng, a.Lat},
		{b.Lng, b.Lat},
	}.Bound()

	return BoundingBox{
		MinLat: bound.Min.Y(),
		MinLng: bound.Min.X(),
		MaxLat: bound.Max.Y(),
		MaxLng: bound.Max.X(),
	}
}

// Bound converts the box to an orb.Bound for tile math
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MaxLng, b.MaxLat},
	}
}

// Center returns the geographic center of the box
func (b BoundingBox) Center() Point {
	return Point{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lng: (b.MinLng + b.MaxLng) / 2,
	}
}

// String returns a human-readable summary used in logs and filenames
func (b BoundingBox) String() string {
	return fmt.Sprintf("%.4f_%.4f_%.4f_%.4f", b.MinLat, b.MinLng, b.MaxLat, b.MaxLng)
}
