// Package beamng converts OSM features into BeamNG.drive level content
// and writes the packaged mod.
package beamng

import (
	"fmt"
	"strconv"

	"github.com/cherepokivan/BeamNG-Map-Generator/internal/geo"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/osm"
)

// LevelSize is the edge length of the generated level in meters
const LevelSize = 2048

const laneWidth = 3.5

// Object is a static level object placed from an OSM feature
type Object struct {
	Type       string            `json:"type"`
	Position   [3]float32        `json:"position"`
	Properties map[string]string `json:"properties"`
}

// RoadNode is one vertex of the generated road network
type RoadNode struct {
	ID       string     `json:"id"`
	Position [3]float32 `json:"position"`
	Width    float32    `json:"width"`
	RoadType string     `json:"roadType"`
}

// RoadSegment connects two road nodes
type RoadSegment struct {
	ID        string  `json:"id"`
	StartNode string  `json:"startNode"`
	EndNode   string  `json:"endNode"`
	Width     float32 `json:"width"`
	Lanes     int     `json:"lanes"`
	RoadType  string  `json:"roadType"`
	OneWay    bool    `json:"oneWay"`
}

// RoadNetwork is the full set of generated roads
type RoadNetwork struct {
	Nodes    []RoadNode    `json:"nodes"`
	Segments []RoadSegment `json:"segments"`
}

// Convert maps OSM elements into level objects and a road network. Node
// coordinates are projected onto the level plane; ways reference nodes by
// id, so untagged skeleton nodes feed the position lookup.
func Convert(elements []osm.Element, bbox geo.BoundingBox) ([]Object, RoadNetwork) {
	nodePositions := make(map[int64]geo.Point)
	for _, el := range elements {
		if el.Type == "node" && el.Lat != nil && el.Lon != nil {
			nodePositions[el.ID] = geo.Point{Lat: *el.Lat, Lng: *el.Lon}
		}
	}

	var objects []Object
	var network RoadNetwork

	for _, el := range elements {
		tags := el.Tags
		if len(tags) == 0 {
			continue
		}

		if _, ok := tags["building"]; ok && len(el.Nodes) > 0 {
			if p, ok := nodePositions[el.Nodes[0]]; ok {
				objects = append(objects, Object{
					Type:       "building",
					Position:   project(p, bbox),
					Properties: tags,
				})
			}
		}

		if tags["natural"] == "tree" && el.Lat != nil && el.Lon != nil {
			objects = append(objects, Object{
				Type:       "tree",
				Position:   project(geo.Point{Lat: *el.Lat, Lng: *el.Lon}, bbox),
				Properties: tags,
			})
		}

		if tags["highway"] == "bus_stop" && el.Lat != nil && el.Lon != nil {
			objects = append(objects, Object{
				Type:       "bus_stop",
				Position:   project(geo.Point{Lat: *el.Lat, Lng: *el.Lon}, bbox),
				Properties: tags,
			})
		}

		if highway, ok := tags["highway"]; ok && len(el.Nodes) > 0 {
			lanes := parseLanes(tags["lanes"])
			width := RoadWidth(highway, lanes)
			oneWay := tags["oneway"] == "yes"

			havePrev := false
			var prevNodeID int64
			for _, nodeID := range el.Nodes {
				p, ok := nodePositions[nodeID]
				if !ok {
					continue
				}

				network.Nodes = append(network.Nodes, RoadNode{
					ID:       fmt.Sprintf("node_%d_%d", el.ID, nodeID),
					Position: project(p, bbox),
					Width:    width,
					RoadType: highway,
				})

				if havePrev {
					network.Segments = append(network.Segments, RoadSegment{
						ID:        fmt.Sprintf("segment_%d_%d_%d", el.ID, prevNodeID, nodeID),
						StartNode: fmt.Sprintf("node_%d_%d", el.ID, prevNodeID),
						EndNode:   fmt.Sprintf("node_%d_%d", el.ID, nodeID),
						Width:     width,
						Lanes:     lanes,
						RoadType:  highway,
						OneWay:    oneWay,
					})
				}
				prevNodeID = nodeID
				havePrev = true
			}
		}
	}

	return objects, network
}

// parseLanes reads the OSM lanes tag, defaulting to 2
func parseLanes(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 2
	}
	return n
}

// RoadWidth derives a road width in meters from the highway class and
// lane count
func RoadWidth(highwayType string, lanes int) float32 {
	l := float32(lanes)
	switch highwayType {
	case "motorway", "trunk":
		return l*laneWidth + 2.0
	case "primary":
		return l*laneWidth + 1.5
	case "secondary":
		return l*laneWidth + 1.0
	case "tertiary":
		return l*laneWidth + 0.5
	case "residential", "service":
		return l * 3.0
	case "path", "footway", "cycleway":
		return 2.0
	default:
		return l * laneWidth
	}
}

// RoadMaterial picks the decal road material for a highway class
func RoadMaterial(roadType string) string {
	switch roadType {
	case "motorway", "trunk":
		return "road_asphalt_highway"
	case "primary", "secondary":
		return "road_asphalt"
	case "tertiary", "residential":
		return "road_asphalt_residential"
	case "service":
		return "road_concrete"
	case "path", "footway", "cycleway":
		return "road_gravel"
	default:
		return "road_asphalt"
	}
}

// ObjectClass maps an object type to its engine class
func ObjectClass(objType string) string {
	switch objType {
	case "tree":
		return "Forest"
	default:
		return "TSStatic"
	}
}

// project maps a geographic point onto the level plane, scaling the
// bounding box to LevelSize on both axes. Elevation is left at zero; the
// terrain carries the height.
func project(p geo.Point, b geo.BoundingBox) [3]float32 {
	x := float32((p.Lng - b.MinLng) / (b.MaxLng - b.MinLng) * LevelSize)
	z := float32((p.Lat - b.MinLat) / (b.MaxLat - b.MinLat) * LevelSize)
	return [3]float32{x, 0, z}
}
