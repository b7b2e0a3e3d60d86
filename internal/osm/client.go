// Package osm fetches map features for a bounding box from the Overpass
// API.
package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cherepokivan/BeamNG-Map-Generator/internal/geo"
)

const (
	DefaultEndpoint = "https://overpass-api.de/api/interpreter"

	UserAgent = "BeamNG-Terrain-Generator/1.0"
)

// Element is one OSM node or way as returned by Overpass
type Element struct {
	ID    int64             `json:"id"`
	Type  string            `json:"type"`
	Lat   *float64          `json:"lat,omitempty"`
	Lon   *float64          `json:"lon,omitempty"`
	Tags  map[string]string `json:"tags,omitempty"`
	Nodes []int64           `json:"nodes,omitempty"`
}

// Client talks to an Overpass endpoint
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// NewClient creates an Overpass client with system proxy support
func NewClient() *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	return &Client{
		httpClient: &http.Client{
			// Overpass itself gets 180s; leave headroom for transfer.
			Timeout:   200 * time.Second,
			Transport: transport,
		},
		endpoint: DefaultEndpoint,
	}
}

// BuildQuery assembles the Overpass QL query selecting the feature classes
// the level generator consumes: buildings, roads, trees, tree rows, bus
// stops, and amenities inside the box.
func BuildQuery(b geo.BoundingBox) string {
	bbox := fmt.Sprintf("%f,%f,%f,%f", b.MinLat, b.MinLng, b.MaxLat, b.MaxLng)

	var q strings.Builder
	q.WriteString("[out:json][timeout:180];\n(\n")
	for _, selector := range []string{
		`way["building"]`,
		`way["highway"]`,
		`node["natural"="tree"]`,
		`way["natural"="tree_row"]`,
		`node["highway"="bus_stop"]`,
		`way["amenity"]`,
	} {
		fmt.Fprintf(&q, "  %s(%s);\n", selector, bbox)
	}
	q.WriteString(");\nout body;\n>;\nout skel qt;")
	return q.String()
}

// FetchElements queries Overpass for all relevant features in the box
func (c *Client) FetchElements(ctx context.Context, b geo.BoundingBox) ([]Element, error) {
	query := BuildQuery(b)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query overpass: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass request failed with status: %d", resp.StatusCode)
	}

	var payload struct {
		Elements []Element `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode overpass response: %w", err)
	}

	return payload.Elements, nil
}
