package osm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cherepokivan/BeamNG-Map-Generator/internal/geo"
)

func TestBuildQuery(t *testing.T) {
	q := BuildQuery(geo.BoundingBox{MinLat: 10, MinLng: 5, MaxLat: 30, MaxLng: 20})

	for _, want := range []string{
		"[out:json][timeout:180]",
		`way["building"](10.000000,5.000000,30.000000,20.000000);`,
		`way["highway"]`,
		`node["natural"="tree"]`,
		`way["natural"="tree_row"]`,
		`node["highway"="bus_stop"]`,
		`way["amenity"]`,
		"out skel qt;",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q:\n%s", want, q)
		}
	}
}

func TestFetchElements(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `way["building"]`) {
			t.Error("request body is not the overpass query")
		}
		w.Write([]byte(`{
			"elements": [
				{"id": 1, "type": "node", "lat": 52.5, "lon": 13.4, "tags": {"natural": "tree"}},
				{"id": 2, "type": "way", "tags": {"highway": "residential", "lanes": "2"}, "nodes": [1, 3]},
				{"id": 3, "type": "node", "lat": 52.6, "lon": 13.5}
			]
		}`))
	}))
	defer server.Close()

	c := NewClient()
	c.endpoint = server.URL

	elements, err := c.FetchElements(context.Background(), geo.BoundingBox{MinLat: 52, MinLng: 13, MaxLat: 53, MaxLng: 14})
	if err != nil {
		t.Fatal(err)
	}
	if len(elements) != 3 {
		t.Fatalf("len(elements) = %d, want 3", len(elements))
	}

	tree := elements[0]
	if tree.Type != "node" || tree.Lat == nil || *tree.Lat != 52.5 || tree.Tags["natural"] != "tree" {
		t.Errorf("unexpected node element: %+v", tree)
	}

	way := elements[1]
	if way.Type != "way" || len(way.Nodes) != 2 || way.Tags["highway"] != "residential" {
		t.Errorf("unexpected way element: %+v", way)
	}

	bare := elements[2]
	if bare.Tags != nil && len(bare.Tags) != 0 {
		t.Errorf("skeleton node should have no tags: %+v", bare)
	}
}

func TestFetchElementsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too busy", http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient()
	c.endpoint = server.URL

	if _, err := c.FetchElements(context.Background(), geo.BoundingBox{}); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
