// Package terrain downloads elevation data from the AWS Terrain Tiles
// open dataset (terrarium encoding) and assembles it into a heightmap
// grid for the selected region.
package terrain

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/paulmach/orb/maptile"

	"github.com/cherepokivan/BeamNG-Map-Generator/internal/cache"
)

const (
	// Terrarium tiles from the AWS Open Data terrain registry
	DefaultBaseURL = "https://s3.amazonaws.com/elevation-tiles-prod/terrarium"

	UserAgent = "BeamNG-Terrain-Generator/1.0"

	// Pixels per tile edge
	TileSize = 256

	// Number of concurrent download workers
	DownloadWorkers = 10
)

// Client fetches terrarium elevation tiles over HTTP, consulting the tile
// cache first when one is configured.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tileCache  *cache.TileCache
	workers    int
}

// NewClient creates a terrain client. tileCache may be nil to disable
// caching.
func NewClient(tileCache *cache.TileCache) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		baseURL:   DefaultBaseURL,
		tileCache: tileCache,
		workers:   DownloadWorkers,
	}
}

// FetchTile downloads one terrarium tile as PNG bytes
func (c *Client) FetchTile(ctx context.Context, tile maptile.Tile) ([]byte, error) {
	key := c.cacheKey(tile)
	if c.tileCache != nil {
		if data, ok := c.tileCache.Get(key); ok {
			return data, nil
		}
	}

	tileURL := fmt.Sprintf("%s/%d/%d/%d.png", c.baseURL, tile.Z, tile.X, tile.Y)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile request failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tile: %w", err)
	}

	if c.tileCache != nil {
		if err := c.tileCache.Set(key, data); err != nil {
			// Cache write failures never fail the download.
			log.Printf("[terrain] cache write failed: %v", err)
		}
	}

	return data, nil
}

func (c *Client) cacheKey(tile maptile.Tile) string {
	return fmt.Sprintf("terrarium/%d/%d/%d", tile.Z, tile.X, tile.Y)
}
