package terrain

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png" // terrarium tiles are PNG
	"log"
	"sync"
	"sync/atomic"

	"github.com/paulmach/orb/maptile"

	"github.com/cherepokivan/BeamNG-Map-Generator/internal/geo"
)

type tileResult struct {
	tile maptile.Tile
	data []byte
	err  error
}

// DownloadHeightmap fetches every terrain tile covering the bounding box
// with a worker pool and stitches the decoded elevations into one grid,
// row 0 at the north edge. Tiles that fail to download or decode become
// flat zero-elevation patches rather than failing the whole run.
// onProgress, if non-nil, is called after each tile settles.
func (c *Client) DownloadHeightmap(ctx context.Context, bbox geo.BoundingBox, zoom maptile.Zoom, onProgress func(current, total int)) ([][]float32, error) {
	tiles := TilesForBound(bbox, zoom)
	total := len(tiles)
	if total == 0 {
		return nil, fmt.Errorf("no terrain tiles in bounding box")
	}

	log.Printf("[terrain] downloading %d tiles at zoom %d", total, zoom)

	tileChan := make(chan maptile.Tile, total)
	resultChan := make(chan tileResult, total)

	workerCount := c.workers
	if total < workerCount {
		workerCount = total
	}

	var done int64
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tile := range tileChan {
				data, err := c.FetchTile(ctx, tile)
				resultChan <- tileResult{tile: tile, data: data, err: err}
				if onProgress != nil {
					onProgress(int(atomic.AddInt64(&done, 1)), total)
				}
			}
		}()
	}

	go func() {
		for _, tile := range tiles {
			tileChan <- tile
		}
		close(tileChan)
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Grid bounds come from the enumeration: the first tile is the
	// northwest corner, the last the southeast.
	minX, minY := tiles[0].X, tiles[0].Y
	maxX, maxY := tiles[total-1].X, tiles[total-1].Y
	cols := int(maxX-minX) + 1
	rows := int(maxY-minY) + 1

	grid := make([][]float32, rows*TileSize)
	for i := range grid {
		grid[i] = make([]float32, cols*TileSize)
	}

	failed := 0
	for result := range resultChan {
		if result.err != nil {
			log.Printf("[terrain] tile %d/%d/%d failed: %v", result.tile.Z, result.tile.X, result.tile.Y, result.err)
			failed++
			continue
		}

		heights, err := DecodeTerrarium(result.data)
		if err != nil {
			log.Printf("[terrain] tile %d/%d/%d undecodable: %v", result.tile.Z, result.tile.X, result.tile.Y, err)
			failed++
			continue
		}

		xOff := int(result.tile.X-minX) * TileSize
		yOff := int(result.tile.Y-minY) * TileSize
		for y, row := range heights {
			copy(grid[yOff+y][xOff:xOff+len(row)], row)
		}
	}

	if failed == total {
		return nil, fmt.Errorf("no terrain data downloaded")
	}
	if failed > 0 {
		log.Printf("[terrain] %d/%d tiles missing, using zero elevation", failed, total)
	}

	return grid, nil
}

// DecodeTerrarium converts a terrarium-encoded tile image into elevations
// in meters: height = R*256 + G + B/256 - 32768.
func DecodeTerrarium(data []byte) ([][]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode terrain image: %w", err)
	}

	bounds := img.Bounds()
	heights := make([][]float32, bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := make([]float32, bounds.Dx())
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// RGBA returns 16-bit channels; terrarium uses 8-bit values.
			r8 := float32(r >> 8)
			g8 := float32(g >> 8)
			b8 := float32(b >> 8)
			row[x-bounds.Min.X] = r8*256 + g8 + b8/256 - 32768
		}
		heights[y-bounds.Min.Y] = row
	}

	return heights, nil
}
