// Package heightmap encodes elevation grids as grayscale PNG heightmaps
// in the form the game's terrain loader expects.
package heightmap

import (
	"fmt"
	"image"
	"image/png"
	"io"
)

// Range returns the minimum and maximum elevation in the grid
func Range(grid [][]float32) (min, max float32) {
	first := true
	for _, row := range grid {
		for _, h := range row {
			if first {
				min, max = h, h
				first = false
				continue
			}
			if h < min {
				min = h
			}
			if h > max {
				max = h
			}
		}
	}
	return min, max
}

// Encode normalizes the grid to the full 16-bit range and writes it as a
// grayscale PNG, row 0 at the top. A perfectly flat grid encodes as all
// zeros.
func Encode(w io.Writer, grid [][]float32) error {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return fmt.Errorf("empty heightmap grid")
	}

	height := len(grid)
	width := len(grid[0])

	min, max := Range(grid)
	span := max - min

	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y, row := range grid {
		if len(row) != width {
			return fmt.Errorf("ragged heightmap grid: row %d has %d columns, want %d", y, len(row), width)
		}
		for x, h := range row {
			var v uint16
			if span > 0 {
				v = uint16((h - min) / span * 65535)
			}
			i := img.PixOffset(x, y)
			img.Pix[i] = uint8(v >> 8)
			img.Pix[i+1] = uint8(v)
		}
	}

	return png.Encode(w, img)
}
