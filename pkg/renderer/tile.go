package renderer

import (
	"fmt"
	"image"
	"sync/atomic"
)

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID     int             // Unique tile identifier, row-major over the grid
	Bounds image.Rectangle // Pixel bounds (x0,y0,x1,y1)
}

// NewTileGrid creates a grid of square tiles covering the entire image.
// Partial tiles are not supported.
func NewTileGrid(width, height, tileSize int) ([]Tile, error) {
	if width <= 0 || height <= 0 || tileSize <= 0 {
		return nil, fmt.Errorf("%w: image %dx%d, tile size %d", ErrInvalidConfig, width, height, tileSize)
	}
	if width%tileSize != 0 || height%tileSize != 0 {
		return nil, fmt.Errorf("%w: %w: %dx%d with tile size %d", ErrInvalidConfig, ErrTileSize, width, height, tileSize)
	}

	tilesX := width / tileSize
	tilesY := height / tileSize
	tiles := make([]Tile, 0, tilesX*tilesY)

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			tiles = append(tiles, Tile{
				ID:     len(tiles),
				Bounds: image.Rect(x0, y0, x0+tileSize, y0+tileSize),
			})
		}
	}

	return tiles, nil
}

// TileScheduler hands out tiles to workers through a single shared counter.
// Every tile is claimed at most once per scheduler.
type TileScheduler struct {
	tiles []Tile
	next  atomic.Int64
}

// NewTileScheduler creates a scheduler over tiles
func NewTileScheduler(tiles []Tile) *TileScheduler {
	return &TileScheduler{tiles: tiles}
}

// Claim returns the next unclaimed tile, or false once all tiles are taken
func (ts *TileScheduler) Claim() (Tile, bool) {
	index := ts.next.Add(1) - 1
	if index >= int64(len(ts.tiles)) {
		return Tile{}, false
	}
	return ts.tiles[index], true
}

// NumTiles returns the number of tiles managed by the scheduler
func (ts *TileScheduler) NumTiles() int {
	return len(ts.tiles)
}
