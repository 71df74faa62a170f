package renderer

import (
	"github.com/df07/go-tiled-pathtracer/pkg/core"
	"github.com/df07/go-tiled-pathtracer/pkg/integrator"
)

// TileRenderer handles the actual rendering of individual tiles using an integrator
type TileRenderer struct {
	scene      core.Scene
	camera     *Camera
	integrator integrator.Integrator
	acc        *Accumulator
}

// NewTileRenderer creates a new tile renderer writing into acc
func NewTileRenderer(scene core.Scene, camera *Camera, integratorInst integrator.Integrator, acc *Accumulator) *TileRenderer {
	return &TileRenderer{
		scene:      scene,
		camera:     camera,
		integrator: integratorInst,
		acc:        acc,
	}
}

// RenderTile tops every pixel of the tile up to targetSamples samples and
// returns the number of samples taken
func (tr *TileRenderer) RenderTile(tile Tile, targetSamples int, sampler core.Sampler) int {
	width, height := tr.acc.Width(), tr.acc.Height()
	target := uint32(targetSamples)
	taken := 0

	for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
		for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
			pixel := tr.acc.At(x, y)
			for pixel.N < target {
				ray := tr.camera.GetRay(x, y, width, height, sampler)
				pixel.AddSample(tr.integrator.Sample(ray, tr.scene, sampler))
				taken++
			}
		}
	}

	return taken
}

// streamID identifies the random stream for a tile. It includes the tile's
// sample count at the start of the pass so that resumed renders draw fresh
// samples instead of repeating earlier ones.
func (tr *TileRenderer) streamID(tile Tile) uint64 {
	start := tr.acc.Count(tile.Bounds.Min.X, tile.Bounds.Min.Y)
	return uint64(tile.ID)<<32 | uint64(start)
}
