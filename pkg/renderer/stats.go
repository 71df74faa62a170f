package renderer

import (
	"time"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int           // Total number of pixels rendered
	TotalSamples   int           // Total number of samples taken
	AverageSamples float64       // Average samples per pixel
	MaxSamples     int           // Target samples per pixel
	MinSamples     int           // Minimum samples taken per pixel
	MaxSamplesUsed int           // Maximum samples actually used by any pixel
	Tiles          int           // Number of tiles rendered
	Workers        int           // Number of workers used
	Elapsed        time.Duration // Wall clock time
}

// Pixel is the running mean of the radiance samples of one pixel.
// After N samples Mean equals their arithmetic average; no history is kept.
type Pixel struct {
	Mean core.Vec3
	N    uint32
}

// AddSample folds a new sample into the running mean
func (p *Pixel) AddSample(color core.Vec3) {
	p.N++
	p.Mean = p.Mean.Add(color.Subtract(p.Mean).Multiply(1.0 / float64(p.N)))
}
