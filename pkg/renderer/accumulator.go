package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// Accumulator is the per-pixel running mean of a render, stored row-major.
//
// It has no locks. During a render every pixel is written only by the worker
// that currently owns its tile, and tiles never overlap.
type Accumulator struct {
	width  int
	height int
	pixels []Pixel
}

// NewAccumulator creates an empty accumulator
func NewAccumulator(width, height int) *Accumulator {
	return &Accumulator{
		width:  width,
		height: height,
		pixels: make([]Pixel, width*height),
	}
}

// Width returns the image width
func (a *Accumulator) Width() int { return a.width }

// Height returns the image height
func (a *Accumulator) Height() int { return a.height }

// Bounds returns the image rectangle
func (a *Accumulator) Bounds() image.Rectangle {
	return image.Rect(0, 0, a.width, a.height)
}

// At returns a pointer to the pixel at (x, y)
func (a *Accumulator) At(x, y int) *Pixel {
	return &a.pixels[y*a.width+x]
}

// AddSample folds one radiance sample into pixel (x, y)
func (a *Accumulator) AddSample(x, y int, color core.Vec3) {
	a.At(x, y).AddSample(color)
}

// Mean returns the current estimate of pixel (x, y)
func (a *Accumulator) Mean(x, y int) core.Vec3 {
	return a.At(x, y).Mean
}

// Count returns the number of samples taken for pixel (x, y)
func (a *Accumulator) Count(x, y int) uint32 {
	return a.At(x, y).N
}

// ToneMapped converts the accumulated linear radiance to 8-bit display values
// with the ACES filmic curve. Pixels are row-major with opaque alpha.
func (a *Accumulator) ToneMapped() *image.RGBA {
	return a.ToneMappedRegion(a.Bounds())
}

// ToneMappedRegion tone maps the part of the image inside r. The result keeps
// image coordinates, so its bounds equal r clipped to the image.
func (a *Accumulator) ToneMappedRegion(r image.Rectangle) *image.RGBA {
	r = r.Intersect(a.Bounds())
	img := image.NewRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, toRGBA(ACESFilm(a.Mean(x, y))))
		}
	}
	return img
}

// Stats calculates sample statistics over all pixels
func (a *Accumulator) Stats() RenderStats {
	stats := RenderStats{
		TotalPixels: len(a.pixels),
		MinSamples:  math.MaxInt,
	}
	for i := range a.pixels {
		n := int(a.pixels[i].N)
		stats.TotalSamples += n
		stats.MinSamples = min(stats.MinSamples, n)
		stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, n)
	}
	if stats.TotalPixels == 0 {
		stats.MinSamples = 0
		return stats
	}
	stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	return stats
}

// toRGBA quantizes a display-range color
func toRGBA(c core.Vec3) color.RGBA {
	return color.RGBA{
		R: Quantize(c.X),
		G: Quantize(c.Y),
		B: Quantize(c.Z),
		A: 255,
	}
}
