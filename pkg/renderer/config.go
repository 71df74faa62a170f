package renderer

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-tiled-pathtracer/pkg/integrator"
)

var (
	// ErrInvalidConfig is returned before any rendering starts when the config is unusable
	ErrInvalidConfig = errors.New("invalid render config")
	// ErrTileSize is returned when the image is not an exact multiple of the tile size
	ErrTileSize = errors.New("image dimensions must be multiples of the tile size")
	// ErrWorkerFailed is returned when a worker aborts; the whole render is lost
	ErrWorkerFailed = errors.New("render worker failed")
)

// Config contains configuration for a render. It is immutable for the
// duration of the render.
type Config struct {
	Width           int                // Image width in pixels
	Height          int                // Image height in pixels
	TileSize        int                // Edge length of the square tiles
	SamplesPerPixel int                // Total samples per pixel after the last pass
	Passes          int                // Number of progressive passes
	InitialSamples  int                // Samples per pixel after the first of several passes
	NumWorkers      int                // Number of parallel workers (0 = use CPU count)
	Seed            uint64             // Run seed for the per-tile random streams
	Variant         integrator.Variant // Light transport algorithm
	Integrator      integrator.Config  // Integrator constants
}

// DefaultConfig returns the default render settings
func DefaultConfig() Config {
	return Config{
		Width:           640,
		Height:          480,
		TileSize:        16,
		SamplesPerPixel: 64,
		Passes:          1,
		InitialSamples:  1,
		NumWorkers:      0, // Auto-detect CPU count
		Seed:            1239,
		Variant:         integrator.RussianRoulette,
		Integrator:      integrator.DefaultConfig(),
	}
}

// Validate rejects configurations that cannot be rendered. Partial tiles are
// not supported, so both dimensions must divide evenly by the tile size.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: image size %dx%d must be positive", ErrInvalidConfig, c.Width, c.Height)
	case c.TileSize <= 0:
		return fmt.Errorf("%w: tile size %d must be positive", ErrInvalidConfig, c.TileSize)
	case c.Width%c.TileSize != 0 || c.Height%c.TileSize != 0:
		return fmt.Errorf("%w: %w: %dx%d with tile size %d", ErrInvalidConfig, ErrTileSize, c.Width, c.Height, c.TileSize)
	case c.SamplesPerPixel < 1:
		return fmt.Errorf("%w: samples per pixel %d must be at least 1", ErrInvalidConfig, c.SamplesPerPixel)
	case uint64(c.SamplesPerPixel) > math.MaxUint32:
		// Per-pixel counts are uint32
		return fmt.Errorf("%w: samples per pixel %d exceeds %d", ErrInvalidConfig, c.SamplesPerPixel, uint64(math.MaxUint32))
	case c.Passes < 1 || c.Passes > c.SamplesPerPixel:
		return fmt.Errorf("%w: passes %d must be in [1, %d]", ErrInvalidConfig, c.Passes, c.SamplesPerPixel)
	case c.Passes > 1 && (c.InitialSamples < 1 || c.InitialSamples > c.SamplesPerPixel):
		return fmt.Errorf("%w: initial samples %d must be in [1, %d]", ErrInvalidConfig, c.InitialSamples, c.SamplesPerPixel)
	case c.NumWorkers < 0:
		return fmt.Errorf("%w: worker count %d must not be negative", ErrInvalidConfig, c.NumWorkers)
	case !c.Variant.Valid():
		return fmt.Errorf("%w: %w: %v", ErrInvalidConfig, integrator.ErrUnknownVariant, c.Variant)
	}

	if err := c.Integrator.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// samplesForPass calculates the target total samples per pixel after a given pass
func (c Config) samplesForPass(passNumber int) int {
	// Special case: if only 1 pass, use all samples
	if c.Passes == 1 {
		return c.SamplesPerPixel
	}

	// First pass is a quick preview
	if passNumber == 1 {
		return c.InitialSamples
	}

	// For the final pass, use all remaining samples
	if passNumber >= c.Passes {
		return c.SamplesPerPixel
	}

	// Divide remaining samples evenly across remaining passes
	samplesPerPass := (c.SamplesPerPixel - c.InitialSamples) / (c.Passes - 1)
	return c.InitialSamples + (passNumber-1)*samplesPerPass
}
