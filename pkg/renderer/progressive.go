package renderer

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
	"github.com/df07/go-tiled-pathtracer/pkg/integrator"
)

// Renderer manages progressive rendering with multiple passes
type Renderer struct {
	scene       core.Scene
	camera      *Camera
	config      Config
	integrator  integrator.Integrator
	tiles       []Tile
	acc         *Accumulator
	workerPool  *WorkerPool
	currentPass int
	logger      *slog.Logger
}

// New creates a renderer. The config is validated and the integrator variant
// is selected here, before any work starts. A nil logger discards output.
func New(scene core.Scene, camera *Camera, config Config, logger *slog.Logger) (*Renderer, error) {
	if scene == nil || camera == nil {
		return nil, fmt.Errorf("%w: scene and camera are required", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	integratorInst, err := integrator.New(config.Variant, config.Integrator)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	tiles, err := NewTileGrid(config.Width, config.Height, config.TileSize)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = discardLogger()
	}

	return &Renderer{
		scene:      scene,
		camera:     camera,
		config:     config,
		integrator: integratorInst,
		tiles:      tiles,
		acc:        NewAccumulator(config.Width, config.Height),
		workerPool: NewWorkerPool(config.NumWorkers, len(tiles), logger),
		logger:     logger,
	}, nil
}

// discardLogger returns a logger that drops every record
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Accumulator returns the buffer the renderer writes into
func (r *Renderer) Accumulator() *Accumulator {
	return r.acc
}

// Resume continues accumulation into a previously saved buffer. Pixels that
// already hold enough samples for a pass are left untouched.
func (r *Renderer) Resume(acc *Accumulator) error {
	if acc == nil || acc.Width() != r.config.Width || acc.Height() != r.config.Height {
		return fmt.Errorf("%w: checkpoint does not match %dx%d image", ErrInvalidConfig, r.config.Width, r.config.Height)
	}
	r.acc = acc
	return nil
}

// RenderPass renders a single progressive pass using parallel processing.
// Every pixel is topped up to the pass's sample target.
func (r *Renderer) RenderPass(ctx context.Context, passNumber int) (RenderStats, error) {
	return r.renderPass(ctx, passNumber, nil)
}

func (r *Renderer) renderPass(ctx context.Context, passNumber int, tileCallback func(TileCompletionResult)) (RenderStats, error) {
	r.currentPass = passNumber
	targetSamples := r.config.samplesForPass(passNumber)
	numWorkers := r.workerPool.GetNumWorkers()

	r.logger.Info("starting pass",
		"pass", passNumber, "target_samples", targetSamples,
		"tiles", len(r.tiles), "workers", numWorkers)

	startTime := time.Now()
	tileRenderer := NewTileRenderer(r.scene, r.camera, r.integrator, r.acc)
	scheduler := NewTileScheduler(r.tiles)

	err := r.workerPool.Run(ctx, scheduler, func(workerID int, tile Tile) error {
		sampler := core.NewStreamSampler(r.config.Seed, tileRenderer.streamID(tile))
		taken := tileRenderer.RenderTile(tile, targetSamples, sampler)

		r.logger.Debug("tile complete", "pass", passNumber, "tile", tile.ID, "worker", workerID, "samples", taken)
		if tileCallback != nil {
			// The tile is still owned by this worker, so reading it is race free
			tileCallback(TileCompletionResult{
				TileX:       tile.Bounds.Min.X / r.config.TileSize,
				TileY:       tile.Bounds.Min.Y / r.config.TileSize,
				TileImage:   r.acc.ToneMappedRegion(tile.Bounds),
				PassNumber:  passNumber,
				TotalPasses: r.config.Passes,
				Samples:     taken,
				TotalTiles:  len(r.tiles),
			})
		}
		return nil
	})
	if err != nil {
		r.logger.Error("pass failed", "pass", passNumber, "error", err)
		return RenderStats{}, fmt.Errorf("pass %d: %w", passNumber, err)
	}

	stats := r.acc.Stats()
	stats.MaxSamples = targetSamples
	stats.Tiles = len(r.tiles)
	stats.Workers = numWorkers
	stats.Elapsed = time.Since(startTime)

	r.logger.Info("pass complete",
		"pass", passNumber, "elapsed", stats.Elapsed,
		"average_samples", stats.AverageSamples, "total_samples", stats.TotalSamples)

	return stats, nil
}

// Render runs every configured pass and returns the filled accumulator
func (r *Renderer) Render(ctx context.Context) (*Accumulator, error) {
	for pass := 1; pass <= r.config.Passes; pass++ {
		if _, err := r.RenderPass(ctx, pass); err != nil {
			return nil, err
		}
	}
	return r.acc, nil
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      RenderStats
	IsLast     bool
}

// TileCompletionResult contains information about a completed tile
type TileCompletionResult struct {
	TileX       int         // Tile coordinates (not pixel coordinates)
	TileY       int
	TileImage   *image.RGBA // Tone mapped tile, in image coordinates
	PassNumber  int         // Which pass this tile was rendered in
	TotalPasses int         // Total number of passes planned
	Samples     int         // Samples taken for the tile in this pass
	TotalTiles  int         // Total number of tiles in the image
}

// RenderOptions configures progressive rendering behavior
type RenderOptions struct {
	TileUpdates bool // Whether to generate tile completion events
}

// RenderProgressive renders with channel-based communication.
// Returns channels for events. The caller should read from these channels in separate goroutines.
// If options.TileUpdates is false, the tile channel is closed immediately.
func (r *Renderer) RenderProgressive(ctx context.Context, options RenderOptions) (<-chan PassResult, <-chan TileCompletionResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	tileChan := make(chan TileCompletionResult, 100)
	errChan := make(chan error, 1)

	if !options.TileUpdates {
		close(tileChan)
	}

	go func() {
		defer close(passChan)
		if options.TileUpdates {
			defer close(tileChan)
		}
		defer close(errChan)

		r.logger.Info("starting progressive render", "passes", r.config.Passes)

		var tileCallback func(TileCompletionResult)
		if options.TileUpdates {
			tileCallback = func(result TileCompletionResult) {
				select {
				case tileChan <- result:
				default:
					// Channel full; tile events are advisory
				}
			}
		}

		for pass := 1; pass <= r.config.Passes; pass++ {
			stats, err := r.renderPass(ctx, pass, tileCallback)
			if err != nil {
				errChan <- err
				return
			}

			result := PassResult{
				PassNumber: pass,
				Image:      r.acc.ToneMapped(),
				Stats:      stats,
				IsLast:     pass == r.config.Passes,
			}

			select {
			case passChan <- result:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return passChan, tileChan, errChan
}

// RenderImage renders a complete image in one call and returns the
// accumulated linear radiance. Tone map it with Accumulator.ToneMapped.
func RenderImage(ctx context.Context, scene core.Scene, camera *Camera, config Config, logger *slog.Logger) (*Accumulator, error) {
	r, err := New(scene, camera, config, logger)
	if err != nil {
		return nil, err
	}
	return r.Render(ctx)
}
