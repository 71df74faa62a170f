package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs a fixed number of workers over a TileScheduler. Workers are
// spawned per run and joined before it returns; the scheduler's counter is
// the only state they share.
type WorkerPool struct {
	numWorkers int
	logger     *slog.Logger
}

// NewWorkerPool creates a pool with numWorkers workers (0 = use CPU count),
// never more than numTiles
func NewWorkerPool(numWorkers, numTiles int, logger *slog.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = max(1, min(numWorkers, numTiles))

	return &WorkerPool{
		numWorkers: numWorkers,
		logger:     logger,
	}
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// TileFunc renders one tile on behalf of a worker
type TileFunc func(workerID int, tile Tile) error

// Run drains the scheduler. Each worker loops: claim a tile, render it fully,
// repeat. The first failure (an error or a panic) stops further claims and is
// returned; so is a cancelled context, checked between claims.
func (wp *WorkerPool) Run(ctx context.Context, scheduler *TileScheduler, render TileFunc) error {
	var (
		wg       sync.WaitGroup
		stop     atomic.Bool
		errOnce  sync.Once
		firstErr error
	)

	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
		stop.Store(true)
	}

	for i := 0; i < wp.numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for !stop.Load() {
				if err := ctx.Err(); err != nil {
					fail(err)
					return
				}

				tile, ok := scheduler.Claim()
				if !ok {
					return
				}

				if err := wp.renderTile(workerID, tile, render); err != nil {
					fail(err)
					return
				}
			}
		}(i)
	}

	wg.Wait()
	return firstErr
}

// renderTile turns a panic in the tile function into ErrWorkerFailed
func (wp *WorkerPool) renderTile(workerID int, tile Tile, render TileFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("worker aborted", "worker", workerID, "tile", tile.ID, "panic", r)
			err = fmt.Errorf("%w: worker %d, tile %d: %v", ErrWorkerFailed, workerID, tile.ID, r)
		}
	}()

	if err := render(workerID, tile); err != nil {
		return fmt.Errorf("%w: worker %d, tile %d: %w", ErrWorkerFailed, workerID, tile.ID, err)
	}
	return nil
}
