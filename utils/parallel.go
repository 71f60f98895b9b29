// Package utils contains small shared helpers, notably the tiled parallel
// pixel dispatcher used by both compute stages.
package utils

import (
	"context"
	"image"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

// DefaultTileSize is the tile granularity used when none is given. Tiling is a
// scheduling choice only; results never depend on it.
const DefaultTileSize = 16

// TileForEachPixel divides size into tile×tile blocks and calls f for every
// [x, y] position, distributing blocks over ParallelFactor workers. Every
// pixel's computation must be independent. It returns only once all workers
// have finished, so all writes made by f are visible to the caller. If ctx is
// canceled, tiles not yet started are skipped and the context error is
// returned; tiles already running complete.
func TileForEachPixel(ctx context.Context, size image.Point, tile int, f func(x, y int)) error {
	if size.X <= 0 || size.Y <= 0 {
		return nil
	}
	if tile <= 0 {
		tile = DefaultTileSize
	}
	tilesX := (size.X + tile - 1) / tile
	tilesY := (size.Y + tile - 1) / tile
	total := int64(tilesX * tilesY)

	workers := ParallelFactor
	if int64(workers) > total {
		workers = int(total)
	}

	var (
		next  int64
		errMu sync.Mutex
		errs  error
		wait  sync.WaitGroup
	)
	wait.Add(workers)
	for i := 0; i < workers; i++ {
		goutils.PanicCapturingGo(func() {
			defer wait.Done()
			for {
				n := atomic.AddInt64(&next, 1) - 1
				if n >= total {
					return
				}
				if err := ctx.Err(); err != nil {
					errMu.Lock()
					errs = multierr.Combine(errs, err)
					errMu.Unlock()
					return
				}
				startX := (int(n) % tilesX) * tile
				startY := (int(n) / tilesX) * tile
				endX := startX + tile
				if endX > size.X {
					endX = size.X
				}
				endY := startY + tile
				if endY > size.Y {
					endY = size.Y
				}
				for y := startY; y < endY; y++ {
					for x := startX; x < endX; x++ {
						f(x, y)
					}
				}
			}
		})
	}
	wait.Wait()
	return errs
}
