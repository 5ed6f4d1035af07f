package loader

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

// LoadOptions controls bulk loading.
type LoadOptions struct {
	// Parallel loads sheets on several worker goroutines.
	Parallel bool

	// Workers is the number of loader goroutines. If 0, defaults to
	// runtime.NumCPU(). Only used when Parallel is true.
	Workers int

	// SkipErrors keeps loading when a sheet fails. Failed layers are left
	// unloaded and their errors collected. When false, the first error
	// stops loading.
	SkipErrors bool

	// Progress is called after each sheet with the number of sheets
	// processed so far and the total.
	Progress func(loaded, total int)

	// Logger receives a warning per failed sheet. Nil disables logging.
	Logger *log.Logger
}

// DefaultLoadOptions returns options that load in parallel and skip errors.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Parallel:   true,
		Workers:    runtime.NumCPU(),
		SkipErrors: true,
	}
}

// LoadAll loads every layer of every sheet the loader offers into a new
// tile set. Sheets are loaded independently, so a worker pool processes
// them concurrently; layers within a sheet load in sheetmap.Layers order.
//
// Polygons with broken rings do not count as failures. The returned errors
// describe sheets that could not be loaded completely.
func LoadAll(ctx context.Context, l sheetmap.Loader, opts LoadOptions) (*sheetmap.TileSet, []error) {
	sheets, err := l.Sheets(ctx)
	if err != nil {
		return nil, []error{fmt.Errorf("read sheet catalog: %w", err)}
	}
	ts := sheetmap.NewTileSet()
	if len(sheets) == 0 {
		return ts, nil
	}

	workers := 1
	if opts.Parallel {
		workers = opts.Workers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
	}
	if workers > len(sheets) {
		workers = len(sheets)
	}

	type loadResult struct {
		index int
		tile  *sheetmap.Tile
		err   error
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int, len(sheets))
	results := make(chan loadResult, len(sheets))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				tile, err := loadSheet(ctx, l, sheets[index])
				results <- loadResult{index: index, tile: tile, err: err}
			}
		}()
	}

	for i := range sheets {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	tiles := make([]*sheetmap.Tile, len(sheets))
	var errs []error
	loaded := 0
	stopped := false

	for result := range results {
		loaded++
		if opts.Progress != nil {
			opts.Progress(loaded, len(sheets))
		}
		tiles[result.index] = result.tile

		if result.err == nil || stopped {
			continue
		}
		err := fmt.Errorf("sheet %d: %w", sheets[result.index].ID, result.err)
		if opts.Logger != nil {
			opts.Logger.Warn("sheet load failed", "err", err)
		}
		errs = append(errs, err)
		if !opts.SkipErrors {
			// Drain remaining results; workers see the cancelled context.
			stopped = true
			cancel()
		}
	}

	if stopped {
		return nil, errs[:1]
	}
	for _, t := range tiles {
		if t != nil {
			ts.Add(t)
		}
	}
	return ts, errs
}

// loadSheet builds a tile with every layer. The tile is returned even when
// some layers failed.
func loadSheet(ctx context.Context, l sheetmap.Loader, info sheetmap.SheetInfo) (*sheetmap.Tile, error) {
	t := sheetmap.NewTile(info.ID, info.Sheet)
	var firstErr error
	for _, layer := range sheetmap.Layers {
		data, err := l.LoadLayer(ctx, info.ID, layer)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("layer %s: %w", layer, err)
			}
			continue
		}
		// Broken rings are data irregularities, not load failures.
		_ = t.LoadLayer(layer, data)
	}
	return t, firstErr
}
