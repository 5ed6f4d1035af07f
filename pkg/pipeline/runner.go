// Package pipeline drives the reconciliation cycle and publishes its results.
//
// A Runner owns the working set of tiles. Each Tick loads and frees layers
// for the current viewport and zoom, runs the stitcher and then the colorer
// to completion, and publishes a deep copy of the result as an immutable
// Snapshot through an atomic pointer. The render path reads the latest
// snapshot without locking and places labels on it with Paint; it never sees
// a half-stitched or half-colored state.
//
// Example:
//
//	r := pipeline.New(loader, pipeline.Options{Store: store, Logger: logger})
//	go r.Run(ctx, time.Second, func() (sheetmap.Rect, int) {
//	    return currentViewport(), currentZoom()
//	})
//
//	// render loop
//	if snap := r.Snapshot(); snap != nil {
//	    labels := r.Paint(snap, view)
//	    draw(snap, labels)
//	}
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/beetlebugorg/sheetmap/pkg/colorcache"
	"github.com/beetlebugorg/sheetmap/pkg/colorer"
	"github.com/beetlebugorg/sheetmap/pkg/label"
	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
	"github.com/beetlebugorg/sheetmap/pkg/stitch"
)

// Options configures a Runner. Zero values select defaults.
type Options struct {
	Thresholds Thresholds
	Store      colorcache.Store
	Labels     *label.Options
	Measurer   label.Measurer
	Logger     *log.Logger
}

// Runner executes reconciliation cycles.
type Runner struct {
	loader     sheetmap.Loader
	thresholds Thresholds
	logger     *log.Logger

	// mu guards the working state. Ticks are serialized.
	mu       sync.Mutex
	catalog  *sheetmap.Catalog
	tiles    *sheetmap.TileSet
	stitcher *stitch.Stitcher
	colorer  *colorer.Colorer
	seq      uint64

	current atomic.Pointer[Snapshot]

	// paintMu serializes the render path's use of the placer.
	paintMu sync.Mutex
	placer  *label.Placer
}

// New creates a runner reading sheets from loader.
func New(loader sheetmap.Loader, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	thresholds := opts.Thresholds
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}
	labelOpts := label.DefaultOptions()
	if opts.Labels != nil {
		labelOpts = *opts.Labels
	}
	return &Runner{
		loader:     loader,
		thresholds: thresholds,
		logger:     logger,
		tiles:      sheetmap.NewTileSet(),
		stitcher:   stitch.New(logger),
		colorer:    colorer.New(opts.Store, logger),
		placer:     label.NewPlacer(labelOpts, opts.Measurer, logger),
	}
}

// Snapshot returns the most recently published snapshot, or nil before the
// first successful tick.
func (r *Runner) Snapshot() *Snapshot {
	return r.current.Load()
}

// Tick runs one full cycle for viewport at zoom and publishes the result.
//
// Data problems (a layer that fails to load, a polygon whose rings do not
// close) are logged and skipped; the layer is retried on the next tick. An
// error is returned only when the sheet catalog cannot be read.
func (r *Runner) Tick(ctx context.Context, viewport sheetmap.Rect, zoom int) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cycle := uuid.NewString()
	logger := r.logger.With("cycle", cycle)
	start := time.Now()

	if err := r.ensureCatalog(ctx); err != nil {
		return nil, err
	}

	load := r.sync(ctx, logger, viewport, zoom)
	st := r.stitcher.Run(r.tiles, viewport)
	co := r.colorer.Run(ctx, r.tiles, viewport)

	r.seq++
	snap := &Snapshot{
		Seq:      r.seq,
		Cycle:    cycle,
		Created:  time.Now(),
		Viewport: viewport,
		Zoom:     zoom,
		Tiles:    r.tiles.Clone(),
		Load:     load,
		Stitch:   st,
		Color:    co,
	}
	r.current.Store(snap)

	logger.Debug("published snapshot",
		"seq", snap.Seq, "tiles", snap.Tiles.Len(), "zoom", zoom,
		"loaded", load.Loaded, "freed", load.Freed, "failed", load.Failed,
		"groups", st.Groups, "merged", st.Merged, "colored", co.Assigned+co.Primed,
		"elapsed", time.Since(start))
	return snap, nil
}

// ensureCatalog reads the sheet list once. Must be called with r.mu locked.
func (r *Runner) ensureCatalog(ctx context.Context) error {
	if r.catalog != nil {
		return nil
	}
	sheets, err := r.loader.Sheets(ctx)
	if err != nil {
		return fmt.Errorf("read sheet catalog: %w", err)
	}
	r.catalog = sheetmap.NewCatalog(sheets)
	return nil
}

// Bounds returns the envelope of every sheet the loader offers.
func (r *Runner) Bounds(ctx context.Context) (sheetmap.Rect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureCatalog(ctx); err != nil {
		return sheetmap.EmptyRect(), err
	}
	return r.catalog.Bounds(), nil
}

// sync brings the working set in line with the viewport and zoom.
func (r *Runner) sync(ctx context.Context, logger *log.Logger, viewport sheetmap.Rect, zoom int) LoadStats {
	var stats LoadStats

	wanted := make(map[int]struct{})
	for _, info := range r.catalog.Intersecting(viewport) {
		wanted[info.ID] = struct{}{}

		t, err := r.tiles.Tile(info.ID)
		if err != nil {
			t = sheetmap.NewTile(info.ID, info.Sheet)
			r.tiles.Add(t)
		}
		for _, l := range sheetmap.Layers {
			want := r.thresholds.Wants(l, zoom)
			switch {
			case want && !t.HasLayer(l):
				r.loadLayer(ctx, logger, t, l, &stats)
			case !want && t.HasLayer(l):
				t.FreeLayer(l)
				stats.Freed++
			}
		}
	}

	for _, t := range r.tiles.Sorted() {
		if _, ok := wanted[t.ID]; !ok {
			t.FreeAll()
			r.tiles.Remove(t.ID)
			stats.Evicted++
		}
	}
	return stats
}

func (r *Runner) loadLayer(ctx context.Context, logger *log.Logger, t *sheetmap.Tile, l sheetmap.Layer, stats *LoadStats) {
	data, err := r.loader.LoadLayer(ctx, t.ID, l)
	if err != nil {
		logger.Warn("layer load failed", "tile", t.ID, "layer", l, "err", err)
		stats.Failed++
		return
	}
	if err := t.LoadLayer(l, data); err != nil {
		var broken *sheetmap.ErrBrokenRing
		if errors.As(err, &broken) {
			n := countJoined(err)
			stats.Broken += n
			logger.Warn("polygons with broken rings", "tile", t.ID, "layer", l, "count", n, "first", broken)
		} else {
			logger.Warn("layer index failed", "tile", t.ID, "layer", l, "err", err)
		}
	}
	stats.Loaded++
}

// countJoined returns the number of errors wrapped by an errors.Join result.
func countJoined(err error) int {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	return 1
}

// Run ticks immediately and then every interval until ctx ends. source
// reports the viewport and zoom to use for each tick. A tick in progress is
// never interrupted; cancellation takes effect between ticks.
func (r *Runner) Run(ctx context.Context, interval time.Duration, source func() (sheetmap.Rect, int)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		viewport, zoom := source()
		if _, err := r.Tick(context.WithoutCancel(ctx), viewport, zoom); err != nil {
			r.logger.Error("tick failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Paint places labels on snap for view. Label fields of snap's features are
// overwritten; a snapshot should be painted by one render path at a time.
func (r *Runner) Paint(snap *Snapshot, view label.View) *label.Result {
	if snap == nil {
		return &label.Result{}
	}
	r.paintMu.Lock()
	defer r.paintMu.Unlock()
	return r.placer.Place(snap.Tiles, view)
}
