package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/beetlebugorg/sheetmap/internal/config"
	"github.com/beetlebugorg/sheetmap/pkg/colorcache"
	"github.com/beetlebugorg/sheetmap/pkg/label"
	"github.com/beetlebugorg/sheetmap/pkg/loader"
	"github.com/beetlebugorg/sheetmap/pkg/pipeline"
	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

// viewOpts holds the flags shared by commands that run the pipeline.
type viewOpts struct {
	bbox   string
	zoom   int
	width  int
	height int
}

const (
	defaultZoom   = 16
	defaultWidth  = 1024
	defaultHeight = 768
)

// openStore opens the configured color store. A store that cannot be
// reached is replaced by an in-memory one so the map still renders.
func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) colorcache.Store {
	store, err := colorcache.Open(ctx, cfg.StoreConfig())
	if err != nil {
		logger.Warn("color store unavailable, colors will not persist", "kind", cfg.Store.Kind, "err", err)
		return colorcache.NewMemoryStore()
	}
	return store
}

// newRunner wires a pipeline for cfg.
func newRunner(cfg *config.Config, store colorcache.Store, logger *log.Logger) *pipeline.Runner {
	labels := cfg.LabelOptions()

	var m label.Measurer
	if fm, err := label.NewFontMeasurer(); err != nil {
		logger.Warn("font unavailable, using fixed metrics", "err", err)
	} else {
		m = fm
	}

	return pipeline.New(loader.NewDirLoader(cfg.Data.Dir, cfg.Data.CacheBytes), pipeline.Options{
		Thresholds: cfg.Thresholds(),
		Store:      store,
		Labels:     &labels,
		Measurer:   m,
		Logger:     logger,
	})
}

// resolveViewport returns the viewport named by the --bbox flag, or the
// envelope of every sheet when the flag is empty.
func resolveViewport(ctx context.Context, r *pipeline.Runner, bbox string) (sheetmap.Rect, error) {
	if bbox != "" {
		return parseBBox(bbox)
	}
	b, err := r.Bounds(ctx)
	if err != nil {
		return sheetmap.Rect{}, err
	}
	if b.IsEmpty() {
		return sheetmap.Rect{}, fmt.Errorf("no sheets found")
	}
	return b, nil
}

// parseBBox parses "minx,miny,maxx,maxy".
func parseBBox(s string) (sheetmap.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return sheetmap.Rect{}, fmt.Errorf("bbox %q: want minx,miny,maxx,maxy", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return sheetmap.Rect{}, fmt.Errorf("bbox %q: %w", s, err)
		}
		v[i] = f
	}
	r := sheetmap.Rect{MinX: v[0], MinY: v[1], MaxX: v[2], MaxY: v[3]}
	if r.Width() <= 0 || r.Height() <= 0 {
		return sheetmap.Rect{}, fmt.Errorf("bbox %q: empty rectangle", s)
	}
	return r, nil
}
