package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/sheetmap/pkg/pipeline"
	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

func newWatchCmd() *cobra.Command {
	opts := viewOpts{zoom: defaultZoom}
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run cycles periodically and log their statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), &opts, interval)
		},
	}

	cmd.Flags().StringVar(&opts.bbox, "bbox", "", "viewport as minx,miny,maxx,maxy (default: every sheet)")
	cmd.Flags().IntVar(&opts.zoom, "zoom", opts.zoom, "zoom level deciding which layers load")
	cmd.Flags().DurationVar(&interval, "interval", 0, "time between cycles (default from config)")
	return cmd
}

func runWatch(ctx context.Context, opts *viewOpts, interval time.Duration) error {
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)
	if interval <= 0 {
		interval = cfg.Interval.Duration
	}

	store := openStore(ctx, cfg, logger)
	defer store.Close()

	r := newRunner(cfg, store, logger)
	viewport, err := resolveViewport(ctx, r, opts.bbox)
	if err != nil {
		return err
	}

	logger.Info("watching", "data", cfg.Data.Dir, "zoom", opts.zoom, "interval", interval)

	var last *pipeline.Snapshot
	err = r.Run(ctx, interval, func() (sheetmap.Rect, int) {
		if snap := r.Snapshot(); snap != nil && snap.Newer(last) {
			logger.Info("cycle",
				"seq", snap.Seq, "cycle", snap.Cycle, "tiles", snap.Tiles.Len(),
				"loaded", snap.Load.Loaded, "failed", snap.Load.Failed,
				"merged", snap.Stitch.Merged, "colored", snap.Color.Assigned,
				"escaped", snap.Color.Escaped)
			last = snap
		}
		return viewport, opts.zoom
	})
	if errors.Is(err, context.Canceled) {
		logger.Info("stopped")
	}
	return err
}
