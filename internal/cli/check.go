package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/sheetmap/pkg/colorer"
	"github.com/beetlebugorg/sheetmap/pkg/loader"
	"github.com/beetlebugorg/sheetmap/pkg/stitch"
)

func newCheckCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load every sheet, reconcile the whole map and report coloring conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), workers)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel sheet loaders (default: number of CPUs)")
	return cmd
}

func runCheck(ctx context.Context, out io.Writer, workers int) error {
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)

	opts := loader.DefaultLoadOptions()
	if workers > 0 {
		opts.Workers = workers
	}
	opts.Logger = logger
	opts.Progress = func(loaded, total int) {
		logger.Debug("loading sheets", "loaded", loaded, "total", total)
	}

	ts, errs := loader.LoadAll(ctx, loader.NewDirLoader(cfg.Data.Dir, cfg.Data.CacheBytes), opts)
	if ts == nil {
		return errs[0]
	}

	store := openStore(ctx, cfg, logger)
	defer store.Close()

	extent := ts.CompositeBounds()
	st := stitch.New(logger).Run(ts, extent)
	co := colorer.New(store, logger).Run(ctx, ts, extent)
	violations := colorer.Violations(ts.Visible(extent))

	fmt.Fprintf(out, "sheets:      %d (%d failed)\n", ts.Len(), len(errs))
	fmt.Fprintf(out, "stitched:    %d groups, %d polygons, %d mismatched pairs\n", st.Groups, st.Merged, st.Mismatched)
	fmt.Fprintf(out, "colored:     %d town sections, %d from cache, %d escaped\n", co.Polygons, co.Primed, co.Escaped)
	fmt.Fprintf(out, "violations:  %d\n", len(violations))
	for _, v := range violations {
		fmt.Fprintf(out, "  %s and %s share color %d\n", v.A, v.B, v.Color)
	}

	if len(violations) > 0 {
		return fmt.Errorf("%d neighbor pairs share a color", len(violations))
	}
	return nil
}
