package cli

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/sheetmap/pkg/label"
	"github.com/beetlebugorg/sheetmap/pkg/pipeline"
	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

func newRenderCmd() *cobra.Command {
	opts := viewOpts{zoom: defaultZoom, width: defaultWidth, height: defaultHeight}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Run one cycle and print colors and label positions as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cmd.OutOrStdout(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.bbox, "bbox", "", "viewport as minx,miny,maxx,maxy (default: every sheet)")
	cmd.Flags().IntVar(&opts.zoom, "zoom", opts.zoom, "zoom level deciding which layers load")
	cmd.Flags().IntVar(&opts.width, "width", opts.width, "window width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", opts.height, "window height in pixels")
	return cmd
}

func runRender(ctx context.Context, out io.Writer, opts *viewOpts) error {
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)

	store := openStore(ctx, cfg, logger)
	defer store.Close()

	r := newRunner(cfg, store, logger)
	viewport, err := resolveViewport(ctx, r, opts.bbox)
	if err != nil {
		return err
	}

	start := time.Now()
	snap, err := r.Tick(ctx, viewport, opts.zoom)
	if err != nil {
		return err
	}
	view := label.ViewOf(viewport, opts.width, opts.height)
	labels := r.Paint(snap, view)

	logger.Info("rendered",
		"tiles", snap.Tiles.Len(), "labels", len(labels.Placements),
		"suppressed", labels.Suppressed, "elapsed", time.Since(start).Round(time.Millisecond))

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(newReport(snap, labels))
}

// report is the JSON document printed by render.
type report struct {
	Seq        uint64             `json:"seq"`
	Cycle      string             `json:"cycle"`
	Viewport   [4]float64         `json:"viewport"`
	Zoom       int                `json:"zoom"`
	Load       pipeline.LoadStats `json:"load"`
	Stitch     stitchReport       `json:"stitch"`
	Colors     []colorReport      `json:"colors"`
	Labels     []labelReport      `json:"labels"`
	Suppressed int                `json:"suppressed"`
}

type stitchReport struct {
	Groups     int `json:"groups"`
	Merged     int `json:"merged"`
	Duplicates int `json:"duplicates"`
	Mismatched int `json:"mismatched"`
}

type colorReport struct {
	Tile      int    `json:"tile"`
	ID        int64  `json:"id"`
	Attribute string `json:"attribute"`
	Color     int    `json:"color"`
}

type labelReport struct {
	Kind string     `json:"kind"`
	ID   int64      `json:"id"`
	Text string     `json:"text"`
	Rect [4]float64 `json:"rect"`
	Size float64    `json:"size"`
}

func newReport(snap *pipeline.Snapshot, labels *label.Result) report {
	v := snap.Viewport
	rep := report{
		Seq:      snap.Seq,
		Cycle:    snap.Cycle,
		Viewport: [4]float64{v.MinX, v.MinY, v.MaxX, v.MaxY},
		Zoom:     snap.Zoom,
		Load:     snap.Load,
		Stitch: stitchReport{
			Groups:     snap.Stitch.Groups,
			Merged:     snap.Stitch.Merged,
			Duplicates: snap.Stitch.Duplicates,
			Mismatched: snap.Stitch.Mismatched,
		},
		Suppressed: labels.Suppressed,
	}
	for _, p := range sheetmap.Polygons(snap.Visible(), sheetmap.TownSection) {
		rep.Colors = append(rep.Colors, colorReport{Tile: p.Tile, ID: p.ID, Attribute: p.Attribute, Color: p.ColorIndex})
	}
	for _, pl := range labels.Placements {
		r := pl.Rect
		rep.Labels = append(rep.Labels, labelReport{
			Kind: pl.Kind.String(),
			ID:   pl.ID,
			Text: pl.Text,
			Rect: [4]float64{r.MinX, r.MinY, r.MaxX, r.MaxY},
			Size: pl.Size,
		})
	}
	return rep
}
