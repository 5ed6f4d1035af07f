package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/sheetmap/pkg/colorcache"
)

func newColorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "colors <polygon-id> [attribute]",
		Short: "Print the cached color of a polygon",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("polygon id %q: %w", args[0], err)
			}
			attribute := ""
			if len(args) == 2 {
				attribute = args[1]
			}
			return runColors(cmd.Context(), cmd.OutOrStdout(), id, attribute)
		},
	}
}

func runColors(ctx context.Context, out io.Writer, id int64, attribute string) error {
	cfg := configFromContext(ctx)

	store, err := colorcache.Open(ctx, cfg.StoreConfig())
	if err != nil {
		return fmt.Errorf("open color store: %w", err)
	}
	defer store.Close()

	color, ok, err := store.Get(ctx, id, attribute)
	if err != nil {
		return fmt.Errorf("read color: %w", err)
	}
	if !ok {
		fmt.Fprintf(out, "%d %q: uncolored\n", id, attribute)
		return nil
	}
	fmt.Fprintf(out, "%d %q: %d\n", id, attribute, color)
	return nil
}
