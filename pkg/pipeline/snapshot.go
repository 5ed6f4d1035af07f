package pipeline

import (
	"time"

	"github.com/beetlebugorg/sheetmap/pkg/colorer"
	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
	"github.com/beetlebugorg/sheetmap/pkg/stitch"
)

// Snapshot is the published result of one reconciliation cycle.
//
// Tiles is a deep copy of the working set taken after stitching and
// coloring finished; the background cycle never touches it again. The only
// fields the render path may write are the feature labels, and only through
// Runner.Paint.
type Snapshot struct {
	Seq      uint64 // Increases by one per published cycle
	Cycle    string // Random id used to correlate log lines
	Created  time.Time
	Viewport sheetmap.Rect
	Zoom     int
	Tiles    *sheetmap.TileSet

	Load   LoadStats
	Stitch stitch.Result
	Color  colorer.Result
}

// LoadStats counts the layer changes made by one cycle.
type LoadStats struct {
	Loaded  int // Layers loaded
	Freed   int // Layers freed
	Failed  int // Layer loads that failed and will be retried
	Broken  int // Polygons whose rings could not be assembled
	Evicted int // Tiles dropped because they left the viewport
}

// Visible returns the snapshot tiles that intersect its viewport.
func (s *Snapshot) Visible() []*sheetmap.Tile {
	return s.Tiles.Visible(s.Viewport)
}

// Newer reports whether s was published after other. A nil other is older
// than any snapshot.
func (s *Snapshot) Newer(other *Snapshot) bool {
	return other == nil || s.Seq > other.Seq
}
